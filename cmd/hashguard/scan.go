package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/hashguard/pkg/hashguard/cache"
	"github.com/jamesainslie/hashguard/pkg/hashguard/config"
	"github.com/jamesainslie/hashguard/pkg/hashguard/digest"
	"github.com/jamesainslie/hashguard/pkg/hashguard/history"
	"github.com/jamesainslie/hashguard/pkg/hashguard/manifest"
	"github.com/jamesainslie/hashguard/pkg/hashguard/scanner"
	"github.com/jamesainslie/hashguard/pkg/hashguard/types"
	"github.com/jamesainslie/hashguard/pkg/hashguard/walker"
)

var scanCmd = &cobra.Command{
	Use:   "scan <location>",
	Short: "Compute digests for a file or directory tree",
	Long: `Scan hashes every regular file under the given location and writes
the results as a JSON manifest. Per-file read failures are recorded in
the manifest's error list without aborting the scan. Interrupting a
scan (Ctrl-C) stops dispatching new files; completed digests are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

var scanOutput string

func init() {
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "manifest output path (default: hash_results_<timestamp>.json)")
	rootCmd.AddCommand(scanCmd)
}

// runScan is the scan command handler.
func runScan(_ *cobra.Command, args []string) error {
	location, err := config.ExpandPath(args[0])
	if err != nil {
		return fmt.Errorf("failed to expand path: %w", err)
	}

	algo := digest.Algorithm(viper.GetString("algorithm"))
	if !digest.Supported(algo) {
		return fmt.Errorf("%w: %q (run 'hashguard algorithms')", digest.ErrUnsupportedAlgorithm, algo)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printVerbose("Expanding %s", location)
	paths, err := walker.Expand(ctx, location)
	if err != nil {
		return err
	}
	printInfo("Hashing %s files with %s...", types.FormatCount(len(paths)), algo)

	opts := scanner.Options{
		Algorithm:  algo,
		Workers:    viper.GetInt("workers"),
		ChunkSize:  viper.GetInt("chunk_size"),
		OnProgress: progressPrinter(),
	}

	var digestCache *cache.Cache
	if viper.GetBool("cache.enabled") && !viper.GetBool("no_cache") {
		digestCache, err = cache.Open(viper.GetString("cache.path"))
		if err != nil {
			printVerbose("Digest cache unavailable, hashing fresh: %v", err)
		} else {
			defer func() { _ = digestCache.Close() }()
			opts.Cache = digestCache
		}
	}

	result, err := scanner.New(opts).Run(ctx, paths)
	if err != nil {
		return err
	}
	finishProgress()

	m, err := manifest.Build(result.Digests, result.Failed, algo, location)
	if err != nil {
		return err
	}

	outPath := scanOutput
	if outPath == "" {
		outPath = fmt.Sprintf("hash_results_%s.json", time.Now().Format("20060102_150405"))
	}
	if err := manifest.Save(m, outPath); err != nil {
		return err
	}

	printScanSummary(result, m, outPath)
	recordScanHistory(m, result, outPath)

	if result.Stopped {
		printInfo("Scan stopped before completion; manifest holds partial results.")
	}
	return nil
}

// printScanSummary prints the post-scan totals.
func printScanSummary(result *scanner.Result, m *manifest.Manifest, outPath string) {
	var totalBytes int64
	for _, rec := range m.Hashes {
		totalBytes += rec.Size
	}

	printInfo("")
	printInfo("Hashed %s files (%s) in %s",
		types.FormatCount(len(result.Digests)),
		types.FormatSize(totalBytes),
		result.Elapsed.Round(time.Millisecond))
	if result.CacheHits > 0 {
		printInfo("Digest cache: %d hits, %d misses", result.CacheHits, result.CacheMisses)
	}
	if len(result.Failed) > 0 {
		printInfo("%d files could not be read; see %s", len(result.Failed), errorsCompanion(outPath))
	}
	printInfo("Manifest written to %s", outPath)
}

// recordScanHistory appends the run to the operation journal.
// Journaling is best effort and never fails the scan.
func recordScanHistory(m *manifest.Manifest, result *scanner.Result, outPath string) {
	if !viper.GetBool("history.enabled") {
		return
	}

	h, err := history.New(viper.GetString("history.path"))
	if err == nil {
		err = h.EnsureDir()
	}
	if err == nil {
		_, err = h.Record(history.Entry{
			Operation: history.OpScan,
			Location:  m.Metadata.ScanLocation,
			Algorithm: m.Metadata.Algorithm,
			Artifact:  outPath,
			Summary: history.Summary{
				TotalFiles: len(result.Digests),
				ErrorFiles: len(result.Failed),
			},
		})
	}
	if err != nil {
		printVerbose("Failed to record history: %v", err)
	}
}

// progressPrinter returns a progress callback that rewrites a single
// status line, or nil in quiet mode.
func progressPrinter() types.ProgressFunc {
	if getQuiet() {
		return nil
	}
	return func(completed, total int, path string) {
		fmt.Printf("\r\033[K  %d/%d  %s", completed, total, truncatePath(path, 60))
	}
}

// finishProgress terminates the in-place progress line.
func finishProgress() {
	if !getQuiet() {
		fmt.Print("\r\033[K")
	}
}

// truncatePath shortens a path for single-line display, keeping the tail.
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return "..." + path[len(path)-maxLen+3:]
}

// errorsCompanion mirrors the manifest package's companion naming.
func errorsCompanion(path string) string {
	if len(path) > 5 && path[len(path)-5:] == ".json" {
		return path[:len(path)-5] + "_errors.txt"
	}
	return path + "_errors.txt"
}
