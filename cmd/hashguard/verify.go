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

	"github.com/jamesainslie/hashguard/pkg/hashguard/config"
	"github.com/jamesainslie/hashguard/pkg/hashguard/history"
	"github.com/jamesainslie/hashguard/pkg/hashguard/manifest"
	"github.com/jamesainslie/hashguard/pkg/hashguard/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <manifest.json>",
	Short: "Verify file integrity against a saved manifest",
	Long: `Verify recomputes the digest of every file recorded in the manifest
and classifies each path as MATCH, MISMATCH, FILE_NOT_FOUND,
READ_ERROR, or VERIFICATION_ERROR. Use --base-path when the files have
moved since the manifest was written.

The command exits non-zero when any file is corrupted (MISMATCH).`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

var (
	verifyBasePath string
	verifyOutput   string
)

func init() {
	verifyCmd.Flags().StringVarP(&verifyBasePath, "base-path", "b", "", "directory to resolve relative paths against")
	verifyCmd.Flags().StringVarP(&verifyOutput, "output", "o", "", "report output path (default: verification_report_<timestamp>.json)")
	rootCmd.AddCommand(verifyCmd)
}

// runVerify is the verify command handler.
func runVerify(_ *cobra.Command, args []string) error {
	m, err := manifest.Load(args[0])
	if err != nil {
		return err
	}

	basePath := verifyBasePath
	if basePath != "" {
		if basePath, err = config.ExpandPath(basePath); err != nil {
			return fmt.Errorf("failed to expand base path: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printInfo("Verifying %d files against %s (%s)...",
		len(m.Hashes), args[0], m.Metadata.Algorithm)

	report, err := verify.Verify(ctx, m, verify.Options{
		BasePath:   basePath,
		ChunkSize:  viper.GetInt("chunk_size"),
		OnProgress: progressPrinter(),
	})
	if err != nil {
		return err
	}
	finishProgress()

	outPath := verifyOutput
	if outPath == "" {
		outPath = fmt.Sprintf("verification_report_%s.json", time.Now().Format("20060102_150405"))
	}
	if err := manifest.SaveReport(report, outPath); err != nil {
		return err
	}

	printVerifySummary(report, outPath)
	recordVerifyHistory(m, report, outPath)

	if report.Summary.Mismatches > 0 {
		return fmt.Errorf("%d corrupted files detected", report.Summary.Mismatches)
	}
	return nil
}

// printVerifySummary prints the outcome tally.
func printVerifySummary(report *manifest.Report, outPath string) {
	s := report.Summary
	printInfo("")
	printInfo("Checked %d files:", report.Metadata.TotalFilesChecked)
	printInfo("  matches:             %d", s.Matches)
	printInfo("  mismatches:          %d", s.Mismatches)
	printInfo("  not found:           %d", s.NotFound)
	printInfo("  read errors:         %d", s.ReadErrors)
	printInfo("  verification errors: %d", s.VerificationErrors)
	if s.Mismatches > 0 {
		printInfo("Corrupted file details in %s", corruptedCompanion(outPath))
	}
	printInfo("Report written to %s", outPath)
}

// recordVerifyHistory appends the run to the operation journal.
func recordVerifyHistory(m *manifest.Manifest, report *manifest.Report, outPath string) {
	if !viper.GetBool("history.enabled") {
		return
	}

	h, err := history.New(viper.GetString("history.path"))
	if err == nil {
		err = h.EnsureDir()
	}
	if err == nil {
		_, err = h.Record(history.Entry{
			Operation: history.OpVerify,
			Location:  m.Metadata.ScanLocation,
			Algorithm: m.Metadata.Algorithm,
			Artifact:  outPath,
			Summary: history.Summary{
				TotalFiles: report.Metadata.TotalFilesChecked,
				ErrorFiles: report.Metadata.ErrorFiles,
				Matches:    report.Summary.Matches,
				Mismatches: report.Summary.Mismatches,
				NotFound:   report.Summary.NotFound,
			},
		})
	}
	if err != nil {
		printVerbose("Failed to record history: %v", err)
	}
}

// corruptedCompanion mirrors the manifest package's companion naming.
func corruptedCompanion(path string) string {
	if len(path) > 5 && path[len(path)-5:] == ".json" {
		return path[:len(path)-5] + "_corrupted.txt"
	}
	return path + "_corrupted.txt"
}
