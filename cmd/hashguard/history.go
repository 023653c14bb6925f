package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/hashguard/pkg/hashguard/config"
	"github.com/jamesainslie/hashguard/pkg/hashguard/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	Long: `View the journal of scan and verify operations, including which
manifest or report each run produced.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details of a specific operation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean up old history entries",
	Long:  `Remove history entries older than the retention period.`,
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// getHistory returns a journal instance with the configured directory.
func getHistory() (*history.History, error) {
	path := viper.GetString("history.path")
	if path == "" {
		path = config.DefaultHistoryPath()
	}
	return history.New(path)
}

// runHistory lists recent operations.
func runHistory(_ *cobra.Command, _ []string) error {
	h, err := getHistory()
	if err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	entries, err := h.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No history entries found.")
		printInfo("Run 'hashguard scan <location>' to create a manifest.")
		return nil
	}

	fmt.Printf("\n%-38s  %-8s  %-10s  %-8s  %s\n", "ID", "TYPE", "ALGORITHM", "FILES", "LOCATION")
	fmt.Println(strings.Repeat("-", 90))

	for _, entry := range entries {
		fmt.Printf("%-38s  %-8s  %-10s  %-8d  %s\n",
			truncateString(entry.ID, 38),
			entry.Operation,
			entry.Algorithm,
			entry.Summary.TotalFiles,
			truncateString(entry.Location, 30),
		)
	}

	fmt.Println(strings.Repeat("-", 90))
	fmt.Printf("\nShowing %d entries. Use 'hashguard history show <id>' for details.\n", len(entries))
	return nil
}

// runHistoryShow displays details of a specific operation.
func runHistoryShow(_ *cobra.Command, args []string) error {
	h, err := getHistory()
	if err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	entry, err := h.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	fmt.Println("\nOperation Details")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("ID:         %s\n", entry.ID)
	fmt.Printf("Timestamp:  %s\n", entry.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Operation:  %s\n", entry.Operation)
	fmt.Printf("Location:   %s\n", entry.Location)
	fmt.Printf("Algorithm:  %s\n", entry.Algorithm)
	if entry.Artifact != "" {
		fmt.Printf("Artifact:   %s\n", entry.Artifact)
	}
	fmt.Printf("Files:      %d\n", entry.Summary.TotalFiles)
	fmt.Printf("Errors:     %d\n", entry.Summary.ErrorFiles)
	if entry.Operation == history.OpVerify {
		fmt.Printf("Matches:    %d\n", entry.Summary.Matches)
		fmt.Printf("Mismatches: %d\n", entry.Summary.Mismatches)
		fmt.Printf("Not found:  %d\n", entry.Summary.NotFound)
	}
	return nil
}

// runHistoryClean removes old history entries.
func runHistoryClean(_ *cobra.Command, _ []string) error {
	h, err := getHistory()
	if err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	retentionDays := viper.GetInt("history.retention_days")
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	printInfo("Cleaning history entries older than %d days...", retentionDays)
	if err := h.Cleanup(retentionDays); err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}
	printInfo("History cleanup complete.")
	return nil
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
