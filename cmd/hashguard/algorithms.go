package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/hashguard/pkg/hashguard/digest"
)

var algorithmsCmd = &cobra.Command{
	Use:   "algorithms",
	Short: "List available digest algorithms",
	Long: `List the digest algorithms available in this build. The configured
default is marked with an asterisk.`,
	Run: runAlgorithms,
}

func init() {
	rootCmd.AddCommand(algorithmsCmd)
}

// runAlgorithms prints the available algorithm set.
func runAlgorithms(_ *cobra.Command, _ []string) {
	defaultAlgo := digest.Algorithm(viper.GetString("algorithm"))

	for _, algo := range digest.Available() {
		marker := " "
		if algo == defaultAlgo {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, algo)
	}
}
