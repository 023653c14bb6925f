package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/hashguard/pkg/hashguard/config"
	"github.com/jamesainslie/hashguard/pkg/hashguard/logging"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "hashguard",
		Short: "Compute and verify file digests",
		Long: `Hashguard computes cryptographic digests over files and directory
trees, persists them as a JSON manifest, and later re-verifies file
integrity against that manifest.

Examples:
  hashguard scan ~/photos                 # Hash a directory with SHA256
  hashguard scan -a Blake3 backup.tar     # Hash a single file with BLAKE3
  hashguard verify hash_results.json      # Verify against a manifest
  hashguard verify -b /mnt/restore m.json # Verify relocated files
  hashguard algorithms                    # List available algorithms
  hashguard history                       # View past operations`,
		SilenceUsage:      true,
		PersistentPreRunE: initLogging,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/hashguard/config.yaml)")
	rootCmd.PersistentFlags().StringP("algorithm", "a", "", "digest algorithm (see 'hashguard algorithms')")
	rootCmd.PersistentFlags().IntP("workers", "w", 0, "digest worker count (1-16, 0=default)")
	rootCmd.PersistentFlags().Int("chunk-size", 0, "read buffer size in bytes (0=default)")
	rootCmd.PersistentFlags().Bool("no-cache", false, "bypass the digest cache")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	_ = viper.BindPFlag("algorithm", rootCmd.PersistentFlags().Lookup("algorithm"))
	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("chunk_size", rootCmd.PersistentFlags().Lookup("chunk-size"))
	_ = viper.BindPFlag("no_cache", rootCmd.PersistentFlags().Lookup("no-cache"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "hashguard"))
		}
		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "hashguard"))
		}
	}

	viper.SetEnvPrefix("HASHGUARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	// Read config file (ignore if not found).
	_ = viper.ReadInConfig()
}

// initLogging initializes the logging system from the loaded config.
func initLogging(_ *cobra.Command, _ []string) error {
	cfg := logging.Config{
		Level:      viper.GetString("logging.level"),
		Path:       viper.GetString("logging.path"),
		Components: viper.GetStringMapString("logging.components"),
		Console:    getVerbose(),
	}
	if cfg.Console {
		cfg.Level = "debug"
	}
	if err := logging.Init(cfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logging.Close() }()
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
