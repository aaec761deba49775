// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/shaper/internal/config"
	"firestige.xyz/shaper/internal/log"
)

var (
	// Global flags
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shaper",
	Short: "Shaper - traffic-shaping and QoS engine for router egress paths",
	Long: `Shaper classifies packet descriptors into six priority tiers, holds them
in bounded per-tier queues and releases them under a weighted-fair
scheduling discipline, tracking per-flow state and exposing a
token-bucket admission gate.

The engine is a pure decision unit: classify, admit or drop, schedule,
release. Link access, capture and delivery belong to the surrounding
system; the replay command drives the engine from a pcap file.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (default: built-in defaults with stock rules)")

	// Add subcommands
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(validateCmd)
}

// loadConfig loads the configured file or falls back to defaults, and
// initializes logging.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if configFile == "" {
		cfg = config.Default()
	} else {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := log.Init(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

// exitWithError prints error message and exits with code 1
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
