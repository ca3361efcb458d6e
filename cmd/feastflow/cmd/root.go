// Package cmd provides the CLI commands for feastflow.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/feastflow/storefront/internal/config"
)

var (
	cfgFile      string
	envFile      string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "feastflow",
	Short: "FeastFlow - order food from the terminal",
	Long: `feastflow is a client for the FeastFlow food ordering API.

Browse the menu, keep a cart, place orders and follow their delivery
status live. Admins can manage the menu, move orders along and read the
sales report.

Quick start:
  feastflow login --email you@example.com
  feastflow menu list
  feastflow cart add <menu-item-id>
  feastflow checkout --name "Ana" --address "1 Main St" --phone 555-0100
  feastflow watch

Configuration:
  Config is loaded from feastflow.yaml in the current directory,
  $HOME/.feastflow/, or /etc/feastflow/. A .env file in the current
  directory is read first.

  Environment variables override config values with the FEASTFLOW_ prefix.
  Example: FEASTFLOW_API_BASE_URL=https://shop.example.com/api`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./feastflow.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
}

func initConfig() {
	if err := config.LoadDotEnv(envFile); err != nil {
		fmt.Fprintln(os.Stderr, "Warning:", err)
	}
	config.InitViper(cfgFile)
}
