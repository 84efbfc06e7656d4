// Package cmd implements the pricefit command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "pricefit",
	Short: "Threshold-price calibration for market groups",
	Long: "pricefit fits the idle and full-activation threshold prices of " +
		"(zone, sector, period) groups from historical spot prices and power series.",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }
