package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sawpanic/backtestengine/internal/barsio"
)

var validateBarsPath string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a CSV bar file without running the backtest",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateBarsPath, "bars", "", "Path to the CSV bar file (required)")
	_ = validateCmd.MarkFlagRequired("bars")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	series, err := barsio.LoadCSV(validateBarsPath)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}
	n, err := series.Validate()
	if err != nil {
		return err
	}
	fmt.Printf("ok: %d bars, all validator checks passed\n", n)
	return nil
}
