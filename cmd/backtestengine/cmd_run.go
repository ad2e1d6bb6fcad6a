package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sawpanic/backtestengine/internal/barsio"
	"github.com/sawpanic/backtestengine/internal/config"
	"github.com/sawpanic/backtestengine/internal/engine"
)

var (
	runBarsPath   string
	runConfigPath string
	runOutPath    string
	runTimeout    time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest over a CSV bar file and print the result as JSON",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runBarsPath, "bars", "", "Path to the CSV bar file (required)")
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "Path to a YAML run config (fee rates, slippage, initial equity)")
	runCmd.Flags().StringVar(&runOutPath, "out", "", "Path to write the JSON result (default: stdout)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Optional run timeout, e.g. 30s")
	_ = runCmd.MarkFlagRequired("bars")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	series, err := barsio.LoadCSV(runBarsPath)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}

	cfg := config.Default()
	if runConfigPath != "" {
		cfg, err = config.Load(runConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	ctx := cmd.Context()
	if runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}

	result, err := engine.Run(ctx, engine.Request{Series: series, Config: cfg})
	if err != nil {
		return fmt.Errorf("run backtest: %w", err)
	}

	out := os.Stdout
	if runOutPath != "" {
		f, err := os.Create(runOutPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		return barsio.WriteResultJSON(f, result)
	}
	return barsio.WriteResultJSON(out, result)
}
