// Command backtestengine runs the event-driven bar backtesting engine from
// a CSV bar file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backtestengine",
	Short: "Event-driven OHLC bar backtesting engine",
	Long: `backtestengine simulates directional trading strategies over a
fixed-length timeline of OHLC bars with pre-computed entry signals,
producing closed/open positions, an exposure and equity curve, and
per-side performance metrics.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
