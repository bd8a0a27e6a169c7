package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"wallstreet-rpg/internal/generator"
	"wallstreet-rpg/internal/inflation"
	"wallstreet-rpg/pkg/utils"
)

func newGenerateCmd(app *App) *cobra.Command {
	var (
		year   int
		adjust bool
		tail   int
	)

	cmd := &cobra.Command{
		Use:   "generate <symbol>",
		Short: "Generate the deterministic price series for a symbol and year",
		Long: `Generate prints the synthetic trading year for a symbol. The same symbol
and year always produce the same series.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol := args[0]

			series := app.Generator.Historical(symbol, year)
			if len(series.Candles) == 0 {
				output.Warning("No candles generated for %s %d", symbol, year)
				return nil
			}
			app.Metrics.AddCandles(len(series.Candles))
			candles := series.Candles
			if adjust {
				for i, c := range candles {
					candles[i] = inflation.AdjustCandle(c, year)
				}
			}

			if output.IsJSON() {
				return output.JSON(series)
			}

			output.Bold("📈 %s (%s) — %d, %d trading days", series.Symbol, series.StockName, series.Year, len(candles))
			if adjust {
				output.Dim("Prices in %d dollars", inflation.BaseYear)
			}

			start := 0
			if tail > 0 && len(candles) > tail {
				start = len(candles) - tail
			}
			table := NewTable(output, "Date", "Open", "High", "Low", "Close", "Volume")
			for _, c := range candles[start:] {
				table.AddRow(
					c.Time,
					utils.FormatUSD(c.Open),
					utils.FormatUSD(c.High),
					utils.FormatUSD(c.Low),
					utils.FormatUSD(c.Close),
					utils.FormatQuantity(c.Volume),
				)
			}
			table.Render()

			first, last := candles[0], candles[len(candles)-1]
			yearReturn := (last.Close - first.Open) / first.Open
			output.Printf("Year return: %s\n", output.FormatReturn(yearReturn))
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 2020, fmt.Sprintf("historical year (%d-%d)", generator.MinYear, generator.MaxYear))
	cmd.Flags().BoolVar(&adjust, "adjust", false, "convert prices to current dollars")
	cmd.Flags().IntVar(&tail, "tail", 20, "show only the last N candles (0 for all)")
	return cmd
}
