package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"wallstreet-rpg/internal/store"
	"wallstreet-rpg/pkg/utils"
)

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse settled seasons from the journal",
	}

	cmd.AddCommand(newHistoryListCmd(app))
	cmd.AddCommand(newHistoryShowCmd(app))
	cmd.AddCommand(newHistoryStatsCmd(app))
	return cmd
}

func newHistoryListCmd(app *App) *cobra.Command {
	var (
		year      int
		victories bool
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded seasons",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Journal == nil {
				return fmt.Errorf("season journal is disabled")
			}

			seasons, err := app.Journal.ListSeasons(cmd.Context(), store.SeasonFilter{
				Year: year, VictoryOnly: victories, Limit: limit,
			})
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(seasons)
			}
			if len(seasons) == 0 {
				output.Dim("No seasons recorded yet")
				return nil
			}

			table := NewTable(output, "ID", "Year", "AUM", "Final", "Return", "Index", "Result")
			for _, s := range seasons {
				result := output.Red("defeat")
				if s.Victory {
					result = output.Green("victory")
				}
				table.AddRow(
					s.ID[:8],
					strconv.Itoa(s.Year),
					utils.FormatUSD(s.AUM),
					utils.FormatUSD(s.FinalAssets),
					output.FormatReturn(s.PortfolioReturn),
					output.FormatReturn(s.BenchmarkReturn),
					result,
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "filter by historical year")
	cmd.Flags().BoolVar(&victories, "victories", false, "show only victories")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum seasons to show")
	return cmd
}

func newHistoryShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <season-id>",
		Short: "Show every trade in a season",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Journal == nil {
				return fmt.Errorf("season journal is disabled")
			}

			trades, err := app.Journal.SeasonTrades(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Dim("No trades recorded for season %s", args[0])
				return nil
			}

			table := NewTable(output, "Day", "Side", "Symbol", "Qty", "Price", "Rarity")
			for _, t := range trades {
				side := output.Green(t.Side)
				if t.Side == "SELL" {
					side = output.Red(t.Side)
				}
				table.AddRow(
					strconv.Itoa(t.DayIndex),
					side,
					t.Symbol,
					utils.FormatQuantity(int64(t.Quantity)),
					utils.FormatUSD(t.Price),
					t.Rarity,
				)
			}
			table.Render()
			return nil
		},
	}
}

func newHistoryStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Aggregate statistics over all settled seasons",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Journal == nil {
				return fmt.Errorf("season journal is disabled")
			}

			stats, err := app.Journal.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(stats)
			}

			output.Bold("📜 Season history")
			output.Printf("  Seasons settled: %d\n", stats.Seasons)
			output.Printf("  Victories:       %d\n", stats.Victories)
			output.Printf("  Best return:     %s\n", output.FormatReturn(stats.BestReturn))
			output.Printf("  Average return:  %s\n", output.FormatReturn(stats.AvgReturn))
			output.Printf("  Trades placed:   %d\n", stats.TradesPlaced)
			return nil
		},
	}
}
