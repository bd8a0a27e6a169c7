package cli

import (
	"github.com/spf13/cobra"

	"wallstreet-rpg/internal/models"
	"wallstreet-rpg/pkg/utils"
)

func newDraftCmd(app *App) *cobra.Command {
	var (
		year    int
		capital float64
		count   int
	)

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Preview a draft pack for a capital tier and year",
		Long: `Draft generates and prices a sample card pack the way the season-opening
draft would: sector and rarity odds depend on the capital tier, and only
instruments trading in the chosen year are eligible.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			cards, err := app.Drafts.Pack(capital, year, count)
			if err != nil {
				return err
			}
			app.Metrics.IncDraft()

			symbols := make([]string, 0, len(cards))
			seen := make(map[string]bool)
			for _, c := range cards {
				if !seen[c.Symbol] {
					seen[c.Symbol] = true
					symbols = append(symbols, c.Symbol)
				}
			}
			series, names := app.Fetcher.ResolveAdjusted(cmd.Context(), symbols, year)
			closes := make(map[string]float64, len(series))
			for sym, s := range series {
				if len(s) > 0 {
					closes[sym] = s[0].Close
				}
			}
			infos := app.Drafts.PriceInitial(cards, closes, capital)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"tier":  models.TierForCapital(capital),
					"year":  year,
					"cards": cards,
					"infos": infos,
				})
			}

			output.Bold("🃏 %s tier pack for %d (%s capital)",
				models.TierForCapital(capital), year, utils.FormatUSD(capital))
			output.Println()
			printPack(output, cards, infos, names)
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 2020, "historical year")
	cmd.Flags().Float64Var(&capital, "capital", 10000, "capital determining the tier")
	cmd.Flags().IntVar(&count, "count", InitialPackSize, "number of cards in the pack")
	return cmd
}
