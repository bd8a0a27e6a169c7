package cli

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"wallstreet-rpg/internal/analysis"
	"wallstreet-rpg/internal/draft"
	"wallstreet-rpg/internal/ledger"
	"wallstreet-rpg/internal/logging"
	"wallstreet-rpg/internal/models"
	"wallstreet-rpg/internal/playback"
	"wallstreet-rpg/internal/store"
	"wallstreet-rpg/internal/stream"
	"wallstreet-rpg/pkg/utils"
)

// InitialPackSize is the number of cards offered in the season-opening draft.
const InitialPackSize = 5

type playOptions struct {
	year  int
	aum   float64
	speed int
	mode  string
	auto  bool
}

func newPlayCmd(app *App) *cobra.Command {
	opts := playOptions{}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play one season against a historical year",
		Long: `Play runs a full season: draft an opening portfolio, watch one simulated
year of trading days, re-draft at each quarter, and settle against the index.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(app, cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.year, "year", 0, "historical year to play (default: random)")
	cmd.Flags().Float64Var(&opts.aum, "aum", 0, "starting capital (default: from config)")
	cmd.Flags().IntVar(&opts.speed, "speed", 0, "playback speed, 1-5 days per second")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "chart mode: single or aggregate")
	cmd.Flags().BoolVar(&opts.auto, "auto", false, "auto-select draft cards without prompting")

	return cmd
}

func runPlay(app *App, cmd *cobra.Command, opts playOptions) error {
	output := NewOutput(cmd)
	in := bufio.NewReader(cmd.InOrStdin())
	ctx := cmd.Context()

	if opts.aum == 0 {
		opts.aum = app.Config.Game.AUM
	}
	if opts.speed == 0 {
		opts.speed = app.Config.Game.Speed
	}
	if opts.mode == "" {
		opts.mode = app.Config.Game.Mode
	}
	if err := playback.ValidateSpeed(opts.speed); err != nil {
		return fmt.Errorf("invalid speed %d: must be between 1 and 5", opts.speed)
	}
	year := app.seasonYear(opts.year)

	output.Bold("🎲 Season start: year %d, %s under management", year, utils.FormatUSD(opts.aum))
	output.Println()

	book := ledger.New(app.Logger)
	book.Initialize(opts.aum, year, app.Config.Game.AlphaTarget)

	bench := app.Generator.Benchmark(year)
	book.SetBenchmark(bench.Candles)

	seasonID := uuid.NewString()
	if app.Journal != nil {
		err := app.Journal.BeginSeason(ctx, store.SeasonRecord{
			ID: seasonID, StartedAt: time.Now(), Year: year, AUM: opts.aum,
		})
		if err != nil {
			app.Logger.Warn().Err(err).Msg("Could not record season start")
		}
	}

	selections, err := runInitialDraft(app, ctx, output, in, opts, year)
	if err != nil {
		return err
	}
	if err := book.CompleteInitialDraft(selections); err != nil {
		return fmt.Errorf("completing initial draft: %w", err)
	}
	recordBuys(app, ctx, seasonID, 0, selections)

	hub := stream.NewHub(app.Logger)
	defer hub.Close()
	go printProgress(output, hub.Subscribe("terminal"), book)

	driver, err := playback.New(book, app.Drafts, app.Fetcher, hub, app.Metrics,
		playback.Config{Speed: opts.speed, Mode: playback.DisplayMode(opts.mode)}, app.Logger)
	if err != nil {
		return err
	}
	driver.Start()
	defer driver.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-driver.Done():
			printSettlement(app, ctx, output, book, seasonID)
			return nil
		case pack := <-driver.Packs():
			handleQuarterPack(app, ctx, output, in, book, pack, opts.auto, seasonID)
		}
	}
}

// runInitialDraft prices the opening pack and collects the player's picks.
func runInitialDraft(app *App, ctx context.Context, output *Output, in *bufio.Reader, opts playOptions, year int) ([]ledger.Selection, error) {
	cards, err := app.Drafts.Pack(opts.aum, year, InitialPackSize)
	if err != nil {
		return nil, fmt.Errorf("generating opening pack: %w", err)
	}

	symbols := make([]string, 0, len(cards))
	seen := make(map[string]bool)
	for _, c := range cards {
		if !seen[c.Symbol] {
			seen[c.Symbol] = true
			symbols = append(symbols, c.Symbol)
		}
	}
	series, names := app.Fetcher.ResolveAdjusted(ctx, symbols, year)

	closes := make(map[string]float64, len(series))
	for sym, s := range series {
		if len(s) > 0 {
			closes[sym] = s[0].Close
		}
	}
	infos := app.Drafts.PriceInitial(cards, closes, opts.aum)
	logging.LogDraft(app.Logger, string(models.TierForCapital(opts.aum)), year, 0, len(cards))

	output.Info("📦 Opening pack")
	printPack(output, cards, infos, names)

	picks := pickCards(output, in, cards, infos, opts.auto, opts.aum)

	cash := opts.aum
	var selections []ledger.Selection
	for _, idx := range picks {
		info, _ := draft.ClampToCash(infos[idx], cash)
		if info.TotalCost > cash {
			output.Warning("Skipping %s: not enough cash for a single share", cards[idx].Symbol)
			continue
		}
		cash -= info.TotalCost
		selections = append(selections, ledger.Selection{
			Card:      cards[idx],
			Info:      info,
			StockName: names[cards[idx].Symbol],
			Series:    series[cards[idx].Symbol],
		})
	}
	if len(selections) == 0 {
		return nil, fmt.Errorf("no affordable cards selected from the opening pack")
	}
	return selections, nil
}

// handleQuarterPack pauses at a quarter boundary: show the book, let the
// player sell, then buy one card or pass.
func handleQuarterPack(app *App, ctx context.Context, output *Output, in *bufio.Reader, book *ledger.Ledger, pack playback.QuarterPack, auto bool, seasonID string) {
	output.Println()
	output.Info("📊 Quarter boundary at day %d", pack.Day)
	printPortfolio(output, book.Snapshot())
	printPack(output, pack.Cards, pack.Infos, pack.Names)

	if auto {
		for i := range pack.Cards {
			if buyQuarterCard(app, ctx, output, book, pack, i, seasonID) {
				return
			}
		}
		output.Dim("No affordable card, passing")
		book.CancelQuarterlyDraft()
		return
	}

	for {
		output.Printf("Pick a card [1-%d], 'sell <n>' to sell a position, or 'pass': ", len(pack.Cards))
		line, err := in.ReadString('\n')
		if err != nil {
			book.CancelQuarterlyDraft()
			return
		}
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) == 0 {
			continue
		}

		switch {
		case fields[0] == "pass":
			book.CancelQuarterlyDraft()
			return
		case fields[0] == "sell" && len(fields) == 2:
			sellByIndex(app, ctx, output, book, fields[1], seasonID)
			printPortfolio(output, book.Snapshot())
		default:
			n, err := strconv.Atoi(fields[0])
			if err != nil || n < 1 || n > len(pack.Cards) {
				output.Warning("Unrecognized input")
				continue
			}
			if buyQuarterCard(app, ctx, output, book, pack, n-1, seasonID) {
				return
			}
		}
	}
}

func buyQuarterCard(app *App, ctx context.Context, output *Output, book *ledger.Ledger, pack playback.QuarterPack, idx int, seasonID string) bool {
	card := pack.Cards[idx]
	cash := book.Cash()
	info, clamped := draft.ClampToCash(pack.Infos[idx], cash)
	if info.TotalCost > cash {
		output.Warning("Cannot afford a single share of %s", card.Symbol)
		return false
	}
	if clamped {
		output.Dim("Quantity clamped to %d shares to fit cash", info.Quantity)
	}

	sel := ledger.Selection{
		Card:      card,
		Info:      info,
		StockName: pack.Names[card.Symbol],
		Series:    pack.Series[card.Symbol],
	}
	if err := book.CompleteQuarterlySelect(sel); err != nil {
		output.Error("Buy failed: %v", err)
		return false
	}
	output.Success("✓ Bought %d × %s at %s", info.Quantity, card.Symbol, utils.FormatUSD(info.Price))
	recordBuys(app, ctx, seasonID, pack.Day, []ledger.Selection{sel})
	return true
}

func sellByIndex(app *App, ctx context.Context, output *Output, book *ledger.Ledger, arg, seasonID string) {
	n, err := strconv.Atoi(arg)
	snap := book.Snapshot()
	if err != nil || n < 1 || n > len(snap.Positions) {
		output.Warning("No such position")
		return
	}
	pos := snap.Positions[n-1]
	if err := book.SellPosition(pos.ID); err != nil {
		output.Error("Sell failed: %v", err)
		return
	}
	proceeds := pos.MarketValue()
	output.Success("✓ Sold %d × %s for %s", pos.Quantity, pos.Symbol, utils.FormatUSD(proceeds))
	logging.LogTrade(app.Logger, "SELL", pos.Symbol, pos.Quantity, pos.CurrentPrice)
	if app.Journal != nil {
		app.Journal.RecordTrade(ctx, store.TradeRecord{
			ID: uuid.NewString(), SeasonID: seasonID, DayIndex: pos.CurrentDayIndex,
			Symbol: pos.Symbol, StockName: pos.StockName, Side: "SELL",
			Quantity: pos.Quantity, Price: pos.CurrentPrice, Rarity: string(pos.Rarity),
		})
	}
}

func recordBuys(app *App, ctx context.Context, seasonID string, day int, selections []ledger.Selection) {
	for _, sel := range selections {
		logging.LogTrade(app.Logger, "BUY", sel.Card.Symbol, sel.Info.Quantity, sel.Info.Price)
	}
	if app.Journal == nil {
		return
	}
	for _, sel := range selections {
		err := app.Journal.RecordTrade(ctx, store.TradeRecord{
			ID: uuid.NewString(), SeasonID: seasonID, DayIndex: day,
			Symbol: sel.Card.Symbol, StockName: sel.StockName, Side: "BUY",
			Quantity: sel.Info.Quantity, Price: sel.Info.Price, Rarity: string(sel.Card.Rarity),
		})
		if err != nil {
			app.Logger.Warn().Err(err).Str("symbol", sel.Card.Symbol).Msg("Could not journal trade")
		}
	}
}

// pickCards collects opening-pack picks, either automatically (greedy while
// cash remains) or from the prompt.
func pickCards(output *Output, in *bufio.Reader, cards []models.StockCard, infos []models.CardPriceInfo, auto bool, cash float64) []int {
	if auto {
		var picks []int
		remaining := cash
		for i, info := range infos {
			if info.TotalCost <= remaining && len(picks) < ledger.MaxPositions {
				picks = append(picks, i)
				remaining -= info.TotalCost
			}
		}
		return picks
	}

	for {
		output.Printf("Pick cards [1-%d], space separated (e.g. '1 3 4'): ", len(cards))
		line, err := in.ReadString('\n')
		if err != nil {
			return nil
		}
		var picks []int
		valid := true
		for _, f := range strings.Fields(strings.TrimSpace(line)) {
			n, err := strconv.Atoi(f)
			if err != nil || n < 1 || n > len(cards) {
				output.Warning("Unrecognized pick: %s", f)
				valid = false
				break
			}
			picks = append(picks, n-1)
		}
		if valid && len(picks) > 0 {
			return picks
		}
	}
}

func printPack(output *Output, cards []models.StockCard, infos []models.CardPriceInfo, names map[string]string) {
	table := NewTable(output, "#", "Symbol", "Name", "Sector", "Rarity", "Price", "Qty", "Cost")
	for i, card := range cards {
		info := infos[i]
		name := names[card.Symbol]
		if name == "" {
			name = card.Symbol
		}
		table.AddRow(
			strconv.Itoa(i+1),
			card.Symbol,
			name,
			string(card.Sector),
			output.RarityTag(card.Rarity),
			utils.FormatUSD(info.Price),
			utils.FormatQuantity(int64(info.Quantity)),
			utils.FormatUSD(info.TotalCost),
		)
	}
	table.Render()
	output.Println()
}

func printPortfolio(output *Output, snap ledger.Snapshot) {
	output.Bold("Portfolio — day %d  cash %s  total %s", snap.CurrentDay,
		utils.FormatUSD(snap.RealizedProfit), utils.FormatUSD(snap.TotalAssets))
	table := NewTable(output, "#", "Symbol", "Qty", "Buy", "Now", "P&L")
	for i, pos := range snap.Positions {
		pnl := (pos.CurrentPrice - pos.BuyPrice) * float64(pos.Quantity)
		table.AddRow(
			strconv.Itoa(i+1),
			pos.Symbol,
			utils.FormatQuantity(int64(pos.Quantity)),
			utils.FormatUSD(pos.BuyPrice),
			utils.FormatUSD(pos.CurrentPrice),
			output.FormatPnL(pnl),
		)
	}
	table.Render()
	output.Println()
}

// printProgress consumes render events and prints a compact line once per
// simulated month.
func printProgress(output *Output, events <-chan models.RenderEvent, book *ledger.Ledger) {
	days := 0
	for ev := range events {
		if ev.Kind != models.RenderNewCandle {
			continue
		}
		days++
		if days%21 == 0 {
			output.Dim("  day %3d  total %s", book.CurrentDay(), utils.FormatUSD(book.TotalAssets()))
		}
	}
}

func printSettlement(app *App, ctx context.Context, output *Output, book *ledger.Ledger, seasonID string) {
	snap := book.Snapshot()
	portfolioReturn := book.PortfolioReturn() / 100
	benchmarkReturn := book.BenchmarkReturn() / 100
	victory := book.Victory()
	logging.LogSettlement(app.Logger, snap.TotalAssets, portfolioReturn, benchmarkReturn, victory)

	output.Println()
	output.Bold("🏁 Season settled — year %d", snap.SelectedYear)
	printPortfolio(output, snap)
	output.Printf("Final assets:     %s\n", utils.FormatUSD(snap.TotalAssets))
	output.Printf("Portfolio return: %s\n", output.FormatReturn(portfolioReturn))
	output.Printf("Index return:     %s\n", output.FormatReturn(benchmarkReturn))

	values := make([]float64, 0, snap.CurrentDay+1)
	for day := 0; day <= snap.CurrentDay; day++ {
		values = append(values, book.AggregateValueAt(day))
	}
	if rep := analysis.Summarize(values); rep.BestDay.Day >= 0 {
		output.Println()
		output.Dim("Max drawdown:     %s", utils.FormatPercent(-rep.MaxDrawdown))
		output.Dim("Volatility (ann): %s", utils.FormatPercent(rep.Volatility))
		output.Dim("Best day:         %s (day %d)", utils.FormatPercent(rep.BestDay.Return), rep.BestDay.Day)
		output.Dim("Worst day:        %s (day %d)", utils.FormatPercent(rep.WorstDay.Return), rep.WorstDay.Day)
		output.Dim("Up days:          %s", utils.FormatPercent(rep.UpDayRate))
	}

	if victory {
		output.Success("🏆 VICTORY")
	} else {
		output.Error("💀 DEFEAT")
	}

	if app.Journal != nil {
		err := app.Journal.SettleSeason(ctx, store.SeasonRecord{
			ID:              seasonID,
			SettledAt:       time.Now(),
			FinalAssets:     snap.TotalAssets,
			PortfolioReturn: portfolioReturn,
			BenchmarkReturn: benchmarkReturn,
			Victory:         victory,
		})
		if err != nil {
			app.Logger.Warn().Err(err).Msg("Could not journal settlement")
		}
	}
}
