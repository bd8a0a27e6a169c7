package cli

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"wallstreet-rpg/internal/catalog"
	"wallstreet-rpg/internal/config"
	"wallstreet-rpg/internal/draft"
	"wallstreet-rpg/internal/fetch"
	"wallstreet-rpg/internal/generator"
	"wallstreet-rpg/internal/logging"
	"wallstreet-rpg/internal/metrics"
	"wallstreet-rpg/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies shared by all commands.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Catalog   *catalog.Catalog
	Generator *generator.Generator
	Fetcher   *fetch.Client
	Drafts    *draft.Generator
	Metrics   *metrics.Metrics
	Journal   *store.Journal
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	app.Catalog = catalog.MustLoad()
	app.Generator = generator.New(app.Catalog, logger)
	app.Fetcher = fetch.New(fetch.Config{
		Endpoint: cfg.Data.Endpoint,
		APIKey:   cfg.Data.APIKey,
		Timeout:  cfg.Data.Timeout,
	}, app.Generator, logger)
	app.Drafts = draft.New(app.Catalog, logger)
	app.Metrics = metrics.New()

	if cfg.Journal.Enabled {
		journal, err := store.Open(cfg.Journal.Path)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to open season journal, history disabled")
		} else {
			app.Journal = journal
			logger.Debug().Str("path", cfg.Journal.Path).Msg("Season journal opened")
		}
	}

	rootCmd := &cobra.Command{
		Use:   "wsrpg",
		Short: "Wall Street RPG - historical market trading game",
		Long: `Wall Street RPG is a stock trading game played against real market history.

Draft a portfolio of stock cards, ride one simulated year of daily candles,
re-draft at every quarter, and beat the index to win the season.

Use 'wsrpg help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/wsrpg)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newPlayCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newGenerateCmd(app))
	rootCmd.AddCommand(newDraftCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
				return
			}
			output.Printf("Wall Street RPG v%s\n", Version)
		},
	}
}

// seasonYear resolves the playable year: an explicit flag wins, otherwise a
// random year from the configured range.
func (app *App) seasonYear(flagYear int) int {
	if flagYear != 0 {
		return flagYear
	}
	lo, hi := app.Config.Game.MinYear, app.Config.Game.MaxYear
	if lo >= hi {
		return lo
	}
	return lo + int(time.Now().UnixNano())%(hi-lo+1)
}
