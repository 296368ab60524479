package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"quantbt/internal/analysis"
	"quantbt/internal/config"
	"quantbt/internal/engine"
	"quantbt/internal/report"
	"quantbt/internal/repository"
	"quantbt/types"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	configPath   string
	outputPath   string
	formatFlag   string
	showProgress bool
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "quantbt",
	Short: "Historical strategy backtesting and risk analytics",
	Long: `quantbt replays trading signals against historical daily bars,
simulates execution with configurable slippage and commission models, and
writes a risk-analytics report in JSON, Markdown, HTML, or PDF.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest from a YAML run file",
	RunE:  runBacktest,
}

var reportCmd = &cobra.Command{
	Use:   "report <result.json>",
	Short: "Re-encode a stored result without re-running the simulation",
	Long: `Reads a canonical JSON result, re-derives the analysis, and writes the
report in another encoding. The simulation itself is not repeated.`,
	Args: cobra.ExactArgs(1),
	RunE: regenerateReport,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	runCmd.Flags().StringVarP(&configPath, "config", "c", "quantbt.yaml", "run file")
	runCmd.Flags().BoolVar(&showProgress, "progress", false, "show a progress bar during the run")
	reportCmd.Flags().StringVarP(&formatFlag, "format", "f", "markdown", "output format (json|markdown|html|pdf)")
	reportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path (default stdout)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reportCmd)
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	cobra.OnInitialize(func() {
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	})
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("quantbt failed")
	}
}

func runBacktest(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}

	priceData, signals, err := loadInputs(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if showProgress {
		bar := initProgressBar()
		engineCfg.Progress = func(done, total int) {
			bar.ChangeMax(total)
			_ = bar.Set(done)
		}
	}

	started := time.Now()
	result, err := engine.Run(priceData, signals, engineCfg)
	if err != nil {
		return err
	}
	log.Info().
		Int("snapshots", len(result.Snapshots)).
		Int("trades", result.TotalTrades).
		Int("rejections", len(result.Rejections)).
		Dur("elapsed", time.Since(started)).
		Msg("backtest complete")

	res := analysis.Analyze(result)
	out, err := report.Generate(result, res, cfg.ReportConfig())
	if err != nil {
		return err
	}
	return writeOutput(cfg.Report.Output, out)
}

func regenerateReport(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read result: %w", err)
	}
	result, err := report.DecodeResult(data)
	if err != nil {
		return err
	}
	res := analysis.Analyze(result)
	out, err := report.Generate(result, res, report.Config{Format: report.Format(formatFlag)})
	if err != nil {
		return err
	}
	return writeOutput(outputPath, out)
}

// loadInputs materializes bars and signals from either the CSV fixtures
// or the Postgres price store, per the run file.
func loadInputs(ctx context.Context, cfg *config.Config) (map[string][]types.Bar, []types.Signal, error) {
	var priceData map[string][]types.Bar
	var err error

	switch {
	case cfg.Data.BarsFile != "":
		priceData, err = repository.LoadBarsFile(cfg.Data.BarsFile)
		if err != nil {
			return nil, nil, err
		}
	case cfg.Data.DatabaseURL != "":
		priceData, err = loadFromDatabase(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("run file needs either data.bars_file or data.database_url")
	}

	signals, err := repository.LoadSignalsFile(cfg.Data.SignalsFile)
	if err != nil {
		return nil, nil, err
	}
	return priceData, signals, nil
}

func loadFromDatabase(ctx context.Context, cfg *config.Config) (map[string][]types.Bar, error) {
	start, err := time.Parse("2006-01-02", cfg.Data.Start)
	if err != nil {
		return nil, fmt.Errorf("data.start: %w", err)
	}
	end, err := time.Parse("2006-01-02", cfg.Data.End)
	if err != nil {
		return nil, fmt.Errorf("data.end: %w", err)
	}

	db, err := repository.NewDatabase(ctx, cfg.Data.DatabaseURL)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	priceData := make(map[string][]types.Bar, len(cfg.Data.Symbols))
	for _, symbol := range cfg.Data.Symbols {
		if err := db.SymbolExists(ctx, symbol); err != nil {
			return nil, err
		}
		bars, err := db.GetBars(ctx, symbol, start, end)
		if err != nil {
			return nil, err
		}
		priceData[symbol] = bars
	}
	return priceData, nil
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	log.Info().Str("path", path).Int("bytes", len(data)).Msg("report written")
	return nil
}

func initProgressBar() *progressbar.ProgressBar {
	return progressbar.NewOptions(1,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
