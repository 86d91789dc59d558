package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/rxtech-lab/argo-contraction/internal/backtest/engine"
	enginev1 "github.com/rxtech-lab/argo-contraction/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-contraction/internal/logger"
	"github.com/rxtech-lab/argo-contraction/internal/strategy"
	"github.com/rxtech-lab/argo-contraction/internal/types"
	"github.com/rxtech-lab/argo-contraction/internal/version"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap/zapcore"
)

// runAction loads the engine config, runs the backtest over every instrument in
// the data file and prints a per-instrument signal summary.
func runAction(ctx context.Context, cmd *cli.Command) error {
	config, err := os.ReadFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	level, err := zapcore.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	appLogger, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	defer func() { _ = appLogger.Sync() }()

	backtest := enginev1.NewBacktestEngineV1WithRegisterer(nil)
	backtest.SetLogger(appLogger)

	defer func() { _ = backtest.Close() }()

	if err := backtest.Initialize(string(config)); err != nil {
		return fmt.Errorf("failed to initialize backtest engine: %w", err)
	}

	if cmd.IsSet("data") {
		backtest.SetDataPath(cmd.String("data"))
	}

	if cmd.IsSet("workers") {
		backtest.SetWorkers(int(cmd.Int("workers")))
	}

	if cmd.IsSet("results") {
		if err := backtest.SetResultsFolder(cmd.String("results")); err != nil {
			return err
		}
	}

	var bar *progressbar.ProgressBar

	onStart := engine.OnBacktestStartCallback(func(runID string, totalStrategies int, totalInstruments int) error {
		bar = progressbar.NewOptions(totalInstruments,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(fmt.Sprintf("Run %s with %d strategies", runID, totalStrategies)),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		return nil
	})
	onInstrumentEnd := engine.OnInstrumentEndCallback(func(_ int, _ string, _ int) {
		if bar != nil {
			_ = bar.Add(1)
		}
	})
	onEnd := engine.OnBacktestEndCallback(func(_ error) {
		if bar != nil {
			_ = bar.Finish()
		}
	})

	err = backtest.Run(ctx, engine.LifecycleCallbacks{
		OnBacktestStart:   &onStart,
		OnBacktestEnd:     &onEnd,
		OnInstrumentStart: nil,
		OnInstrumentEnd:   &onInstrumentEnd,
		OnSignal:          nil,
	})
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	printSummary(backtest.LastRunID(), backtest.Events())

	return nil
}

func printSummary(runID string, events []types.SignalEvent) {
	type counts struct{ buys, sells int }

	perInstrument := make(map[string]*counts)

	for _, event := range events {
		c, ok := perInstrument[event.InstrumentID]
		if !ok {
			c = &counts{}
			perInstrument[event.InstrumentID] = c
		}

		if event.Type == types.SignalTypeBuy {
			c.buys++
		} else {
			c.sells++
		}
	}

	instruments := make([]string, 0, len(perInstrument))
	for id := range perInstrument {
		instruments = append(instruments, id)
	}

	sort.Strings(instruments)

	fmt.Printf("Run %s: %d signals\n", runID, len(events))

	for _, id := range instruments {
		fmt.Printf("  %-12s buys=%d sells=%d\n", id, perInstrument[id].buys, perInstrument[id].sells)
	}
}

// schemaAction prints the engine config schema, or a strategy config schema
// when --strategy is given.
func schemaAction(_ context.Context, cmd *cli.Command) error {
	var (
		schema string
		err    error
	)

	if name := cmd.String("strategy"); name != "" {
		schema, err = strategy.ConfigSchema(name)
	} else {
		schema, err = enginev1.NewBacktestEngineV1().GetConfigSchema()
	}

	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "backtest",
		Usage:   "Scan historical bars for contraction patterns and emit buy/sell signals",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a backtest",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the engine config `FILE`",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "Path to a parquet or csv bar file. Overrides data_path",
					},
					&cli.StringFlag{
						Name:    "results",
						Aliases: []string{"r"},
						Usage:   "Folder the signal journal is exported to. Overrides results_folder",
					},
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Number of instruments evaluated in parallel. 0 uses one per CPU",
					},
					&cli.StringFlag{
						Name:  "log-level",
						Usage: "Log level (debug, info, warn, error)",
						Value: "info",
					},
				},
				Action: runAction,
			},
			{
				Name:  "schema",
				Usage: "Print a JSON schema",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "strategy",
						Aliases: []string{"s"},
						Usage:   fmt.Sprintf("Print the config schema of a strategy (%v)", strategy.BuiltinStrategies()),
					},
				},
				Action: schemaAction,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
