package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/quantforge/tradecore/backtest"
	"github.com/quantforge/tradecore/config"
	"github.com/quantforge/tradecore/feed"
	"github.com/quantforge/tradecore/kv"
	"github.com/quantforge/tradecore/model"
	"github.com/quantforge/tradecore/storage"
	"github.com/quantforge/tradecore/strategies"
	"github.com/quantforge/tradecore/tools/log"
)

func init() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04",
	})
}

func main() {
	app := &cli.App{
		Name:     "tradecore",
		HelpName: "tradecore",
		Usage:    "Strategy evaluation and backtesting over OHLCV candles",
		Commands: []*cli.Command{
			{
				Name:     "fetch",
				HelpName: "fetch",
				Usage:    "Download historical candles to a CSV file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "symbol",
						Aliases:  []string{"s"},
						Usage:    "eg. BTCUSDT",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "timeframe",
						Aliases: []string{"t"},
						Usage:   "eg. 1h",
						Value:   "1h",
					},
					&cli.IntFlag{
						Name:    "days",
						Aliases: []string{"d"},
						Usage:   "eg. 90",
						Value:   30,
					},
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "eg. ./btc.csv",
						Required: true,
					},
				},
				Action: fetchAction,
			},
			{
				Name:     "backtest",
				HelpName: "backtest",
				Usage:    "Run all strategies over a candle file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "CSV candle file, eg. ./btc.csv",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "symbol",
						Aliases: []string{"s"},
						Usage:   "symbol label for the report, eg. BTCUSDT",
						Value:   "UNKNOWN",
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "eg. ./config.yml",
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "persist the run to the results database",
					},
					&cli.BoolFlag{
						Name:  "no-cache",
						Usage: "skip the result cache",
					},
				},
				Action: backtestAction,
			},
			{
				Name:     "strategies",
				HelpName: "strategies",
				Usage:    "List available strategy modules",
				Action:   strategiesAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func fetchAction(c *cli.Context) error {
	client := feed.NewClient()
	candles, err := client.FetchHistory(c.Context, c.String("symbol"), c.String("timeframe"), c.Int("days"))
	if err != nil {
		return err
	}
	return feed.SaveCSV(c.String("output"), candles)
}

func backtestAction(c *cli.Context) error {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return err
		}
	}

	symbol := c.String("symbol")

	var cache *kv.Store
	if !c.Bool("no-cache") {
		var err error
		if cache, err = kv.New(cfg.CachePath); err != nil {
			return err
		}
		defer cache.Close()

		if cached, ok, err := cache.GetResult(symbol); err == nil && ok {
			log.WithField("symbol", symbol).Info("serving cached result")
			backtest.Summary(os.Stdout, cached)
			return nil
		}
	}

	candles, err := feed.LoadCSV(c.String("input"))
	if err != nil {
		return err
	}

	registry, err := strategies.NewDefaultRegistry()
	if err != nil {
		return err
	}

	runCfg := cfg.BacktestConfig()
	runCfg.Progress = true

	result, err := backtest.Run(symbol, candles, registry, runCfg)
	if err != nil {
		return err
	}

	backtest.Summary(os.Stdout, result)

	if cache != nil {
		if err := cache.PutResult(result); err != nil {
			log.Warnf("cache write failed: %v", err)
		}
	}

	if c.Bool("save") {
		if err := saveRun(cfg, result); err != nil {
			return err
		}
	}
	return nil
}

func saveRun(cfg *config.Config, result *model.BacktestResult) error {
	dbPath := cfg.DatabasePath
	if dbPath == "" {
		dbPath = "tradecore.db"
	}

	store, err := storage.FromFile(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.SaveResult(result)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"run": id, "symbol": result.Symbol}).Info("run persisted")
	return nil
}

func strategiesAction(c *cli.Context) error {
	for _, s := range strategies.All() {
		fmt.Printf("%-16s %-8s %-24s %s\n",
			s.ID(), s.Category(), s.Name(), strings.Join(s.Timeframes(), ","))
	}
	return nil
}
