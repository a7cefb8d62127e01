// minex runs the full pipeline: Hawkes event generation -> ZI agents
// -> matching engine -> feed publisher -> analytics -> reports.
//
// Usage:
//
//	minex                            # default 1h simulation
//	minex --duration 7200            # 2h simulation
//	minex --symbol MSFT --seed 999   # different symbol and seed
//	minex --output results/          # custom output dir
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"minex/analytics"
	"minex/config"
	"minex/domain/orderbook"
	"minex/feed"
	"minex/infra/kafka"
	"minex/infra/outbox"
	"minex/infra/wal"
	"minex/jobs/broadcaster"
	"minex/metrics"
	"minex/report"
	"minex/service"
	"minex/sim"
	"minex/snapshot"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	var verbose bool
	flag.Float64Var(&cfg.Sim.Duration, "duration", cfg.Sim.Duration, "simulation duration in seconds")
	flag.StringVar(&cfg.Sim.Symbol, "symbol", cfg.Sim.Symbol, "traded symbol")
	flag.StringVar(&cfg.Sim.OutputDir, "output", cfg.Sim.OutputDir, "output directory")
	flag.Int64Var(&cfg.Sim.Seed, "seed", cfg.Sim.Seed, "PRNG seed (determines the whole run)")
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.BoolVar(&verbose, "verbose", false, "verbose logging")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := buildLogger(cfg.Logging, verbose)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("run failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	if err := os.MkdirAll(cfg.Sim.OutputDir, 0o755); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---------------- Engine ----------------

	engine := service.NewEngine(log)

	if cfg.Journal.Enabled {
		journal, err := wal.Open(wal.Config{
			Dir:         cfg.Journal.Dir,
			SegmentSize: cfg.Journal.SegmentSize,
		})
		if err != nil {
			return fmt.Errorf("journal init: %w", err)
		}
		defer journal.Close()
		engine.SetJournal(journal)
	}

	// ---------------- Feed ----------------

	publisher := feed.NewPublisher()

	var store *outbox.Outbox
	if cfg.Outbox.Enabled {
		var err error
		store, err = outbox.Open(cfg.Outbox.Dir)
		if err != nil {
			return fmt.Errorf("outbox init: %w", err)
		}
		defer store.Close()

		engine.OnTrade(func(t orderbook.Trade) {
			if err := store.PutNew(t); err != nil {
				log.Warn("outbox put failed", zap.Error(err))
			}
		})
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher.AddSink(feed.NewKafkaSink(ctx, producer))

		bc, err := broadcaster.New(store, cfg.Kafka.Brokers, cfg.Kafka.Topic+".outbox", cfg.Kafka.DrainInterval, log)
		if err != nil {
			return fmt.Errorf("broadcaster init: %w", err)
		}
		defer bc.Close()
		go bc.Run(ctx)
	}

	// ---------------- Simulation ----------------

	simCfg := sim.DefaultConfig()
	simCfg.Symbol = cfg.Sim.Symbol
	simCfg.Duration = cfg.Sim.Duration
	simCfg.InitMid = cfg.Sim.InitMid
	simCfg.NumAgents = cfg.Sim.NumAgents
	simCfg.Seed = cfg.Sim.Seed
	simCfg.Hawkes = sim.HawkesParams{
		Mu:    cfg.Sim.HawkesMu,
		Alpha: cfg.Sim.HawkesAlpha,
		Beta:  cfg.Sim.HawkesBeta,
	}
	simCfg.Agent.SigmaPrice = cfg.Sim.SigmaPrice
	simCfg.Agent.MarketOrderProb = cfg.Sim.MarketOrderProb
	simCfg.Agent.MeanSize = cfg.Sim.MeanSize
	simCfg.Agent.SigmaSize = cfg.Sim.SigmaSize

	simulator := sim.New(simCfg, engine, log)

	book := engine.AddSymbol(simCfg.Symbol)
	publisher.Attach(engine, book)
	simulator.AttachFeed(publisher)

	log.Info("starting simulation",
		zap.String("symbol", simCfg.Symbol),
		zap.Float64("duration_sec", simCfg.Duration),
		zap.Int64("init_mid", simCfg.InitMid),
		zap.Int("agents", simCfg.NumAgents),
		zap.Int64("seed", simCfg.Seed),
	)

	data := simulator.Run()

	// ---------------- Analytics ----------------

	spreadInputs := make([]analytics.SpreadTradeInput, len(data.TradeRecords))
	for i, r := range data.TradeRecords {
		spreadInputs[i] = analytics.SpreadTradeInput{
			TradePrice: r.TradePrice,
			MidBefore:  r.MidBefore,
			MidAfter:   r.MidAfter5s,
			Volume:     r.Volume,
			Aggressor:  r.Aggressor,
		}
	}
	spreadResult := analytics.ComputeSpread(spreadInputs, data.Spreads)

	impactInputs := make([]analytics.ImpactTradeInput, len(data.Trades))
	for i, t := range data.Trades {
		impactInputs[i] = analytics.ImpactTradeInput{
			Timestamp: float64(t.ExecTime.UnixNano()) / 1e9,
			Price:     t.Price,
			Volume:    t.Quantity,
			Aggressor: t.Aggressor,
		}
	}
	timedMids := make([]analytics.TimedMid, len(data.Midprices))
	for i := range data.Midprices {
		timedMids[i] = analytics.TimedMid{Timestamp: data.EventTimes[i], Mid: data.Midprices[i]}
	}
	kyleResult := analytics.EstimateKyleLambda(impactInputs, timedMids, 5.0)

	bbos := make([]analytics.BBOSnapshot, len(data.BBOs))
	for i, b := range data.BBOs {
		bbos[i] = analytics.BBOSnapshot{
			Timestamp: b.Timestamp,
			BidPrice:  b.BidPrice,
			BidSize:   b.BidSize,
			AskPrice:  b.AskPrice,
			AskSize:   b.AskSize,
		}
	}
	imbTrades := make([]analytics.ImbalanceTradeInput, len(impactInputs))
	for i, t := range impactInputs {
		imbTrades[i] = analytics.ImbalanceTradeInput{
			Timestamp: t.Timestamp,
			Volume:    t.Volume,
			Aggressor: t.Aggressor,
		}
	}
	imbResult := analytics.ComputeImbalance(bbos, imbTrades, 10.0)

	factVolumes := make([]orderbook.Quantity, len(data.Trades))
	for i, t := range data.Trades {
		factVolumes[i] = t.Quantity
	}
	facts := analytics.ComputeStylizedFacts(data.Midprices, factVolumes, data.Spreads)

	// ---------------- Output ----------------

	out := cfg.Sim.OutputDir
	if err := report.WriteTradesCSV(filepath.Join(out, "trades.csv"), data.Trades); err != nil {
		return err
	}
	if err := report.WriteMidpricesCSV(filepath.Join(out, "midprices.csv"), data.Midprices); err != nil {
		return err
	}
	if err := report.WriteSpreadsCSV(filepath.Join(out, "spreads.csv"), data.Spreads); err != nil {
		return err
	}
	if err := publisher.DumpToFile(filepath.Join(out, "feed.bin")); err != nil {
		return err
	}

	snapWriter := snapshot.Writer{Dir: out}
	if err := snapWriter.Write("book_snapshot.bin", book); err != nil {
		return err
	}

	m := metrics.New()
	m.Record(engine.Stats())
	if err := m.WriteFile(filepath.Join(out, "metrics.prom")); err != nil {
		return err
	}

	rpt, err := os.Create(filepath.Join(out, "report.txt"))
	if err != nil {
		return err
	}
	defer rpt.Close()

	summary := report.Summary{
		Stats:       engine.Stats(),
		Spread:      spreadResult,
		Kyle:        kyleResult,
		Imbalance:   imbResult,
		Facts:       facts,
		Events:      len(data.EventTimes),
		WallTimeSec: data.WallTimeSec,
		OutputDir:   out,
	}
	if err := report.Render(io.MultiWriter(rpt, os.Stdout), summary); err != nil {
		return err
	}

	feedStats := publisher.Stats()
	log.Info("feed published",
		zap.Uint64("messages", feedStats.Total),
		zap.Uint64("trades", feedStats.Trades),
		zap.Uint64("quotes", feedStats.Quotes),
		zap.Uint64("dropped", feedStats.Dropped),
	)

	return nil
}

func buildLogger(cfg config.LoggingConfig, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	} else if parsed, err := zapcore.ParseLevel(cfg.Level); err == nil {
		level = parsed
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	log, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
