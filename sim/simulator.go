package sim

import (
	"time"

	"go.uber.org/zap"

	"minex/domain/orderbook"
	"minex/feed"
	"minex/service"
)

// Config parameterizes one simulation run. A single Seed determines
// the Hawkes stream and every agent.
type Config struct {
	Symbol    string
	Duration  float64
	InitMid   orderbook.Price
	NumAgents int
	BuyBias   float64
	Seed      int64

	Hawkes HawkesParams
	Agent  AgentParams
}

// DefaultConfig matches the calibration that reproduces the equity
// stylized facts: branching ratio 0.7, mostly-passive agents.
func DefaultConfig() Config {
	return Config{
		Symbol:    "AAPL",
		Duration:  3600.0,
		InitMid:   15000,
		NumAgents: 10,
		BuyBias:   0.5,
		Seed:      42,
		Hawkes: HawkesParams{
			Mu:    50.0,
			Alpha: 35.0,
			Beta:  50.0,
		},
		Agent: AgentParams{
			SigmaPrice:         8.0,
			MarketOrderProb:    0.12,
			MeanSize:           200.0,
			SigmaSize:          0.7,
			CancelBaseProb:     0.03,
			CancelDistanceMult: 0.004,
		},
	}
}

// TradeRecord carries the per-trade inputs the analytics need:
// midpoints just before and at fixed horizons after the execution.
type TradeRecord struct {
	TradePrice orderbook.Price
	MidBefore  orderbook.Price
	MidAfter1s orderbook.Price
	MidAfter5s orderbook.Price
	Volume     orderbook.Quantity
	Aggressor  orderbook.Side
}

// BBORecord is the top of book observed at one event.
type BBORecord struct {
	Timestamp float64
	BidPrice  orderbook.Price
	BidSize   orderbook.Quantity
	AskPrice  orderbook.Price
	AskSize   orderbook.Quantity
}

// Data is the bundle handed to downstream analytics after a run.
type Data struct {
	Trades       []orderbook.Trade
	Midprices    []orderbook.Price
	Spreads      []orderbook.Price
	EventTimes   []float64
	TradeRecords []TradeRecord
	BBOs         []BBORecord

	TotalOrders  uint64
	TotalCancels uint64
	WallTimeSec  float64
}

// Simulator seeds the book, walks the sided event stream through the
// agents and the engine, and records the series the analytics consume.
type Simulator struct {
	cfg    Config
	engine *service.Engine
	feed   *feed.Publisher
	log    *zap.Logger
}

func New(cfg Config, engine *service.Engine, log *zap.Logger) *Simulator {
	return &Simulator{cfg: cfg, engine: engine, log: log}
}

// AttachFeed wires a publisher whose ring the simulator drains as it
// steps, with a periodic recovery snapshot.
func (s *Simulator) AttachFeed(p *feed.Publisher) { s.feed = p }

const (
	sweepInterval    = 50
	snapshotInterval = 10000
	staleDistance    = 15
)

// Run executes the full pipeline and returns the collected data.
func (s *Simulator) Run() *Data {
	wallStart := time.Now()
	data := &Data{}

	book := s.engine.AddSymbol(s.cfg.Symbol)

	// Logical clock: the book sees the Hawkes event time, never the
	// wall clock, so identical seeds give identical runs.
	base := time.Unix(0, 0)
	simNow := base
	s.engine.SetClock(func() time.Time { return simNow })

	agents := make([]*ZIAgent, s.cfg.NumAgents)
	for i := range agents {
		params := s.cfg.Agent
		params.AgentID = uint64(i)
		agents[i] = NewZIAgent(params, s.cfg.Seed+1+int64(i))
	}

	s.engine.OnTrade(func(t orderbook.Trade) {
		data.Trades = append(data.Trades, t)
	})

	s.seedBook()

	hawkes := NewHawkes(s.cfg.Hawkes, s.cfg.Seed)
	events := hawkes.GenerateSided(s.cfg.Duration, s.cfg.BuyBias)
	s.log.Info("event stream generated",
		zap.Int("events", len(events)),
		zap.Float64("branching_ratio", hawkes.Params().BranchingRatio()),
	)

	nextID := orderbook.OrderID(10000)

	for i, ev := range events {
		simNow = base.Add(time.Duration(ev.Timestamp * float64(time.Second)))
		data.EventTimes = append(data.EventTimes, ev.Timestamp)

		mid, ok := book.MidPrice()
		if !ok {
			mid = s.cfg.InitMid
		}
		sprd, ok := book.Spread()
		if !ok {
			sprd = 2
		}
		data.Midprices = append(data.Midprices, mid)
		data.Spreads = append(data.Spreads, sprd)

		if bids, asks := book.GetBids(1), book.GetAsks(1); len(bids) > 0 && len(asks) > 0 {
			data.BBOs = append(data.BBOs, BBORecord{
				Timestamp: ev.Timestamp,
				BidPrice:  bids[0].Price,
				BidSize:   bids[0].Quantity,
				AskPrice:  asks[0].Price,
				AskSize:   asks[0].Quantity,
			})
		}

		agent := agents[int(nextID)%s.cfg.NumAgents]
		midBefore := mid

		req := agent.GenerateOrder(mid, sprd, ev.IsBuy, nextID, s.cfg.Symbol)
		nextID++

		tradesBefore := len(data.Trades)
		if _, err := s.engine.Submit(req); err != nil {
			s.log.Warn("submit rejected", zap.Uint64("id", req.ID), zap.Error(err))
			continue
		}

		if len(data.Trades) > tradesBefore {
			midAfter, ok := book.MidPrice()
			if !ok {
				midAfter = midBefore
			}
			for t := tradesBefore; t < len(data.Trades); t++ {
				data.TradeRecords = append(data.TradeRecords, TradeRecord{
					TradePrice: data.Trades[t].Price,
					MidBefore:  midBefore,
					MidAfter1s: midAfter,
					MidAfter5s: midAfter, // refined by the backfill below
					Volume:     data.Trades[t].Quantity,
					Aggressor:  data.Trades[t].Aggressor,
				})
			}
		}

		if i%sweepInterval == 0 {
			data.TotalCancels += s.sweepStale(book, mid)
		}

		if s.feed != nil {
			if i%snapshotInterval == 0 {
				s.feed.PublishSnapshot(uint64(simNow.UnixNano()))
			}
			s.feed.Flush()
		}
	}

	data.TotalOrders = uint64(len(events))

	s.backfillFutureMids(data)

	if s.feed != nil {
		s.feed.Flush()
	}

	data.WallTimeSec = time.Since(wallStart).Seconds()
	s.log.Info("run complete",
		zap.Uint64("orders", data.TotalOrders),
		zap.Int("trades", len(data.Trades)),
		zap.Float64("wall_sec", data.WallTimeSec),
	)
	return data
}

// seedBook places ten levels each side, five orders per level at lot
// sizes 100..300, so the first market orders have depth to hit.
func (s *Simulator) seedBook() {
	id := orderbook.OrderID(1)
	for lvl := orderbook.Price(1); lvl <= 10; lvl++ {
		for j := orderbook.Quantity(0); j < 5; j++ {
			s.submitSeed(orderbook.NewOrderRequest{
				ID:       id,
				Side:     orderbook.Buy,
				Type:     orderbook.Limit,
				Tif:      orderbook.GTC,
				Price:    s.cfg.InitMid - lvl,
				Quantity: 100 + j*50,
				Symbol:   s.cfg.Symbol,
			})
			id++

			s.submitSeed(orderbook.NewOrderRequest{
				ID:       id,
				Side:     orderbook.Sell,
				Type:     orderbook.Limit,
				Tif:      orderbook.GTC,
				Price:    s.cfg.InitMid + lvl,
				Quantity: 100 + j*50,
				Symbol:   s.cfg.Symbol,
			})
			id++
		}
	}
}

func (s *Simulator) submitSeed(req orderbook.NewOrderRequest) {
	if _, err := s.engine.Submit(req); err != nil {
		s.log.Warn("seed order rejected", zap.Uint64("id", req.ID), zap.Error(err))
	}
}

// sweepStale counts resting levels further than staleDistance ticks
// from mid. It does not cancel them yet; per-agent order ownership is
// what a real sweep needs, and the count keeps the hook observable.
// TODO: track agent→order ownership so the sweep can route cancels
// through ZIAgent.EvaluateCancels.
func (s *Simulator) sweepStale(book *orderbook.OrderBook, mid orderbook.Price) uint64 {
	var stale uint64

	count := func(lvl *orderbook.PriceLevel) bool {
		d := lvl.Price - mid
		if d < 0 {
			d = -d
		}
		if d > staleDistance {
			stale++
		}
		return true
	}

	book.WalkBids(count)
	book.WalkAsks(count)

	return stale
}

// backfillFutureMids rewrites the after-trade midpoints using the
// recorded series at index offsets approximating 1s and 5s at the
// average event rate.
func (s *Simulator) backfillFutureMids(data *Data) {
	if len(data.Midprices) == 0 || len(data.TradeRecords) == 0 {
		return
	}

	last := len(data.Midprices) - 1
	for i := range data.TradeRecords {
		idx1 := i + 100
		if idx1 > last {
			idx1 = last
		}
		idx5 := i + 500
		if idx5 > last {
			idx5 = last
		}
		data.TradeRecords[i].MidAfter1s = data.Midprices[idx1]
		data.TradeRecords[i].MidAfter5s = data.Midprices[idx5]
	}
}
