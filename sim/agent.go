package sim

import (
	"math"
	"math/rand"

	"minex/domain/orderbook"
)

// AgentParams calibrate a zero-intelligence trader with strategic
// cancellation: limit prices placed |N(0,σ)| from mid, log-normal
// sizes, and cancel probability growing with distance from mid.
type AgentParams struct {
	SigmaPrice         float64
	MarketOrderProb    float64
	MeanSize           float64
	SigmaSize          float64
	CancelBaseProb     float64
	CancelDistanceMult float64
	AgentID            uint64
}

// ZIAgent constructs orders from the current market state. Each agent
// owns its generator; agents never share randomness.
type ZIAgent struct {
	params AgentParams
	rng    *rand.Rand
}

func NewZIAgent(params AgentParams, seed int64) *ZIAgent {
	return &ZIAgent{
		params: params,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (a *ZIAgent) Params() AgentParams { return a.params }

// GenerateOrder builds the next request for the given side and id.
func (a *ZIAgent) GenerateOrder(mid, spread orderbook.Price, isBuy bool, nextID orderbook.OrderID, symbol string) orderbook.NewOrderRequest {
	_ = spread

	req := orderbook.NewOrderRequest{
		ID:     nextID,
		Symbol: symbol,
	}
	if isBuy {
		req.Side = orderbook.Buy
	} else {
		req.Side = orderbook.Sell
	}

	if a.rng.Float64() < a.params.MarketOrderProb {
		req.Type = orderbook.Market
		req.Tif = orderbook.TifIOC
		req.Price = orderbook.PriceMarket
	} else {
		req.Type = orderbook.Limit
		req.Tif = orderbook.GTC

		// Buys bias below mid, sells above; the book keeps a spread
		// because most placements are passive.
		offset := orderbook.Price(math.Abs(a.rng.NormFloat64() * a.params.SigmaPrice))
		if isBuy {
			req.Price = mid - offset
		} else {
			req.Price = mid + offset
		}
		if req.Price < 1 {
			req.Price = 1
		}
	}

	raw := math.Exp(a.rng.NormFloat64()*a.params.SigmaSize + math.Log(a.params.MeanSize))
	qty := orderbook.Quantity(math.Round(raw))
	if qty < 1 {
		qty = 1
	}
	// Round to the 100-share lot grid.
	qty = ((qty + 50) / 100) * 100
	if qty == 0 {
		qty = 100
	}
	req.Quantity = qty

	return req
}

// ShouldCancel decides whether to pull a resting order; probability
// grows linearly with distance from the midpoint.
func (a *ZIAgent) ShouldCancel(o *orderbook.Order, mid orderbook.Price) bool {
	if !o.IsActive() {
		return false
	}
	return a.rng.Float64() < a.cancelProb(o.Price, mid)
}

// RestingOrder is the (id, price) pair EvaluateCancels inspects.
type RestingOrder struct {
	ID    orderbook.OrderID
	Price orderbook.Price
}

// EvaluateCancels returns the ids among resting that should be pulled,
// each decided independently.
func (a *ZIAgent) EvaluateCancels(resting []RestingOrder, mid orderbook.Price) []orderbook.OrderID {
	var toCancel []orderbook.OrderID
	for _, r := range resting {
		if a.rng.Float64() < a.cancelProb(r.Price, mid) {
			toCancel = append(toCancel, r.ID)
		}
	}
	return toCancel
}

func (a *ZIAgent) cancelProb(price, mid orderbook.Price) float64 {
	distance := price - mid
	if distance < 0 {
		distance = -distance
	}
	return a.params.CancelBaseProb + a.params.CancelDistanceMult*float64(distance)
}
