package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minex/domain/orderbook"
)

func TestMessageFitsWireBudget(t *testing.T) {
	size := EncodedSize()
	assert.Greater(t, size, 0)
	assert.LessOrEqual(t, size, 256, "a feed message must fit in 256 bytes")
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	trade := orderbook.Trade{
		Sequence:    7,
		BuyOrderID:  1,
		SellOrderID: 2,
		Price:       15000,
		Quantity:    300,
		ExecTime:    time.Unix(0, 99),
		Aggressor:   orderbook.Sell,
		Symbol:      "AAPL",
	}
	msg := MakeTrade(11, trade)

	decoded, err := Decode(msg.Encode())
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)
	assert.Equal(t, TypeTrade, decoded.Type)
	assert.Equal(t, "AAPL", decoded.SymbolString())
	assert.Equal(t, uint8(orderbook.Sell), decoded.AggressorSide)
}

func TestConstructors(t *testing.T) {
	o := &orderbook.Order{
		ID:        5,
		Side:      orderbook.Buy,
		Price:     10000,
		Quantity:  200,
		FilledQty: 50,
		LeavesQty: 150,
		EntryTime: time.Unix(1, 0),
		Symbol:    "TEST",
	}

	add := MakeAdd(1, o)
	assert.Equal(t, TypeAdd, add.Type)
	assert.Equal(t, uint64(150), add.Quantity, "add carries the resting size")

	exec := MakeExecute(2, o)
	assert.Equal(t, TypeExecute, exec.Type)
	assert.Equal(t, uint64(50), exec.Quantity)
	assert.Equal(t, uint64(150), exec.LeavesQty)

	del := MakeDelete(3, o)
	assert.Equal(t, TypeDelete, del.Type)
	assert.Equal(t, uint64(5), del.OrderID)

	quote := MakeQuote(4, 0, "TEST", 9999, 100, 10001, 200)
	assert.Equal(t, TypeQuote, quote.Type)
	assert.Equal(t, int64(9999), quote.BidPrice)
	assert.Equal(t, uint64(200), quote.AskSize)
}

func TestCheckGap(t *testing.T) {
	assert.True(t, CheckGap(1, 2))
	assert.False(t, CheckGap(1, 3), "a skipped sequence is a gap")
	assert.False(t, CheckGap(2, 2))
}
