package outbox

import (
	"testing"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minex/domain/orderbook"
)

func testTrade(seq orderbook.SeqNum) orderbook.Trade {
	return orderbook.Trade{
		Sequence:    seq,
		BuyOrderID:  10,
		SellOrderID: 20,
		Price:       15000,
		Quantity:    300,
		ExecTime:    time.Unix(0, 1234567890),
		Aggressor:   orderbook.Sell,
		Symbol:      "AAPL",
	}
}

func openTestOutbox(t *testing.T) *Outbox {
	t.Helper()
	o, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func TestOutboxPutGet(t *testing.T) {
	o := openTestOutbox(t)

	want := testTrade(5)
	require.NoError(t, o.PutNew(want))

	rec, err := o.Get(5)
	require.NoError(t, err)
	assert.Equal(t, StateNew, rec.State)
	assert.Equal(t, want, rec.Trade)
}

func TestOutboxStateTransitions(t *testing.T) {
	o := openTestOutbox(t)

	require.NoError(t, o.PutNew(testTrade(1)))
	require.NoError(t, o.UpdateState(1, StateSent, 0))

	rec, err := o.Get(1)
	require.NoError(t, err)
	assert.Equal(t, StateSent, rec.State)
	assert.NotZero(t, rec.LastAttempt)

	require.NoError(t, o.UpdateState(1, StateAcked, 0))
	require.NoError(t, o.Delete(1))

	_, err = o.Get(1)
	assert.ErrorIs(t, err, pebble.ErrNotFound)
}

func TestOutboxScanByState(t *testing.T) {
	o := openTestOutbox(t)

	for seq := orderbook.SeqNum(1); seq <= 5; seq++ {
		require.NoError(t, o.PutNew(testTrade(seq)))
	}
	require.NoError(t, o.UpdateState(2, StateSent, 1))
	require.NoError(t, o.UpdateState(4, StateSent, 1))

	var newSeqs []orderbook.SeqNum
	require.NoError(t, o.ScanByState(StateNew, func(seq orderbook.SeqNum, rec Record) error {
		newSeqs = append(newSeqs, seq)
		return nil
	}))
	assert.Equal(t, []orderbook.SeqNum{1, 3, 5}, newSeqs, "scan returns NEW records in sequence order")

	var sent int
	require.NoError(t, o.ScanByState(StateSent, func(orderbook.SeqNum, Record) error {
		sent++
		return nil
	}))
	assert.Equal(t, 2, sent)
}
