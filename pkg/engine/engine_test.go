package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luxfi/lob-matcher/pkg/lob"
)

func testConfig() lob.Config {
	return lob.Config{BasePrice: 100, MinPriceTick: 1, PoolCapacity: 64}
}

func TestProcessMessageAddCancel(t *testing.T) {
	e := New(testConfig(), nil)

	added := 0
	e.SetOrderCallback(func(o lob.Order, event string) {
		if event == "added" {
			added++
		}
	})

	ok := e.ProcessMessage(OrderMessage{Type: AddOrder, OrderID: 1, Side: lob.Buy, Price: 100, Quantity: 10, Timestamp: 1})
	assert.True(t, ok)
	assert.Equal(t, 1, added)
	assert.Equal(t, uint32(100), e.Book().BestBid())

	ok = e.ProcessMessage(OrderMessage{Type: CancelOrder, OrderID: 1, Timestamp: 2})
	assert.True(t, ok)
	assert.Equal(t, uint32(0), e.Book().BestBid())
}

func TestProcessMessageUnknownTypeFails(t *testing.T) {
	e := New(testConfig(), nil)
	ok := e.ProcessMessage(OrderMessage{Type: MessageType('Z'), OrderID: 1})
	assert.False(t, ok)
	assert.Equal(t, uint64(0), e.MessagesProcessed())
}

func TestProcessMessageMarketOrderFiresTradeCallback(t *testing.T) {
	e := New(testConfig(), nil)
	var trades []lob.Trade
	e.SetTradeCallback(func(t lob.Trade) { trades = append(trades, t) })

	e.ProcessMessage(OrderMessage{Type: AddOrder, OrderID: 1, Side: lob.Sell, Price: 105, Quantity: 10, Timestamp: 1})
	ok := e.ProcessMessage(OrderMessage{Type: MarketOrder, Side: lob.Buy, Quantity: 5, Timestamp: 2})

	assert.True(t, ok)
	assert.Len(t, trades, 1)
	assert.Equal(t, uint32(5), trades[0].Quantity)
}

func TestProcessBatchCountsSuccesses(t *testing.T) {
	e := New(testConfig(), nil)
	msgs := []OrderMessage{
		{Type: AddOrder, OrderID: 1, Side: lob.Buy, Price: 100, Quantity: 10, Timestamp: 1},
		{Type: AddOrder, OrderID: 1, Side: lob.Buy, Price: 100, Quantity: 10, Timestamp: 2}, // duplicate id fails
		{Type: CancelOrder, OrderID: 1, Timestamp: 3},
	}
	assert.Equal(t, 2, e.ProcessBatch(msgs))
}

func TestReplayReproducesState(t *testing.T) {
	e := New(testConfig(), nil)
	e.EnableHistoryRecording(true)

	e.ProcessMessage(OrderMessage{Type: AddOrder, OrderID: 1, Side: lob.Buy, Price: 100, Quantity: 10, Timestamp: 1})
	e.ProcessMessage(OrderMessage{Type: AddOrder, OrderID: 2, Side: lob.Sell, Price: 105, Quantity: 5, Timestamp: 2})
	e.ProcessMessage(OrderMessage{Type: MarketOrder, Side: lob.Buy, Quantity: 5, Timestamp: 3})

	err := e.Replay()
	assert.NoError(t, err)
	assert.True(t, e.ValidateState())
	assert.Equal(t, uint32(100), e.Book().BestBid())
}

func TestReplayEmptyHistoryErrors(t *testing.T) {
	e := New(testConfig(), nil)
	err := e.Replay()
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestResetClearsBookAndCounters(t *testing.T) {
	e := New(testConfig(), nil)
	e.EnableHistoryRecording(true)
	e.ProcessMessage(OrderMessage{Type: AddOrder, OrderID: 1, Side: lob.Buy, Price: 100, Quantity: 10, Timestamp: 1})

	e.Reset()
	assert.Equal(t, uint64(0), e.MessagesProcessed())
	assert.Equal(t, uint32(0), e.Book().BestBid())
	assert.Empty(t, e.History())
}

func TestAverageLatencyZeroWithNoMessages(t *testing.T) {
	e := New(testConfig(), nil)
	assert.Equal(t, 0.0, e.AverageLatencyNs())
}
