package engine

import (
	"time"

	"github.com/luxfi/log"
	"github.com/luxfi/metric"

	"github.com/luxfi/lob-matcher/pkg/lob"
)

// TradeCallback is invoked once per fill produced by a matching
// operation. OrderCallback is invoked on order lifecycle transitions;
// event is one of "added", "cancelled", "modified". LatencyCallback is
// invoked once per processed message with the wall-clock nanoseconds
// spent handling it.
type TradeCallback func(lob.Trade)
type OrderCallback func(order lob.Order, event string)
type LatencyCallback func(nanoseconds uint64)

// Engine is the message-dispatch layer in front of an OrderBook: it
// decodes an OrderMessage into the matching operation it names, fires
// callbacks, and optionally records every successfully processed
// message for deterministic replay.
type Engine struct {
	book *lob.OrderBook
	log  log.Logger

	tradeCB   TradeCallback
	orderCB   OrderCallback
	latencyCB LatencyCallback

	messagesProcessed uint64
	processingTimeNs  uint64
	recordHistory     bool
	messageHistory    []OrderMessage
	tradeScratch      []lob.Trade

	// Lightweight process-wide counters, in addition to the plain
	// uint64 fields above, for callers that already scrape
	// github.com/luxfi/metric registries rather than Prometheus directly
	// (see pkg/metrics for the Prometheus-facing surface).
	metricsRegistry *metric.Registry
	ordersCounter   metric.Counter
	rejectsCounter  metric.Counter
	tradesCounter   metric.Counter
}

// New constructs an Engine over a fresh OrderBook using cfg, logging
// through logger (pass log.NewLogger("engine") for the default naming
// convention).
func New(cfg lob.Config, logger log.Logger) *Engine {
	registry := metric.NewRegistry()
	return &Engine{
		book:            lob.NewOrderBook(cfg),
		log:             logger,
		tradeScratch:    make([]lob.Trade, 0, 64),
		metricsRegistry: registry,
		ordersCounter:   registry.Counter("engine.messages.accepted"),
		rejectsCounter:  registry.Counter("engine.messages.rejected"),
		tradesCounter:   registry.Counter("engine.trades.matched"),
	}
}

// MetricsRegistry exposes the engine's github.com/luxfi/metric registry
// for callers that want to scrape it alongside their own counters.
func (e *Engine) MetricsRegistry() *metric.Registry { return e.metricsRegistry }

// Book exposes the underlying order book for direct queries (best
// price, depth, integrity checks).
func (e *Engine) Book() *lob.OrderBook { return e.book }

// SetTradeCallback registers the fill notification sink.
func (e *Engine) SetTradeCallback(cb TradeCallback) { e.tradeCB = cb }

// SetOrderCallback registers the order lifecycle notification sink.
func (e *Engine) SetOrderCallback(cb OrderCallback) { e.orderCB = cb }

// SetLatencyCallback registers the per-message timing sink, e.g.
// pkg/metrics.Metrics.RecordMatchingLatency.
func (e *Engine) SetLatencyCallback(cb LatencyCallback) { e.latencyCB = cb }

// EnableHistoryRecording toggles whether successfully processed
// messages accumulate in memory for later Replay, or for persisting
// via History.
func (e *Engine) EnableHistoryRecording(enable bool) { e.recordHistory = enable }

// ProcessMessage dispatches msg to the matching operation it names and
// returns whether it took effect. Timing is accumulated for latency
// reporting using time.Now().
func (e *Engine) ProcessMessage(msg OrderMessage) bool {
	start := time.Now()

	var success bool
	e.tradeScratch = e.tradeScratch[:0]

	switch msg.Type {
	case AddOrder:
		success = e.book.AddLimit(msg.OrderID, msg.Side, msg.Price, msg.Quantity, msg.Timestamp)
		if success {
			e.notifyOrderEvent(msg, "added")
		}

	case CancelOrder:
		success = e.book.Cancel(msg.OrderID)
		if success {
			e.notifyOrderEvent(msg, "cancelled")
		}

	case ModifyOrder:
		success = e.book.Modify(msg.OrderID, msg.Price, msg.Quantity, msg.Timestamp)
		if success {
			e.notifyOrderEvent(msg, "modified")
		}

	case MarketOrder:
		filled := e.book.ExecuteMarket(msg.Side, msg.Quantity, msg.Timestamp, &e.tradeScratch)
		success = filled > 0
		if success {
			e.notifyTrades()
		}

	case IOCOrder:
		filled := e.book.ExecuteIOC(msg.Side, msg.Price, msg.Quantity, msg.Timestamp, &e.tradeScratch)
		success = filled > 0
		if success {
			e.notifyTrades()
		}

	default:
		if e.log != nil {
			e.log.Warn("engine: dropping message with unknown type", "type", byte(msg.Type))
		}
		return false
	}

	if e.recordHistory && success {
		e.messageHistory = append(e.messageHistory, msg)
	}

	if success {
		e.ordersCounter.Inc(1)
		e.tradesCounter.Inc(int64(len(e.tradeScratch)))
	} else {
		e.rejectsCounter.Inc(1)
	}

	elapsed := uint64(time.Since(start).Nanoseconds())
	e.processingTimeNs += elapsed
	e.messagesProcessed++
	if e.latencyCB != nil {
		e.latencyCB(elapsed)
	}
	return success
}

// ProcessBatch runs ProcessMessage over every message in order and
// returns the count that succeeded.
func (e *Engine) ProcessBatch(messages []OrderMessage) int {
	processed := 0
	for _, msg := range messages {
		if e.ProcessMessage(msg) {
			processed++
		}
	}
	return processed
}

// Reset clears the book, the in-memory history, and the performance
// counters.
func (e *Engine) Reset() {
	e.book.Clear()
	e.messageHistory = e.messageHistory[:0]
	e.ResetPerformanceCounters()
}

// ValidateState delegates to the book's own integrity check.
func (e *Engine) ValidateState() bool { return e.book.ValidateIntegrity() }

// Replay clears the book and re-runs every recorded message in order,
// with history recording suspended so it isn't duplicated. It returns
// ErrEmptyHistory if nothing was recorded, or ErrReplayMismatch if the
// replay doesn't reproduce the original count of successful messages
// (every message in history necessarily succeeded when first recorded,
// so a mismatch means the ladder's replayed state diverged).
func (e *Engine) Replay() error {
	if len(e.messageHistory) == 0 {
		return ErrEmptyHistory
	}

	e.book.Clear()
	e.ResetPerformanceCounters()

	wasRecording := e.recordHistory
	e.recordHistory = false
	defer func() { e.recordHistory = wasRecording }()

	processed := 0
	for _, msg := range e.messageHistory {
		if e.ProcessMessage(msg) {
			processed++
		}
	}

	if processed != len(e.messageHistory) {
		return ErrReplayMismatch
	}
	return nil
}

// History returns the recorded message log, for callers that persist
// it via pkg/journal.
func (e *Engine) History() []OrderMessage { return e.messageHistory }

// LoadHistory replaces the in-memory history (used after
// journal.BinaryCodec.Read) and replays it.
func (e *Engine) LoadHistory(messages []OrderMessage) error {
	e.messageHistory = append(e.messageHistory[:0], messages...)
	return e.Replay()
}

// --- performance counters ---

func (e *Engine) MessagesProcessed() uint64 { return e.messagesProcessed }
func (e *Engine) TotalProcessingTimeNs() uint64 { return e.processingTimeNs }

// AverageLatencyNs returns the mean processing time per message, or 0
// if none have been processed.
func (e *Engine) AverageLatencyNs() float64 {
	if e.messagesProcessed == 0 {
		return 0
	}
	return float64(e.processingTimeNs) / float64(e.messagesProcessed)
}

func (e *Engine) ResetPerformanceCounters() {
	e.messagesProcessed = 0
	e.processingTimeNs = 0
}

func (e *Engine) notifyOrderEvent(msg OrderMessage, event string) {
	if e.orderCB == nil {
		return
	}
	order, ok := e.book.Order(msg.OrderID)
	if !ok {
		// Cancel already released the order; synthesize a snapshot from
		// the message so the callback still sees id/side/timestamp.
		order = lob.Order{ID: msg.OrderID, Side: msg.Side, Timestamp: msg.Timestamp}
	}
	e.orderCB(order, event)
}

func (e *Engine) notifyTrades() {
	if e.tradeCB == nil {
		return
	}
	for _, t := range e.tradeScratch {
		e.tradeCB(t)
	}
}
