package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/luxfi/log"

	"github.com/luxfi/lob-matcher/pkg/engine"
	"github.com/luxfi/lob-matcher/pkg/metrics"
	"github.com/luxfi/lob-matcher/pkg/wsfeed"
)

const bookDepthSampleLevels = 10

// sampleBookMetrics polls the book and feed hub on interval and pushes
// their current state into the gauges CollectRuntimeMetrics doesn't
// touch (that one only samples process-wide memory/goroutine stats).
func sampleBookMetrics(ctx context.Context, eng *engine.Engine, m *metrics.Metrics, ws *wsfeed.Server, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			book := eng.Book()
			m.SetBestPrice("bid", float64(book.BestBid()))
			m.SetBestPrice("ask", float64(book.BestAsk()))

			bids, asks := book.MarketDepth(bookDepthSampleLevels)
			for i, lvl := range bids {
				m.SetDepthLevel("bid", i, float64(lvl.Aggregate))
			}
			for i, lvl := range asks {
				m.SetDepthLevel("ask", i, float64(lvl.Aggregate))
			}

			_, _, utilization := book.PoolStats()
			m.SetPoolUtilization(utilization)

			if ws != nil {
				m.SetWSClients(ws.ClientCount())
			}
		}
	}
}

func serveMetrics(logger log.Logger, m *metrics.Metrics, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	addr := fmt.Sprintf(":%d", port)
	logger.Info("metrics server listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server failed", "error", err)
	}
}

func serveWebsocket(logger log.Logger, ws *wsfeed.Server, port int) {
	mux := http.NewServeMux()
	mux.Handle("/ws", ws.Handler())
	addr := fmt.Sprintf(":%d", port)
	logger.Info("websocket feed listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("websocket server failed", "error", err)
	}
}
