// Command lob-server loads a message journal file, replays every
// recorded message against a fresh order book, and exits 0 on success
// or non-zero on any input error. Flags additionally let it stay
// resident and expose the engine over the ancillary transports and
// observability surfaces.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/luxfi/log"

	"github.com/luxfi/lob-matcher/pkg/engine"
	"github.com/luxfi/lob-matcher/pkg/journal"
	"github.com/luxfi/lob-matcher/pkg/lob"
	"github.com/luxfi/lob-matcher/pkg/metrics"
	"github.com/luxfi/lob-matcher/pkg/rpc"
	"github.com/luxfi/lob-matcher/pkg/transport/natsfeed"
	"github.com/luxfi/lob-matcher/pkg/transport/zmqfeed"
	"github.com/luxfi/lob-matcher/pkg/wsfeed"
)

const (
	exitOK        = 0
	exitUsage     = 2
	exitInputErr  = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("lob-server", flag.ContinueOnError)

	basePrice := fs.Uint("base-price", 50000, "ladder base price in integer ticks")
	minTick := fs.Uint("min-tick", 1, "minimum price tick")
	poolSize := fs.Int("pool-size", 1_000_000, "order object pool capacity")

	metricsPort := fs.Int("metrics-port", 0, "Prometheus metrics port (0 disables)")
	wsPort := fs.Int("ws-port", 0, "depth/trade websocket feed port (0 disables)")
	rpcAddr := fs.String("rpc-addr", "", "gRPC health/reflection listen address (empty disables)")
	zmqBind := fs.String("zmq-bind", "", "ZeroMQ PULL bind address for live order intake (empty disables)")
	natsURL := fs.String("nats-url", "", "NATS URL to publish trade/order events to (empty disables)")
	serve := fs.Bool("serve", false, "stay resident after replay instead of exiting")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	positional := fs.Args()
	if len(positional) < 1 {
		fmt.Fprintln(os.Stderr, "usage: lob-server [flags] <journal-file> [max-events]")
		return exitUsage
	}
	journalPath := positional[0]

	maxEvents := -1
	if len(positional) >= 2 {
		n, err := strconv.Atoi(positional[1])
		if err != nil || n < 0 {
			fmt.Fprintln(os.Stderr, "max-events must be a non-negative integer")
			return exitUsage
		}
		maxEvents = n
	}

	logger := log.Root().New("module", "lob-server")

	cfg := lob.Config{
		BasePrice:    uint32(*basePrice),
		MinPriceTick: uint32(*minTick),
		PoolCapacity: *poolSize,
	}
	eng := engine.New(cfg, logger)

	var codec journal.BinaryCodec
	messages, err := codec.ReadFile(journalPath)
	if err != nil {
		logger.Error("failed to load journal", "path", journalPath, "error", err)
		return exitInputErr
	}
	if maxEvents >= 0 && maxEvents < len(messages) {
		messages = messages[:maxEvents]
	}

	eng.EnableHistoryRecording(true)
	if err := eng.LoadHistory(messages); err != nil && err != engine.ErrEmptyHistory {
		logger.Error("replay did not reproduce recorded outcomes", "error", err)
		return exitInputErr
	}

	logger.Info("journal replayed",
		"messages", eng.MessagesProcessed(),
		"trades", eng.Book().TotalTrades(),
		"bestBid", eng.Book().BestBid(),
		"bestAsk", eng.Book().BestAsk())

	if !*serve {
		return exitOK
	}

	return runDaemon(eng, logger, daemonConfig{
		metricsPort: *metricsPort,
		wsPort:      *wsPort,
		rpcAddr:     *rpcAddr,
		zmqBind:     *zmqBind,
		natsURL:     *natsURL,
	})
}

type daemonConfig struct {
	metricsPort int
	wsPort      int
	rpcAddr     string
	zmqBind     string
	natsURL     string
}

// runDaemon wires the ancillary transports around an already-warmed
// engine and blocks until SIGINT/SIGTERM.
func runDaemon(eng *engine.Engine, logger log.Logger, cfg daemonConfig) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var m *metrics.Metrics
	if cfg.metricsPort > 0 {
		m = metrics.New("lob", logger)
		go m.CollectRuntimeMetrics(ctx, 10*time.Second)
		go serveMetrics(logger, m, cfg.metricsPort)
		eng.SetLatencyCallback(func(ns uint64) { m.RecordMatchingLatency(float64(ns)) })
	}

	var ws *wsfeed.Server
	if cfg.wsPort > 0 {
		ws = wsfeed.NewServer(logger, wsfeed.DefaultConfig())
		ws.Run()
		defer ws.Stop()
		go serveWebsocket(logger, ws, cfg.wsPort)
	}

	if m != nil {
		go sampleBookMetrics(ctx, eng, m, ws, time.Second)
	}

	var rpcServer *rpc.Server
	if cfg.rpcAddr != "" {
		rpcServer = rpc.New(logger)
		rpcServer.SetServing(true)
		go func() {
			if err := rpcServer.Serve(cfg.rpcAddr); err != nil {
				logger.Error("rpc server stopped", "error", err)
			}
		}()
		defer rpcServer.GracefulStop()
	}

	var pub *natsfeed.Publisher
	if cfg.natsURL != "" {
		var err error
		pub, err = natsfeed.Connect(cfg.natsURL)
		if err != nil {
			logger.Error("failed to connect to nats", "error", err)
		} else {
			defer pub.Close()
		}
	}

	eng.SetTradeCallback(func(t lob.Trade) {
		if m != nil {
			m.RecordTrades(1)
		}
		if ws != nil {
			ws.BroadcastTrade(t)
		}
		if pub != nil {
			pub.PublishTrade(t)
		}
	})
	eng.SetOrderCallback(func(o lob.Order, event string) {
		if pub != nil {
			pub.PublishOrderEvent(o, event)
		}
	})

	if cfg.zmqBind != "" {
		receiver, err := zmqfeed.NewReceiver(zmqfeed.Config{BindAddr: cfg.zmqBind, RecvHWM: 100000}, logger)
		if err != nil {
			logger.Error("failed to start zmq receiver", "error", err)
		} else {
			defer receiver.Close()
			go func() {
				err := receiver.Serve(func(msg engine.OrderMessage) {
					if m != nil {
						if eng.ProcessMessage(msg) {
							m.RecordOrderProcessed()
						} else {
							m.RecordMessageRejected()
						}
					} else {
						eng.ProcessMessage(msg)
					}
				})
				if err != nil {
					logger.Error("zmq receiver stopped", "error", err)
				}
			}()
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig)
	return exitOK
}
