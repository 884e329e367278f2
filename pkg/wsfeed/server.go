// Package wsfeed broadcasts book depth and trade prints to connected
// clients over gorilla/websocket, adapted from
// pkg/websocket/server.go's hub/client pattern and trimmed to this
// engine's single order book instead of a multi-symbol registry.
package wsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/luxfi/log"

	"github.com/luxfi/lob-matcher/pkg/lob"
)

// Config mirrors websocket.Config's shape, trimmed to the fields this
// feed actually uses.
type Config struct {
	ReadBufferSize  int
	WriteBufferSize int
	PongTimeout     time.Duration
	PingPeriod      time.Duration
}

// DefaultConfig returns reasonable connection defaults.
func DefaultConfig() Config {
	return Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		PongTimeout:     60 * time.Second,
		PingPeriod:      54 * time.Second,
	}
}

// Message is the envelope for every outbound frame.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// DepthUpdate reports the top N resting levels on each side.
type DepthUpdate struct {
	Bids []lob.LevelSnapshot `json:"bids"`
	Asks []lob.LevelSnapshot `json:"asks"`
}

// TradeUpdate reports one fill.
type TradeUpdate struct {
	BuyOrderID  uint64 `json:"buyOrderId"`
	SellOrderID uint64 `json:"sellOrderId"`
	Price       uint32 `json:"price"`
	Quantity    uint32 `json:"quantity"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server is the depth/trade broadcast hub. One instance serves every
// connected client for the engine's single symbol.
type Server struct {
	cfg    Config
	logger log.Logger

	clients    map[*Client]bool
	clientsMu  sync.RWMutex
	register   chan *Client
	unregister chan *Client
	broadcast  chan Message

	messagesOut uint64
	clientCount int32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Client is one connected websocket peer.
type Client struct {
	id     string
	conn   *websocket.Conn
	server *Server
	send   chan []byte
}

// NewServer constructs a hub that has not yet started its goroutines.
func NewServer(logger log.Logger, cfg Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:        cfg,
		logger:     logger,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 100),
		unregister: make(chan *Client, 100),
		broadcast:  make(chan Message, 1000),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Handler returns the HTTP handler to mount at the feed's websocket
// path, e.g. mux.Handle("/ws", server.Handler()).
func (s *Server) Handler() http.HandlerFunc { return s.handleWebSocket }

// Run starts the hub goroutine; call before serving HTTP traffic.
func (s *Server) Run() {
	s.wg.Add(1)
	go s.runHub()
}

// Stop shuts the hub down and waits for it to drain.
func (s *Server) Stop() {
	s.cancel()
	s.wg.Wait()
}

// BroadcastTrade enqueues a trade print for every connected client.
func (s *Server) BroadcastTrade(t lob.Trade) {
	s.broadcast <- Message{
		Type: "trade",
		Data: TradeUpdate{
			BuyOrderID:  t.BuyOrderID,
			SellOrderID: t.SellOrderID,
			Price:       t.Price,
			Quantity:    t.Quantity,
		},
		Timestamp: time.Now().Unix(),
	}
}

// BroadcastDepth enqueues a depth snapshot for every connected client.
func (s *Server) BroadcastDepth(bids, asks []lob.LevelSnapshot) {
	s.broadcast <- Message{
		Type:      "depth",
		Data:      DepthUpdate{Bids: bids, Asks: asks},
		Timestamp: time.Now().Unix(),
	}
}

// ClientCount returns the current connected client count.
func (s *Server) ClientCount() int { return int(atomic.LoadInt32(&s.clientCount)) }

func (s *Server) runHub() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			s.clientsMu.Lock()
			for c := range s.clients {
				close(c.send)
			}
			s.clientsMu.Unlock()
			return

		case c := <-s.register:
			s.clientsMu.Lock()
			s.clients[c] = true
			s.clientsMu.Unlock()
			atomic.AddInt32(&s.clientCount, 1)

		case c := <-s.unregister:
			s.clientsMu.Lock()
			if _, ok := s.clients[c]; ok {
				delete(s.clients, c)
				close(c.send)
				atomic.AddInt32(&s.clientCount, -1)
			}
			s.clientsMu.Unlock()

		case msg := <-s.broadcast:
			s.deliver(msg)
		}
	}
}

func (s *Server) deliver(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("wsfeed: failed to marshal message", "error", err)
		}
		return
	}

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.unregister <- c
		}
	}
	atomic.AddUint64(&s.messagesOut, uint64(len(s.clients)))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	up := upgrader
	up.ReadBufferSize = s.cfg.ReadBufferSize
	up.WriteBufferSize = s.cfg.WriteBufferSize
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("wsfeed: upgrade failed", "error", err)
		}
		return
	}

	c := &Client{id: fmt.Sprintf("%p", conn), conn: conn, server: s, send: make(chan []byte, 256)}
	s.register <- c

	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.server.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(64 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(c.server.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.server.cfg.PongTimeout))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.server.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
