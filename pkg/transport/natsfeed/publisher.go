// Package natsfeed publishes trade and order lifecycle events onto
// NATS subjects, grounded on backend/cmd/nats-dex/main.go's
// Connect/Publish usage.
package natsfeed

import (
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/luxfi/lob-matcher/pkg/lob"
)

const (
	TradeSubject = "lob.trades"
	OrderSubject = "lob.orders"
)

// TradeEvent is the JSON payload published for every fill.
type TradeEvent struct {
	BuyOrderID  uint64 `json:"buyOrderId"`
	SellOrderID uint64 `json:"sellOrderId"`
	Price       uint32 `json:"price"`
	Quantity    uint32 `json:"quantity"`
	Timestamp   uint64 `json:"timestamp"`
}

// OrderEvent is the JSON payload published for an order lifecycle
// transition ("added", "cancelled", "modified").
type OrderEvent struct {
	OrderID   uint64 `json:"orderId"`
	Side      string `json:"side"`
	Price     uint32 `json:"price"`
	Remaining uint32 `json:"remaining"`
	Event     string `json:"event"`
}

// Publisher wraps a *nats.Conn with the two subjects this engine emits
// on.
type Publisher struct {
	nc *nats.Conn
}

// Connect dials url (pass nats.DefaultURL for the standard local default).
func Connect(url string) (*Publisher, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc}, nil
}

// Close drains and closes the underlying connection.
func (p *Publisher) Close() { p.nc.Close() }

// PublishTrade marshals t and publishes it on TradeSubject.
func (p *Publisher) PublishTrade(t lob.Trade) error {
	data, err := json.Marshal(TradeEvent{
		BuyOrderID:  t.BuyOrderID,
		SellOrderID: t.SellOrderID,
		Price:       t.Price,
		Quantity:    t.Quantity,
		Timestamp:   t.Timestamp,
	})
	if err != nil {
		return err
	}
	return p.nc.Publish(TradeSubject, data)
}

// PublishOrderEvent marshals an order lifecycle transition and
// publishes it on OrderSubject.
func (p *Publisher) PublishOrderEvent(o lob.Order, event string) error {
	data, err := json.Marshal(OrderEvent{
		OrderID:   o.ID,
		Side:      o.Side.String(),
		Price:     o.Price,
		Remaining: o.Remaining,
		Event:     event,
	})
	if err != nil {
		return err
	}
	return p.nc.Publish(OrderSubject, data)
}
