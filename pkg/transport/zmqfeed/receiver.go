// Package zmqfeed decodes engine.OrderMessage frames off a ZeroMQ PULL
// socket, using engine.Encode/Decode's fixed-width wire format.
package zmqfeed

import (
	"sync/atomic"

	zmq "github.com/pebbe/zmq4"

	"github.com/luxfi/log"

	"github.com/luxfi/lob-matcher/pkg/engine"
)

// Config holds the bind parameters for a PULL-side listener.
type Config struct {
	BindAddr string
	RecvHWM  int
}

// DefaultConfig returns reasonable listener defaults.
func DefaultConfig() Config {
	return Config{BindAddr: "tcp://*:5555", RecvHWM: 100000}
}

// Receiver owns a bound PULL socket and feeds decoded messages to an
// engine.Engine.
type Receiver struct {
	cfg     Config
	logger  log.Logger
	context *zmq.Context
	socket  *zmq.Socket

	messagesReceived uint64
	bytesReceived    uint64
}

// NewReceiver creates and binds a PULL socket per cfg.
func NewReceiver(cfg Config, logger log.Logger) (*Receiver, error) {
	ctx, err := zmq.NewContext()
	if err != nil {
		return nil, err
	}
	sock, err := ctx.NewSocket(zmq.PULL)
	if err != nil {
		return nil, err
	}
	if err := sock.SetRcvhwm(cfg.RecvHWM); err != nil {
		return nil, err
	}
	if err := sock.Bind(cfg.BindAddr); err != nil {
		return nil, err
	}
	return &Receiver{cfg: cfg, logger: logger, context: ctx, socket: sock}, nil
}

// Close releases the socket and context.
func (r *Receiver) Close() error {
	r.socket.Close()
	return r.context.Term()
}

// Serve blocks, decoding every incoming frame with engine.Decode and
// handing it to onMessage, until the socket errors (typically on
// Close). It never returns nil: callers loop until they choose to stop.
func (r *Receiver) Serve(onMessage func(engine.OrderMessage)) error {
	buf := make([]byte, engine.WireSize)
	for {
		frame, err := r.socket.RecvBytes(0)
		if err != nil {
			return err
		}
		atomic.AddUint64(&r.messagesReceived, 1)
		atomic.AddUint64(&r.bytesReceived, uint64(len(frame)))

		if len(frame) < engine.WireSize {
			if r.logger != nil {
				r.logger.Warn("zmqfeed: dropping undersized frame", "size", len(frame))
			}
			continue
		}
		copy(buf, frame[:engine.WireSize])
		onMessage(engine.Decode(buf))
	}
}

// MessagesReceived returns the total frame count observed.
func (r *Receiver) MessagesReceived() uint64 { return atomic.LoadUint64(&r.messagesReceived) }

// BytesReceived returns the total byte count observed.
func (r *Receiver) BytesReceived() uint64 { return atomic.LoadUint64(&r.bytesReceived) }
