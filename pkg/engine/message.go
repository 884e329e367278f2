package engine

import (
	"encoding/binary"

	"github.com/luxfi/lob-matcher/pkg/lob"
)

// MessageType tags an OrderMessage, kept as single ASCII bytes so the
// on-disk journal encoding (pkg/journal) stays a direct byte-for-byte
// mirror of this type.
type MessageType uint8

const (
	AddOrder    MessageType = 'A'
	CancelOrder MessageType = 'C'
	ModifyOrder MessageType = 'M'
	MarketOrder MessageType = 'X'
	IOCOrder    MessageType = 'I'
)

// OrderMessage is the wire/journal record for one inbound instruction.
// Every field is fixed-width so a slice of OrderMessage can be written
// and read back as a flat binary blob (pkg/journal).
type OrderMessage struct {
	Type      MessageType
	OrderID   uint64
	Side      lob.Side
	Price     uint32
	Quantity  uint32
	Timestamp uint64
}

// WireSize is the fixed on-wire/on-disk width of an encoded
// OrderMessage: 1 (type) + 7 (pad) + 8 (order id) + 1 (side) + 7 (pad) +
// 4 (price) + 4 (quantity) + 8 (timestamp). Both the ZeroMQ
// transport (pkg/transport/zmqfeed) and the file journal (pkg/journal)
// share this single encoding so a captured wire frame and a journaled
// record are byte-identical.
const WireSize = 40

// Encode writes msg into buf, which must be at least WireSize bytes.
func Encode(buf []byte, msg OrderMessage) {
	_ = buf[WireSize-1]
	buf[0] = byte(msg.Type)
	binary.LittleEndian.PutUint64(buf[8:16], msg.OrderID)
	buf[16] = byte(msg.Side)
	binary.LittleEndian.PutUint32(buf[24:28], msg.Price)
	binary.LittleEndian.PutUint32(buf[28:32], msg.Quantity)
	binary.LittleEndian.PutUint64(buf[32:40], msg.Timestamp)
}

// Decode reads an OrderMessage from buf, which must be at least
// WireSize bytes.
func Decode(buf []byte) OrderMessage {
	_ = buf[WireSize-1]
	return OrderMessage{
		Type:      MessageType(buf[0]),
		OrderID:   binary.LittleEndian.Uint64(buf[8:16]),
		Side:      lob.Side(buf[16]),
		Price:     binary.LittleEndian.Uint32(buf[24:28]),
		Quantity:  binary.LittleEndian.Uint32(buf[28:32]),
		Timestamp: binary.LittleEndian.Uint64(buf[32:40]),
	}
}
