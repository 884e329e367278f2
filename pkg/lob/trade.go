package lob

// Trade is a value record produced by a match. It is emitted into the
// caller's trade buffer and never referenced by the book afterward.
type Trade struct {
	BuyOrderID  uint64
	SellOrderID uint64
	Price       uint32
	Quantity    uint32
	Timestamp   uint64
}
