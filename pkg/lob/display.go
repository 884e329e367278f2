package lob

import "github.com/shopspring/decimal"

// Display converts an internal integer tick price to a human-readable
// decimal string using a fixed power-of-ten scale. Matching itself
// never uses decimal.Decimal; this is strictly a formatting boundary.
type Display struct {
	places int32
	divisor decimal.Decimal
}

// NewDisplay builds a Display for a ladder whose raw integer prices are
// scaled by 10^places (e.g. places=2 means a raw price of 12345
// displays as "123.45").
func NewDisplay(places int32) Display {
	return Display{places: places, divisor: decimal.New(1, places)}
}

// Price formats a raw integer price as a decimal string.
func (d Display) Price(raw uint32) string {
	return decimal.New(int64(raw), 0).Div(d.divisor).StringFixed(d.places)
}

// Quantity formats a raw integer quantity as a plain decimal string.
func (d Display) Quantity(raw uint32) string {
	return decimal.New(int64(raw), 0).String()
}
