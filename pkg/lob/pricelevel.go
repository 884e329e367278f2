package lob

// PriceLevel is an intrusive FIFO queue of live orders sharing one
// price. It stores handles into a Pool rather than pointers; see
// order.go for why.
type PriceLevel struct {
	head, tail OrderHandle
	price      uint32
	aggregate  uint32
	count      uint32
}

// SetPrice stamps the level with the price it now represents. Called
// once, when a level transitions from empty to non-empty.
func (l *PriceLevel) SetPrice(p uint32) { l.price = p }

// Price returns the level's stamped price.
func (l *PriceLevel) Price() uint32 { return l.price }

// Aggregate returns the total remaining quantity resting at this level.
func (l *PriceLevel) Aggregate() uint32 { return l.aggregate }

// Count returns the number of live orders resting at this level.
func (l *PriceLevel) Count() uint32 { return l.count }

// HasOrders reports whether any order is resting at this level.
func (l *PriceLevel) HasOrders() bool { return l.head != NullOrder }

// Add appends h to the tail of the queue.
func (l *PriceLevel) Add(pool *Pool, h OrderHandle) {
	order := pool.Get(h)
	order.Next = NullOrder
	if l.head == NullOrder {
		l.head = h
		l.tail = h
	} else {
		pool.Get(l.tail).Next = h
		l.tail = h
	}
	l.aggregate += order.Remaining
	l.count++
}

// Remove locates and unlinks h. This is a singly-linked list, so this
// is O(n) in the level's size; cancels overwhelmingly hit the first few
// orders at a level, and a singly-linked Order avoids paying a Prev
// pointer on every resting order for the rare deep cancel.
func (l *PriceLevel) Remove(pool *Pool, h OrderHandle) {
	if l.head == NullOrder {
		return
	}
	order := pool.Get(h)

	if l.head == h {
		l.head = order.Next
		if l.head == NullOrder {
			l.tail = NullOrder
		}
		l.aggregate -= order.Remaining
		l.count--
		return
	}

	curr := l.head
	for curr != NullOrder {
		currOrder := pool.Get(curr)
		if currOrder.Next == h {
			currOrder.Next = order.Next
			if currOrder.Next == NullOrder {
				l.tail = curr
			}
			l.aggregate -= order.Remaining
			l.count--
			return
		}
		curr = currOrder.Next
	}
}

// Execute walks the queue from the head, filling each resting order's
// remaining quantity against qty. Every non-zero fill emits one Trade
// at this level's price; an order that reaches zero remaining is
// unlinked from the head and released back to pool. Stops when qty is
// exhausted or the queue empties. Returns the total quantity filled.
//
// aggressorID is threaded through explicitly so a trade always records
// both sides' order ids; callers with no persistent aggressor id (bare
// market/IOC flow) pass 0.
func (l *PriceLevel) Execute(pool *Pool, qty uint32, aggressorSide Side, aggressorID uint64, ts uint64, out *[]Trade) uint32 {
	var filled uint32
	for l.head != NullOrder && qty > 0 {
		h := l.head
		order := pool.Get(h)

		exec := order.fill(qty)
		if exec > 0 {
			filled += exec
			qty -= exec
			l.aggregate -= exec

			t := Trade{Price: l.price, Quantity: exec, Timestamp: ts}
			if aggressorSide == Buy {
				t.BuyOrderID = aggressorID
				t.SellOrderID = order.ID
			} else {
				t.BuyOrderID = order.ID
				t.SellOrderID = aggressorID
			}
			*out = append(*out, t)
		}

		if order.isFilled() {
			l.head = order.Next
			if l.head == NullOrder {
				l.tail = NullOrder
			}
			l.count--
			pool.Release(h)
		}
	}
	return filled
}

// Clear drops the level's logical contents without releasing its
// orders back to the pool. OrderBook.Clear resets the whole pool after
// clearing every level.
func (l *PriceLevel) Clear() {
	l.head = NullOrder
	l.tail = NullOrder
	l.aggregate = 0
	l.count = 0
	l.price = 0
}

// ValidateIntegrity recomputes count and aggregate by walking head to
// tail and confirms the walk terminates exactly at the stored tail
// after count steps: the tail must be reachable, not merely the element
// count matching.
func (l *PriceLevel) ValidateIntegrity(pool *Pool) bool {
	if l.head == NullOrder && l.tail == NullOrder {
		return l.count == 0 && l.aggregate == 0
	}
	if l.head == NullOrder || l.tail == NullOrder {
		return false
	}

	var steps uint32
	var sum uint32
	curr := l.head
	for curr != NullOrder {
		order := pool.Get(curr)
		sum += order.Remaining
		steps++
		if order.Next == NullOrder && curr != l.tail {
			return false
		}
		curr = order.Next
	}
	return steps == l.count && sum == l.aggregate
}
