package lob

// OrderBook is the single-symbol price-time priority ladder: two fixed
// arrays of MaxPriceLevels PriceLevels, one Directory per side, an
// ID-to-handle map, and cached best-price slots.
type OrderBook struct {
	cfg Config

	buyLevels  [MaxPriceLevels]PriceLevel
	sellLevels [MaxPriceLevels]PriceLevel

	buyDir  Directory
	sellDir Directory

	orders map[uint64]OrderHandle
	pool   *Pool

	bestBidSlot uint32
	bestAskSlot uint32
	bestBidSet  bool
	bestAskSet  bool

	totalOrders uint64
	totalTrades uint64
	totalVolume uint64
}

// NewOrderBook constructs an empty book with the given configuration.
func NewOrderBook(cfg Config) *OrderBook {
	b := &OrderBook{
		cfg:    cfg,
		orders: make(map[uint64]OrderHandle),
		pool:   NewPool(cfg.PoolCapacity),
	}
	b.invalidateBid()
	b.invalidateAsk()
	return b
}

// --- price/slot mapping ---

// sellTop is the highest price the sell ladder's 4096 slots can
// represent: slot 0 is BasePrice, slot 4095 is sellTop.
func (b *OrderBook) sellTop() uint32 {
	return b.cfg.BasePrice + uint32(MaxPriceLevels-1)*b.cfg.MinPriceTick
}

func (b *OrderBook) clampSell(price uint32) uint32 {
	lo, hi := b.cfg.BasePrice, b.sellTop()
	if price < lo {
		return lo
	}
	if price > hi {
		return hi
	}
	return price
}

// sellSlot maps a price to its sell-ladder slot: ascending slot index
// is ascending price, so the best ask sits at the lowest non-empty
// slot.
func (b *OrderBook) sellSlot(price uint32) uint32 {
	price = b.clampSell(price)
	return (price - b.cfg.BasePrice) / b.cfg.MinPriceTick
}

func (b *OrderBook) sellPrice(slot uint32) uint32 {
	return b.cfg.BasePrice + slot*b.cfg.MinPriceTick
}

// buyTop and buyBottom bound the centered buy ladder: slot 0 sits at
// buyTop (the highest representable bid) and slot 4095 sits at
// buyBottom (the lowest), so ascending slot index is descending price
// and the best bid also sits at the lowest non-empty slot, letting both
// sides share the same FindLowest/FindNextHigher traversal.
func (b *OrderBook) buyTop() uint32 {
	return b.cfg.BasePrice + uint32(MaxPriceLevels/2-1)*b.cfg.MinPriceTick
}

func (b *OrderBook) buyBottom() uint32 {
	top := b.buyTop()
	span := uint32(MaxPriceLevels-1) * b.cfg.MinPriceTick
	if span > top {
		return 0
	}
	return top - span
}

func (b *OrderBook) clampBuy(price uint32) uint32 {
	lo, hi := b.buyBottom(), b.buyTop()
	if price < lo {
		return lo
	}
	if price > hi {
		return hi
	}
	return price
}

// buySlot maps a price to its buy-ladder slot on the centered ladder.
func (b *OrderBook) buySlot(price uint32) uint32 {
	price = b.clampBuy(price)
	return (b.buyTop() - price) / b.cfg.MinPriceTick
}

func (b *OrderBook) buyPrice(slot uint32) uint32 {
	return b.buyTop() - slot*b.cfg.MinPriceTick
}

func (b *OrderBook) slot(side Side, price uint32) uint32 {
	if side == Buy {
		return b.buySlot(price)
	}
	return b.sellSlot(price)
}

func (b *OrderBook) priceOf(side Side, slot uint32) uint32 {
	if side == Buy {
		return b.buyPrice(slot)
	}
	return b.sellPrice(slot)
}

func (b *OrderBook) levels(side Side) *[MaxPriceLevels]PriceLevel {
	if side == Buy {
		return &b.buyLevels
	}
	return &b.sellLevels
}

func (b *OrderBook) directory(side Side) *Directory {
	if side == Buy {
		return &b.buyDir
	}
	return &b.sellDir
}

func (b *OrderBook) invalidateBid() { b.bestBidSet = false }
func (b *OrderBook) invalidateAsk() { b.bestAskSet = false }
func (b *OrderBook) invalidate(side Side) {
	if side == Buy {
		b.invalidateBid()
	} else {
		b.invalidateAsk()
	}
}

// --- core operations ---

// AddLimit rejects a zero quantity or a duplicate id, otherwise
// acquires a slot, links it into the ladder, and returns true. It never
// sweeps the opposite side: a crossing limit simply rests and
// IsCrossed() becomes observable.
func (b *OrderBook) AddLimit(id uint64, side Side, price, qty uint32, ts uint64) bool {
	if qty == 0 {
		return false
	}
	if _, exists := b.orders[id]; exists {
		return false
	}

	h := b.pool.Acquire()
	order := b.pool.Get(h)
	order.reset(id, side, Limit, price, qty, ts)

	slot := b.slot(side, price)
	level := &b.levels(side)[slot]
	wasEmpty := !level.HasOrders()
	if wasEmpty {
		level.SetPrice(b.priceOf(side, slot))
	}
	level.Add(b.pool, h)

	b.orders[id] = h
	b.directory(side).Set(slot)
	b.invalidate(side)
	b.totalOrders++
	return true
}

// Cancel unlinks and releases the order, returning false if id is
// unknown.
func (b *OrderBook) Cancel(id uint64) bool {
	h, ok := b.orders[id]
	if !ok {
		return false
	}
	order := b.pool.Get(h)
	side := order.Side
	slot := b.slot(side, order.Price)
	level := &b.levels(side)[slot]

	level.Remove(b.pool, h)
	if !level.HasOrders() {
		b.directory(side).Clear(slot)
	}
	b.pool.Release(h)
	delete(b.orders, id)
	b.invalidate(side)
	return true
}

// Modify is cancel-replace: the order loses time priority. Fails if id
// is unknown or newQty is zero.
func (b *OrderBook) Modify(id uint64, newPrice, newQty uint32, ts uint64) bool {
	h, ok := b.orders[id]
	if !ok {
		return false
	}
	if newQty == 0 {
		return false
	}
	order := b.pool.Get(h)
	side := order.Side

	if !b.Cancel(id) {
		return false
	}
	return b.AddLimit(id, side, newPrice, newQty, ts)
}

// ExecuteMarket walks the opposite side from best outward, filling
// qty and appending trades to out. Unfilled remainder is discarded:
// market orders never rest. Returns the total quantity filled.
func (b *OrderBook) ExecuteMarket(side Side, qty uint32, ts uint64, out *[]Trade) uint32 {
	return b.sweep(side, qty, 0, false, ts, out)
}

// ExecuteIOC behaves like ExecuteMarket but additionally stops before
// entering any level priced worse than limitPrice: for a BUY IOC, a
// sell level priced above limitPrice is out of reach; for a SELL IOC, a
// buy level priced below limitPrice is out of reach.
func (b *OrderBook) ExecuteIOC(side Side, limitPrice, qty uint32, ts uint64, out *[]Trade) uint32 {
	return b.sweep(side, qty, limitPrice, true, ts, out)
}

// sweep is the shared taker-side walk behind ExecuteMarket/ExecuteIOC.
// The opposite side is always consumed starting at FindLowest and
// advancing via FindNextHigher, which is valid for both ladders because
// of the centered buy-side mapping.
func (b *OrderBook) sweep(takerSide Side, qty, limitPrice uint32, limited bool, ts uint64, out *[]Trade) uint32 {
	oppositeSide := Sell
	if takerSide == Sell {
		oppositeSide = Buy
	}
	dir := b.directory(oppositeSide)
	lv := b.levels(oppositeSide)

	var filled uint32
	slot := dir.FindLowest()
	for slot != MaxPriceLevels && qty > 0 {
		level := &lv[slot]
		price := level.Price()

		if limited {
			if takerSide == Buy && price > limitPrice {
				break
			}
			if takerSide == Sell && price < limitPrice {
				break
			}
		}

		first := len(*out)
		exec := level.Execute(b.pool, qty, takerSide, 0, ts, out)
		filled += exec
		qty -= exec

		// Execute released every fully filled resting order back to the
		// pool; drop those ids so the map only holds live orders.
		for _, t := range (*out)[first:] {
			restingID := t.SellOrderID
			if takerSide == Sell {
				restingID = t.BuyOrderID
			}
			if h, ok := b.orders[restingID]; ok && b.pool.Get(h).isFilled() {
				delete(b.orders, restingID)
			}
		}

		if !level.HasOrders() {
			dir.Clear(slot)
		}
		slot = dir.FindNextHigher(slot)
	}

	if filled > 0 {
		b.totalTrades += uint64(len(*out))
		b.totalVolume += uint64(filled)
		b.invalidate(oppositeSide)
	}
	return filled
}

// --- best price queries ---

func (b *OrderBook) refreshBid() {
	if b.bestBidSet {
		return
	}
	b.bestBidSlot = b.buyDir.FindLowest()
	b.bestBidSet = true
}

func (b *OrderBook) refreshAsk() {
	if b.bestAskSet {
		return
	}
	b.bestAskSlot = b.sellDir.FindLowest()
	b.bestAskSet = true
}

// BestBid returns the highest resting buy price, or 0 if the buy side
// is empty.
func (b *OrderBook) BestBid() uint32 {
	b.refreshBid()
	if b.bestBidSlot == MaxPriceLevels {
		return 0
	}
	return b.buyLevels[b.bestBidSlot].Price()
}

// BestAsk returns the lowest resting sell price, or UINT32_MAX
// (represented as ^uint32(0)) if the sell side is empty.
func (b *OrderBook) BestAsk() uint32 {
	b.refreshAsk()
	if b.bestAskSlot == MaxPriceLevels {
		return ^uint32(0)
	}
	return b.sellLevels[b.bestAskSlot].Price()
}

// BestBidQty returns the aggregate quantity resting at the best bid.
func (b *OrderBook) BestBidQty() uint32 {
	b.refreshBid()
	if b.bestBidSlot == MaxPriceLevels {
		return 0
	}
	return b.buyLevels[b.bestBidSlot].Aggregate()
}

// BestAskQty returns the aggregate quantity resting at the best ask.
func (b *OrderBook) BestAskQty() uint32 {
	b.refreshAsk()
	if b.bestAskSlot == MaxPriceLevels {
		return 0
	}
	return b.sellLevels[b.bestAskSlot].Aggregate()
}

// IsCrossed reports whether the book is crossed (best bid >= best ask).
// This is observable, not an error: a limit order added at a taker
// price rests and crosses the book by design, since AddLimit never
// sweeps.
func (b *OrderBook) IsCrossed() bool {
	b.refreshBid()
	b.refreshAsk()
	if b.bestBidSlot == MaxPriceLevels || b.bestAskSlot == MaxPriceLevels {
		return false
	}
	return b.buyLevels[b.bestBidSlot].Price() >= b.sellLevels[b.bestAskSlot].Price()
}

// LevelSnapshot is one resting level's price, aggregate quantity and
// order count, as reported by MarketDepth.
type LevelSnapshot struct {
	Price     uint32
	Aggregate uint32
	Count     uint32
}

// MarketDepth walks outward from the best non-empty slot on each side,
// emitting up to levels (price, aggregate) pairs. Bids are highest
// price first, asks lowest price first.
func (b *OrderBook) MarketDepth(levels int) (bids, asks []LevelSnapshot) {
	bids = b.walkDepth(Buy, levels)
	asks = b.walkDepth(Sell, levels)
	return bids, asks
}

func (b *OrderBook) walkDepth(side Side, levels int) []LevelSnapshot {
	dir := b.directory(side)
	lv := b.levels(side)

	out := make([]LevelSnapshot, 0, levels)
	slot := dir.FindLowest()
	for slot != MaxPriceLevels && len(out) < levels {
		level := &lv[slot]
		out = append(out, LevelSnapshot{Price: level.Price(), Aggregate: level.Aggregate(), Count: level.Count()})
		slot = dir.FindNextHigher(slot)
	}
	return out
}

// --- statistics & lifecycle ---

func (b *OrderBook) TotalOrders() uint64 { return b.totalOrders }
func (b *OrderBook) TotalTrades() uint64 { return b.totalTrades }
func (b *OrderBook) TotalVolume() uint64 { return b.totalVolume }

// ResetStatistics zeros the running counters without touching the book.
func (b *OrderBook) ResetStatistics() {
	b.totalOrders = 0
	b.totalTrades = 0
	b.totalVolume = 0
}

// Clear resets the book to its initial empty state: every level, both
// directories, the ID map, the pool, the caches, and the statistics.
func (b *OrderBook) Clear() {
	for i := range b.buyLevels {
		b.buyLevels[i].Clear()
	}
	for i := range b.sellLevels {
		b.sellLevels[i].Clear()
	}
	b.buyDir.ClearAll()
	b.sellDir.ClearAll()
	b.orders = make(map[uint64]OrderHandle)
	b.pool.Reset()
	b.invalidateBid()
	b.invalidateAsk()
	b.ResetStatistics()
}

// ValidateIntegrity checks directory consistency on both sides, every
// level's own integrity, and that the directory bit for a slot agrees
// with whether its level has orders.
func (b *OrderBook) ValidateIntegrity() bool {
	if !b.buyDir.ValidateConsistency() || !b.sellDir.ValidateConsistency() {
		return false
	}
	for i := uint32(0); i < MaxPriceLevels; i++ {
		if !b.buyLevels[i].ValidateIntegrity(b.pool) {
			return false
		}
		if !b.sellLevels[i].ValidateIntegrity(b.pool) {
			return false
		}
		if b.buyDir.Test(i) != b.buyLevels[i].HasOrders() {
			return false
		}
		if b.sellDir.Test(i) != b.sellLevels[i].HasOrders() {
			return false
		}
	}
	for id, h := range b.orders {
		order := b.pool.Get(h)
		if order.ID != id {
			return false
		}
		wantSlot := b.slot(order.Side, order.Price)
		if !b.levels(order.Side)[wantSlot].HasOrders() {
			return false
		}
	}
	return true
}

// Order looks up a live order's current snapshot by id, for callback
// and reporting use.
func (b *OrderBook) Order(id uint64) (Order, bool) {
	h, ok := b.orders[id]
	if !ok {
		return Order{}, false
	}
	return *b.pool.Get(h), true
}

// PoolStats exposes pool utilization for metrics reporting.
func (b *OrderBook) PoolStats() (used, capacity int, utilization float64) {
	return b.pool.Len(), b.pool.Capacity(), b.pool.Utilization()
}
