package pricing

import "fmt"

type skuEntry struct {
	item  Item
	count int
}

// Basket holds purchased items in purchase order and memoizes the net price
// produced by its pipeline until the next AddItem.
//
// A Basket is not safe for concurrent use. Callers sharing one across
// goroutines must serialize AddItem together with NetPrice and Discount.
type Basket struct {
	pipeline *Pipeline
	entries  []Item
	index    map[string]*skuEntry
	total    Money

	computed bool
	net      Money
	discount Money
}

// NewBasket returns an empty basket priced by p. A nil pipeline applies no rules.
func NewBasket(p *Pipeline) *Basket {
	return &Basket{
		pipeline: p,
		index:    make(map[string]*skuEntry),
	}
}

// AddItem appends item and invalidates any memoized net price. Items are
// expected to carry a non-empty SKU and a non-negative price; the basket does
// not check either.
func (b *Basket) AddItem(item Item) *Basket {
	b.entries = append(b.entries, item)
	b.total += item.Price

	key := NormalizeSKU(item.SKU)
	entry, ok := b.index[key]
	if !ok {
		entry = &skuEntry{item: item}
		b.index[key] = entry
	}
	entry.count++

	b.computed = false
	b.net = 0
	b.discount = 0
	return b
}

// GetItem returns the first item added under sku and how many items share it.
// Unknown SKUs yield the zero Item and a count of 0.
func (b *Basket) GetItem(sku string) (Item, int) {
	item, count, _ := b.Lookup(sku)
	return item, count
}

// Lookup is GetItem with an explicit presence flag.
func (b *Basket) Lookup(sku string) (Item, int, bool) {
	entry, ok := b.index[NormalizeSKU(sku)]
	if !ok {
		return Item{}, 0, false
	}
	return entry.item, entry.count, true
}

// TotalPrice is the undiscounted sum of every item price.
func (b *Basket) TotalPrice() Money {
	return b.total
}

// NetPrice returns the price after the pipeline rules.
func (b *Basket) NetPrice() Money {
	b.compute()
	return b.net
}

// Discount returns TotalPrice minus NetPrice.
func (b *Basket) Discount() Money {
	b.compute()
	return b.discount
}

// Summary returns total, discount and net price together.
func (b *Basket) Summary() Summary {
	b.compute()
	return Summary{Total: b.total, Discount: b.discount, Net: b.net}
}

// Items returns a copy of the basket entries in purchase order.
func (b *Basket) Items() []Item {
	out := make([]Item, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len reports the number of items added.
func (b *Basket) Len() int {
	return len(b.entries)
}

// Pipeline returns the pipeline pricing this basket.
func (b *Basket) Pipeline() *Pipeline {
	return b.pipeline
}

// String renders the three basket figures.
func (b *Basket) String() string {
	s := b.Summary()
	return fmt.Sprintf("Total price: JPY %d, Discount: JPY %d, Net price: JPY %d", s.Total, s.Discount, s.Net)
}

// Evaluate runs the pipeline once and returns its trace. The resulting net
// price is memoized, so NetPrice, Discount and String reuse it.
func (b *Basket) Evaluate() Evaluation {
	eval := b.pipeline.Evaluate(b)
	b.net = eval.Net
	b.discount = eval.Discount()
	b.computed = true
	return eval
}

func (b *Basket) compute() {
	if b.computed {
		return
	}
	b.Evaluate()
}
