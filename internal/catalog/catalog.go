package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/toko-register/internal/pricing"
)

var (
	// ErrUnknownSKU indicates the catalog holds no price for the SKU.
	ErrUnknownSKU = errors.New("unknown sku")
	// ErrInvalidItem is returned when seeding an item with an empty SKU or negative price.
	ErrInvalidItem = errors.New("invalid catalog item")
)

// Catalog resolves SKUs to priced items.
type Catalog interface {
	Lookup(ctx context.Context, sku string) (pricing.Item, error)
}

// Key is the lookup key for a scanned SKU. Scanner input is trimmed here, at the
// catalog boundary; baskets compare SKUs without trimming.
func Key(sku string) string {
	return pricing.NormalizeSKU(strings.TrimSpace(sku))
}

// Memory is a read-only in-process catalog.
type Memory struct {
	items map[string]pricing.Item
}

// DefaultItems returns the standard price list.
func DefaultItems() []pricing.Item {
	return []pricing.Item{
		{SKU: "A", Price: 3000},
		{SKU: "B", Price: 2000},
		{SKU: "C", Price: 5000},
		{SKU: "D", Price: 1500},
	}
}

// NewMemory builds a catalog from items. The last item wins for duplicate SKUs.
func NewMemory(items []pricing.Item) (*Memory, error) {
	m := &Memory{items: make(map[string]pricing.Item, len(items))}
	for _, it := range items {
		key := Key(it.SKU)
		if key == "" {
			return nil, fmt.Errorf("%w: empty sku", ErrInvalidItem)
		}
		if it.Price < 0 {
			return nil, fmt.Errorf("%w: %s has negative price %d", ErrInvalidItem, it.SKU, it.Price)
		}
		m.items[key] = pricing.Item{SKU: strings.TrimSpace(it.SKU), Price: it.Price}
	}
	return m, nil
}

// Lookup implements Catalog.
func (m *Memory) Lookup(_ context.Context, sku string) (pricing.Item, error) {
	if m != nil {
		if it, ok := m.items[Key(sku)]; ok {
			return it, nil
		}
	}
	return pricing.Item{}, fmt.Errorf("%w: %q", ErrUnknownSKU, sku)
}

// Items lists the catalog sorted by SKU.
func (m *Memory) Items() []pricing.Item {
	if m == nil {
		return nil
	}
	out := make([]pricing.Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		return Key(out[i].SKU) < Key(out[j].SKU)
	})
	return out
}
