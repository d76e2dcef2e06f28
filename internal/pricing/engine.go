package pricing

import "strings"

// Money represents a monetary value in whole currency units (JPY has no subunits).
type Money = int64

// Item describes a purchased item as supplied by the catalog.
type Item struct {
	SKU   string `json:"sku"`
	Price Money  `json:"price"`
}

// Summary aggregates the computed pricing figures of a basket.
type Summary struct {
	Total    Money `json:"total"`
	Discount Money `json:"discount"`
	Net      Money `json:"net"`
}

// NormalizeSKU returns the index key for sku. SKUs compare case-insensitively
// and otherwise exactly: " A" and "A" are different SKUs.
func NormalizeSKU(sku string) string {
	return strings.ToLower(sku)
}
