package pricing

import "fmt"

// BundleRule prices every complete set of SetSize items of SKU at SetPrice.
// Leftover items keep their unit price. The discount is measured against the
// unit price of the first item added for SKU, then subtracted from the
// running price.
type BundleRule struct {
	Label    string
	SKU      string
	SetSize  int
	SetPrice Money
}

// Name implements Rule.
func (r BundleRule) Name() string {
	if r.Label != "" {
		return r.Label
	}
	return fmt.Sprintf("bundle-of-%d-%s", r.SetSize, r.SKU)
}

// Apply implements Rule.
func (r BundleRule) Apply(b *Basket, current Money) (Money, bool) {
	if r.SetSize <= 0 {
		return current, false
	}
	item, count := b.GetItem(r.SKU)
	if count < r.SetSize {
		return current, false
	}
	sets := Money(count / r.SetSize)
	bundlePrice := sets * r.SetPrice
	fullPrice := item.Price * sets * Money(r.SetSize)
	return current - (fullPrice - bundlePrice), false
}

// ThresholdRule takes Amount off a running price strictly above Over and
// stops any later rule from running.
type ThresholdRule struct {
	Label  string
	Over   Money
	Amount Money
}

// Name implements Rule.
func (r ThresholdRule) Name() string {
	if r.Label != "" {
		return r.Label
	}
	return fmt.Sprintf("threshold-%d", r.Over)
}

// Apply implements Rule.
func (r ThresholdRule) Apply(_ *Basket, current Money) (Money, bool) {
	if current > r.Over {
		return current - r.Amount, true
	}
	return current, false
}

// DefaultRules returns the standard promotion set in evaluation order:
// three A for 7500, two B for 3500, then 2000 off above 15000.
func DefaultRules() []Rule {
	return []Rule{
		BundleRule{SKU: "A", SetSize: 3, SetPrice: 7500},
		BundleRule{SKU: "B", SetSize: 2, SetPrice: 3500},
		ThresholdRule{Over: 15000, Amount: 2000},
	}
}

// DefaultPipeline returns a pipeline over DefaultRules.
func DefaultPipeline() *Pipeline {
	return NewPipeline(DefaultRules()...)
}
