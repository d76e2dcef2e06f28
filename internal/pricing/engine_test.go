package pricing

import "testing"

func repeat(b *Basket, item Item, n int) *Basket {
	for i := 0; i < n; i++ {
		b.AddItem(item)
	}
	return b
}

func TestEmptyBasket(t *testing.T) {
	b := NewBasket(DefaultPipeline())
	if b.TotalPrice() != 0 || b.NetPrice() != 0 || b.Discount() != 0 {
		t.Fatalf("expected zero figures, got %s", b)
	}
}

func TestSingleItemNoDiscount(t *testing.T) {
	b := NewBasket(DefaultPipeline()).AddItem(Item{SKU: "A", Price: 1137})
	if b.TotalPrice() != 1137 {
		t.Fatalf("expected total 1137, got %d", b.TotalPrice())
	}
	if b.Discount() != 0 {
		t.Fatalf("expected no discount, got %d", b.Discount())
	}
	if b.NetPrice() != 1137 {
		t.Fatalf("expected net 1137, got %d", b.NetPrice())
	}
}

func TestDefaultRuleScenarios(t *testing.T) {
	a := Item{SKU: "A", Price: 3000}
	b := Item{SKU: "B", Price: 2000}
	c := Item{SKU: "C", Price: 5000}
	d := Item{SKU: "D", Price: 1500}

	cases := []struct {
		name     string
		items    []Item
		total    Money
		net      Money
		discount Money
	}{
		{name: "two A", items: []Item{a, a}, total: 6000, net: 6000},
		{name: "three A", items: []Item{a, a, a}, total: 9000, net: 7500, discount: 1500},
		{name: "six A stays at threshold", items: []Item{a, a, a, a, a, a}, total: 18000, net: 15000, discount: 3000},
		{name: "seven A crosses threshold", items: []Item{a, a, a, a, a, a, a}, total: 21000, net: 16000, discount: 5000},
		{name: "A B C", items: []Item{a, b, c}, total: 10000, net: 10000},
		{name: "A B C D", items: []Item{a, b, c, d}, total: 11500, net: 11500},
		{name: "mixed order", items: []Item{c, b, a, a, d, a, b}, total: 19500, net: 15500, discount: 4000},
		{name: "two B", items: []Item{b, b}, total: 4000, net: 3500, discount: 500},
		{name: "five B keeps remainder", items: []Item{b, b, b, b, b}, total: 10000, net: 9000, discount: 1000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			basket := NewBasket(DefaultPipeline())
			for _, it := range tc.items {
				basket.AddItem(it)
			}
			if got := basket.TotalPrice(); got != tc.total {
				t.Fatalf("expected total %d, got %d", tc.total, got)
			}
			if got := basket.NetPrice(); got != tc.net {
				t.Fatalf("expected net %d, got %d", tc.net, got)
			}
			if got := basket.Discount(); got != tc.discount {
				t.Fatalf("expected discount %d, got %d", tc.discount, got)
			}
		})
	}
}

func TestGetItemCaseInsensitive(t *testing.T) {
	b := NewBasket(nil)
	b.AddItem(Item{SKU: "a", Price: 3000}).AddItem(Item{SKU: "A", Price: 3100})

	item, count := b.GetItem("A")
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
	if item.SKU != "a" || item.Price != 3000 {
		t.Fatalf("expected first item to represent the SKU, got %+v", item)
	}

	missing, n := b.GetItem("Z")
	if n != 0 || missing != (Item{}) {
		t.Fatalf("expected absent item, got %+v x%d", missing, n)
	}
	if _, _, ok := b.Lookup("z"); ok {
		t.Fatal("expected lookup miss")
	}
}

func TestSKUPaddingIsSignificant(t *testing.T) {
	b := NewBasket(DefaultPipeline())
	b.AddItem(Item{SKU: "A", Price: 3000}).
		AddItem(Item{SKU: " A", Price: 3000}).
		AddItem(Item{SKU: "A ", Price: 3000})

	for _, sku := range []string{"A", "a", " A", "a "} {
		if _, count := b.GetItem(sku); count != 1 {
			t.Fatalf("expected %q to match exactly one item, got %d", sku, count)
		}
	}
	if _, _, ok := b.Lookup(" a "); ok {
		t.Fatal("expected no match for a differently padded SKU")
	}
	if b.NetPrice() != 9000 || b.Discount() != 0 {
		t.Fatalf("padded SKUs must not complete a bundle, got %s", b)
	}
	if NormalizeSKU(" Ab ") != " ab " {
		t.Fatalf("unexpected key %q", NormalizeSKU(" Ab "))
	}
}

func TestTotalMatchesEntries(t *testing.T) {
	b := NewBasket(nil)
	items := []Item{{SKU: "A", Price: 3000}, {SKU: "b", Price: 2000}, {SKU: "A", Price: 3000}}
	var sum Money
	for _, it := range items {
		b.AddItem(it)
		sum += it.Price
		if b.TotalPrice() != sum {
			t.Fatalf("expected total %d, got %d", sum, b.TotalPrice())
		}
	}
	if b.Len() != 3 || len(b.Items()) != 3 {
		t.Fatalf("expected 3 entries, got %d", b.Len())
	}
	if b.NetPrice() != sum {
		t.Fatalf("nil pipeline must not discount, got %d", b.NetPrice())
	}
}

type countingRule struct {
	calls *int
	delta Money
}

func (r countingRule) Name() string { return "counting" }

func (r countingRule) Apply(_ *Basket, current Money) (Money, bool) {
	*r.calls++
	return current - r.delta, false
}

func TestNetPriceMemoizedUntilAdd(t *testing.T) {
	calls := 0
	b := NewBasket(NewPipeline(countingRule{calls: &calls}))
	b.AddItem(Item{SKU: "A", Price: 100})

	for i := 0; i < 3; i++ {
		if b.NetPrice() != 100 || b.Discount() != 0 {
			t.Fatalf("unexpected figures %s", b)
		}
	}
	if calls != 1 {
		t.Fatalf("expected a single evaluation for a zero discount, got %d", calls)
	}

	b.AddItem(Item{SKU: "B", Price: 50})
	if b.NetPrice() != 150 {
		t.Fatalf("expected recomputed net 150, got %d", b.NetPrice())
	}
	if calls != 2 {
		t.Fatalf("expected recomputation after add, got %d calls", calls)
	}
}

func TestEvaluateFillsMemo(t *testing.T) {
	calls := 0
	b := NewBasket(NewPipeline(countingRule{calls: &calls, delta: 30}))
	b.AddItem(Item{SKU: "A", Price: 100})

	eval := b.Evaluate()
	if eval.Net != 70 || len(eval.Steps) != 1 {
		t.Fatalf("unexpected evaluation %+v", eval)
	}
	if got := b.String(); got != "Total price: JPY 100, Discount: JPY 30, Net price: JPY 70" {
		t.Fatalf("unexpected describe %q", got)
	}
	if b.NetPrice() != 70 || b.Discount() != 30 {
		t.Fatalf("unexpected figures %s", b)
	}
	if calls != 1 {
		t.Fatalf("expected one pipeline run, got %d", calls)
	}

	empty := NewBasket(nil).AddItem(Item{SKU: "B", Price: 40})
	if got := empty.Evaluate(); got.Net != 40 || got.Steps != nil {
		t.Fatalf("nil pipeline evaluation %+v", got)
	}
}

func TestRejectedCandidateIgnoresStop(t *testing.T) {
	raise := NewRuleFunc("raise", func(_ *Basket, current Money) (Money, bool) {
		return current + 100, true
	})
	cut := NewRuleFunc("cut", func(_ *Basket, current Money) (Money, bool) {
		return current - 10, false
	})
	b := NewBasket(NewPipeline(raise, cut)).AddItem(Item{SKU: "A", Price: 1000})

	eval := b.Pipeline().Evaluate(b)
	if eval.Net != 990 {
		t.Fatalf("expected net 990, got %d", eval.Net)
	}
	if eval.Stopped {
		t.Fatal("rejected rule must not stop evaluation")
	}
	if len(eval.Steps) != 2 || eval.Steps[0].Accepted || !eval.Steps[1].Accepted {
		t.Fatalf("unexpected steps %+v", eval.Steps)
	}
	if b.NetPrice() != eval.Net {
		t.Fatalf("basket and evaluation disagree: %d vs %d", b.NetPrice(), eval.Net)
	}
}

func TestStopSkipsLaterRules(t *testing.T) {
	calls := 0
	p := DefaultPipeline().With(countingRule{calls: &calls, delta: 1})
	b := repeat(NewBasket(p), Item{SKU: "C", Price: 5000}, 4)

	if b.NetPrice() != 18000 {
		t.Fatalf("expected net 18000, got %d", b.NetPrice())
	}
	if calls != 0 {
		t.Fatalf("rule after threshold must not run, got %d calls", calls)
	}

	small := repeat(NewBasket(p), Item{SKU: "C", Price: 5000}, 2)
	if small.NetPrice() != 9999 {
		t.Fatalf("expected trailing rule to apply below threshold, got %d", small.NetPrice())
	}
}

func TestPipelineRulesOrder(t *testing.T) {
	p := DefaultPipeline()
	names := p.Rules()
	want := []string{"bundle-of-3-A", "bundle-of-2-B", "threshold-15000"}
	if len(names) != len(want) {
		t.Fatalf("expected %d rules, got %v", len(want), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("rule %d: expected %s, got %s", i, want[i], names[i])
		}
	}
	extended := p.With(ThresholdRule{Over: 1, Amount: 1})
	if extended.Len() != 4 || p.Len() != 3 {
		t.Fatalf("With must not mutate the receiver: %d/%d", extended.Len(), p.Len())
	}
}

func TestBasketString(t *testing.T) {
	b := repeat(NewBasket(DefaultPipeline()), Item{SKU: "A", Price: 3000}, 3)
	want := "Total price: JPY 9000, Discount: JPY 1500, Net price: JPY 7500"
	if got := b.String(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
