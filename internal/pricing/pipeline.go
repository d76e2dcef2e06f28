package pricing

// Rule proposes a new running price for a basket. Returning stop ends the
// evaluation once the proposal is accepted.
type Rule interface {
	Name() string
	Apply(b *Basket, current Money) (candidate Money, stop bool)
}

// RuleFunc adapts a plain function into a named Rule.
type RuleFunc struct {
	name string
	fn   func(b *Basket, current Money) (Money, bool)
}

// NewRuleFunc wraps fn as a Rule called name.
func NewRuleFunc(name string, fn func(b *Basket, current Money) (Money, bool)) RuleFunc {
	return RuleFunc{name: name, fn: fn}
}

// Name implements Rule.
func (r RuleFunc) Name() string { return r.name }

// Apply implements Rule.
func (r RuleFunc) Apply(b *Basket, current Money) (Money, bool) {
	if r.fn == nil {
		return current, false
	}
	return r.fn(b, current)
}

// Step records the outcome of a single rule during evaluation.
type Step struct {
	Rule      string `json:"rule"`
	Before    Money  `json:"before"`
	Candidate Money  `json:"candidate"`
	After     Money  `json:"after"`
	Stop      bool   `json:"stop"`
	Accepted  bool   `json:"accepted"`
}

// Evaluation is the full trace of a pipeline run.
type Evaluation struct {
	Total   Money  `json:"total"`
	Net     Money  `json:"net"`
	Steps   []Step `json:"steps"`
	Stopped bool   `json:"stopped"`
}

// Discount returns Total minus Net.
func (e Evaluation) Discount() Money {
	return e.Total - e.Net
}

// Pipeline applies rules in declaration order. It is immutable once built and
// safe to share between baskets.
type Pipeline struct {
	rules []Rule
}

// NewPipeline builds a pipeline evaluating rules in the given order.
func NewPipeline(rules ...Rule) *Pipeline {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Pipeline{rules: out}
}

// With returns a new pipeline with rules appended after the existing ones.
func (p *Pipeline) With(rules ...Rule) *Pipeline {
	combined := make([]Rule, 0, p.Len()+len(rules))
	if p != nil {
		combined = append(combined, p.rules...)
	}
	combined = append(combined, rules...)
	return NewPipeline(combined...)
}

// Len reports the number of rules.
func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	return len(p.rules)
}

// Rules lists rule names in evaluation order.
func (p *Pipeline) Rules() []string {
	if p == nil {
		return nil
	}
	names := make([]string, len(p.rules))
	for i, r := range p.rules {
		names[i] = r.Name()
	}
	return names
}

// Apply returns the net price of b.
func (p *Pipeline) Apply(b *Basket) Money {
	return p.Evaluate(b).Net
}

// Evaluate folds the rules over the basket total. A candidate above the
// running price is discarded together with its stop signal; an accepted
// candidate replaces the running price and ends evaluation when stop is set.
func (p *Pipeline) Evaluate(b *Basket) Evaluation {
	total := b.TotalPrice()
	eval := Evaluation{Total: total, Net: total}
	if p == nil {
		return eval
	}
	eval.Steps = make([]Step, 0, len(p.rules))
	current := total
	for _, rule := range p.rules {
		candidate, stop := rule.Apply(b, current)
		step := Step{Rule: rule.Name(), Before: current, Candidate: candidate, After: current, Stop: stop}
		if candidate > current {
			eval.Steps = append(eval.Steps, step)
			continue
		}
		current = candidate
		step.After = current
		step.Accepted = true
		eval.Steps = append(eval.Steps, step)
		if stop {
			eval.Stopped = true
			break
		}
	}
	eval.Net = current
	return eval
}
