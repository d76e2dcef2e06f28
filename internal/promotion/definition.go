package promotion

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/toko-register/internal/pricing"
)

var (
	// ErrInvalidDefinition is returned when a rule definition fails validation.
	ErrInvalidDefinition = errors.New("invalid promotion definition")
	// ErrUnknownKind is returned for a definition kind with no rule builder.
	ErrUnknownKind = errors.New("unknown promotion kind")
)

const (
	// KindBundle prices complete sets of one SKU at a fixed set price.
	KindBundle = "bundle"
	// KindThreshold takes a fixed amount off a running price above a limit.
	KindThreshold = "threshold"
)

// Definition describes one promotion rule as configured.
type Definition struct {
	Name     string `yaml:"name" json:"name"`
	Kind     string `yaml:"kind" json:"kind" validate:"required"`
	SKU      string `yaml:"sku,omitempty" json:"sku,omitempty" validate:"required_if=Kind bundle"`
	SetSize  int    `yaml:"set_size,omitempty" json:"set_size,omitempty" validate:"required_if=Kind bundle,gte=0"`
	SetPrice int64  `yaml:"set_price,omitempty" json:"set_price,omitempty" validate:"gte=0"`
	Over     int64  `yaml:"over,omitempty" json:"over,omitempty" validate:"gte=0"`
	Amount   int64  `yaml:"amount,omitempty" json:"amount,omitempty" validate:"required_if=Kind threshold,gte=0"`
}

type document struct {
	Rules []Definition `yaml:"rules"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Defaults mirrors pricing.DefaultRules as definitions.
func Defaults() []Definition {
	return []Definition{
		{Kind: KindBundle, SKU: "A", SetSize: 3, SetPrice: 7500},
		{Kind: KindBundle, SKU: "B", SetSize: 2, SetPrice: 3500},
		{Kind: KindThreshold, Over: 15000, Amount: 2000},
	}
}

// Parse decodes a YAML document with a top-level rules list.
func Parse(data []byte) ([]Definition, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode promotions: %w", err)
	}
	for i := range doc.Rules {
		doc.Rules[i].Kind = strings.ToLower(strings.TrimSpace(doc.Rules[i].Kind))
		if err := doc.Rules[i].Validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return doc.Rules, nil
}

// LoadFile reads and parses the promotions file at path.
func LoadFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read promotions: %w", err)
	}
	return Parse(data)
}

// Validate checks the definition's fields against its kind.
func (d Definition) Validate() error {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidDefinition, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	switch d.Kind {
	case KindBundle, KindThreshold:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, d.Kind)
	}
}

// Rule converts the definition into a pricing rule.
func (d Definition) Rule() (pricing.Rule, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	switch d.Kind {
	case KindBundle:
		return pricing.BundleRule{Label: d.Name, SKU: d.SKU, SetSize: d.SetSize, SetPrice: d.SetPrice}, nil
	case KindThreshold:
		return pricing.ThresholdRule{Label: d.Name, Over: d.Over, Amount: d.Amount}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, d.Kind)
}

// Build converts definitions into rules, keeping their order.
func Build(defs []Definition) ([]pricing.Rule, error) {
	rules := make([]pricing.Rule, 0, len(defs))
	for i, d := range defs {
		r, err := d.Rule()
		if err != nil {
			name := d.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("promotion %s: %w", name, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// Pipeline builds a pricing pipeline from defs.
func Pipeline(defs []Definition) (*pricing.Pipeline, error) {
	rules, err := Build(defs)
	if err != nil {
		return nil, err
	}
	return pricing.NewPipeline(rules...), nil
}
