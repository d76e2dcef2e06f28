package register

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/toko-register/internal/catalog"
	"github.com/noah-isme/toko-register/internal/common"
	"github.com/noah-isme/toko-register/internal/obs"
	"github.com/noah-isme/toko-register/internal/pricing"
)

// ErrTooManyItems is returned when a quote exceeds the configured basket size.
var ErrTooManyItems = errors.New("too many items")

// Line is one SKU of a quote with its unit price and quantity.
type Line struct {
	SKU   string        `json:"sku"`
	Price pricing.Money `json:"price"`
	Count int           `json:"count"`
}

// Quote is the priced result of a list of scanned SKUs.
type Quote struct {
	ID       string         `json:"id"`
	Total    pricing.Money  `json:"total"`
	Discount pricing.Money  `json:"discount"`
	Net      pricing.Money  `json:"net"`
	Lines    []Line         `json:"lines"`
	Steps    []pricing.Step `json:"steps"`
	Summary  string         `json:"summary"`
}

// Service prices baskets of catalog items.
type Service struct {
	Catalog  catalog.Catalog
	Pipeline *pricing.Pipeline
	Logger   zerolog.Logger
	Metrics  *obs.PricingMetrics
	MaxItems int
	NewID    func() string
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// Quote resolves skus through the catalog in order and prices the resulting basket.
func (s *Service) Quote(ctx context.Context, skus []string) (Quote, error) {
	if s == nil || s.Catalog == nil {
		return Quote{}, errors.New("register service not configured")
	}
	ctx, span := otel.Tracer("register").Start(ctx, "register.Quote")
	defer span.End()
	span.SetAttributes(attribute.Int("basket.items", len(skus)))

	if s.MaxItems > 0 && len(skus) > s.MaxItems {
		s.Metrics.ObserveFailure("too_many_items")
		err := common.NewAppError("TOO_MANY_ITEMS", fmt.Sprintf("a basket holds at most %d items", s.MaxItems), http.StatusUnprocessableEntity, ErrTooManyItems)
		span.SetStatus(codes.Error, err.Error())
		return Quote{}, err
	}

	basket := pricing.NewBasket(s.Pipeline)
	var order []string
	for _, sku := range skus {
		item, err := s.Catalog.Lookup(ctx, sku)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "lookup failed")
			if errors.Is(err, catalog.ErrUnknownSKU) {
				s.Metrics.ObserveFailure("unknown_sku")
				return Quote{}, common.NewAppError("UNKNOWN_SKU", "unknown sku", http.StatusUnprocessableEntity, err).
					WithDetails(map[string]any{"sku": sku})
			}
			s.Metrics.ObserveFailure("error")
			return Quote{}, fmt.Errorf("lookup %q: %w", sku, err)
		}
		if _, _, seen := basket.Lookup(item.SKU); !seen {
			order = append(order, item.SKU)
		}
		basket.AddItem(item)
	}

	eval := basket.Evaluate()
	s.Metrics.ObserveEvaluation(basket.Len(), eval)

	quote := Quote{
		ID:       s.newID(),
		Total:    eval.Total,
		Discount: eval.Discount(),
		Net:      eval.Net,
		Lines:    make([]Line, 0, len(order)),
		Steps:    eval.Steps,
		Summary:  basket.String(),
	}
	for _, sku := range order {
		item, count := basket.GetItem(sku)
		quote.Lines = append(quote.Lines, Line{SKU: item.SKU, Price: item.Price, Count: count})
	}

	span.SetAttributes(
		attribute.Int64("basket.total", quote.Total),
		attribute.Int64("basket.net", quote.Net),
		attribute.Bool("pricing.stopped", eval.Stopped),
	)
	s.Logger.Info().
		Str("quote_id", quote.ID).
		Int("items", basket.Len()).
		Int64("total", quote.Total).
		Int64("discount", quote.Discount).
		Int64("net", quote.Net).
		Bool("stopped", eval.Stopped).
		Strs("skus", order).
		Msg("basket_priced")
	return quote, nil
}

// Item returns the catalog entry for sku.
func (s *Service) Item(ctx context.Context, sku string) (pricing.Item, error) {
	if s == nil || s.Catalog == nil {
		return pricing.Item{}, errors.New("register service not configured")
	}
	item, err := s.Catalog.Lookup(ctx, sku)
	if err != nil {
		if errors.Is(err, catalog.ErrUnknownSKU) {
			return pricing.Item{}, common.NewAppError("NOT_FOUND", "item not found", http.StatusNotFound, err)
		}
		return pricing.Item{}, err
	}
	return item, nil
}

// Rules lists the active promotion rules in evaluation order.
func (s *Service) Rules() []string {
	if s == nil {
		return nil
	}
	return s.Pipeline.Rules()
}
