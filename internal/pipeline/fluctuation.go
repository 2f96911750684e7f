package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/dondie52/agriconnect/internal/domain"
)

// maxFluctuationPct bounds the synthetic price movement applied on the
// fallback path: each price moves by a uniform draw in [-3%, +3%].
const maxFluctuationPct = 0.03

// FluctuationGenerator derives a full set of price rows from the currently
// stored prices when the external feed is unavailable, so a scheduled sync
// always has rows to process.
type FluctuationGenerator struct {
	prices domain.PriceStore

	// randPct returns the signed fractional perturbation for one row.
	// Swappable in tests for determinism.
	randPct func() float64
}

// NewFluctuationGenerator creates a generator reading from the given store.
func NewFluctuationGenerator(prices domain.PriceStore) *FluctuationGenerator {
	return &FluctuationGenerator{
		prices: prices,
		randPct: func() float64 {
			return (rand.Float64()*2 - 1) * maxFluctuationPct
		},
	}
}

// Generate reads every stored price and emits a perturbed row for each,
// rounded to 2 decimal places and carrying the prior price and display names
// so the orchestrator needs no further lookups.
func (g *FluctuationGenerator) Generate(ctx context.Context) ([]domain.PriceRow, error) {
	current, err := g.prices.List(ctx, domain.PriceFilter{})
	if err != nil {
		return nil, fmt.Errorf("pipeline: read current prices: %w", err)
	}

	rows := make([]domain.PriceRow, 0, len(current))
	for _, p := range current {
		factor := decimal.NewFromFloat(1 + g.randPct())
		newPrice := p.Price.Price.Mul(factor).Round(2)

		old := p.Price.Price
		rows = append(rows, domain.PriceRow{
			CropID:     p.CropID,
			RegionID:   p.RegionID,
			Price:      newPrice,
			Unit:       p.Unit,
			CropName:   p.CropName,
			RegionName: p.RegionName,
			OldPrice:   &old,
		})
	}
	return rows, nil
}
