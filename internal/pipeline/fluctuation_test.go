package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBoundsFluctuation(t *testing.T) {
	prices := newFakePriceStore()
	prices.seed(1, 1, "Maize", "Gaborone", decimal.RequireFromString("10.00"))
	g := NewFluctuationGenerator(prices)

	lower := decimal.RequireFromString("9.70")
	upper := decimal.RequireFromString("10.30")

	for i := 0; i < 1000; i++ {
		rows, err := g.Generate(context.Background())
		require.NoError(t, err)
		require.Len(t, rows, 1)

		p := rows[0].Price
		assert.True(t, p.GreaterThanOrEqual(lower) && p.LessThanOrEqual(upper),
			"draw %d out of bounds: %s", i, p)
		assert.True(t, p.Equal(p.Round(2)), "draw %d not rounded: %s", i, p)
	}
}

func TestGenerateCarriesOldPriceAndNames(t *testing.T) {
	prices := newFakePriceStore()
	prices.seed(1, 2, "Maize", "Francistown", decimal.RequireFromString("12.50"))
	g := NewFluctuationGenerator(prices)
	g.randPct = func() float64 { return -0.02 }

	rows, err := g.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, int64(1), row.CropID)
	assert.Equal(t, int64(2), row.RegionID)
	assert.Equal(t, "Maize", row.CropName)
	assert.Equal(t, "Francistown", row.RegionName)
	assert.True(t, row.Price.Equal(decimal.RequireFromString("12.25")), "got %s", row.Price)
	require.NotNil(t, row.OldPrice)
	assert.True(t, row.OldPrice.Equal(decimal.RequireFromString("12.50")))
}

func TestGenerateEmptyStore(t *testing.T) {
	g := NewFluctuationGenerator(newFakePriceStore())

	rows, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGeneratePropagatesListError(t *testing.T) {
	prices := newFakePriceStore()
	prices.listErr = errors.New("connection reset")
	g := NewFluctuationGenerator(prices)

	_, err := g.Generate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
