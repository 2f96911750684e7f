package pipeline

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dondie52/agriconnect/internal/platform/amis"
)

var (
	testCropIndex = map[string]int64{
		"maize":    1,
		"sorghum":  2,
		"tomatoes": 3,
	}
	testRegionIndex = map[string]int64{
		"gaborone":    1,
		"francistown": 2,
	}
)

func TestMapResolvesKnownCommodities(t *testing.T) {
	m := NewMapper("Gaborone")

	rows := m.Map([]amis.ExternalPrice{
		{Commodity: "White Maize Meal", Market: "Gaborone Central", Price: "12.3456", Unit: "kg"},
		{Commodity: "Fresh Tomato", Market: "Francistown Open Market", Price: "8.50", Unit: "crate"},
	}, testCropIndex, testRegionIndex)

	require.Len(t, rows, 2)

	assert.Equal(t, int64(1), rows[0].CropID)
	assert.Equal(t, int64(1), rows[0].RegionID)
	assert.Equal(t, "Maize", rows[0].CropName)
	assert.True(t, rows[0].Price.Equal(decimal.RequireFromString("12.35")), "got %s", rows[0].Price)
	assert.Nil(t, rows[0].OldPrice)

	assert.Equal(t, int64(3), rows[1].CropID)
	assert.Equal(t, int64(2), rows[1].RegionID)
	assert.Equal(t, "crate", rows[1].Unit)
}

func TestMapDropsUnknownCommodity(t *testing.T) {
	m := NewMapper("Gaborone")

	rows := m.Map([]amis.ExternalPrice{
		{Commodity: "Dragonfruit", Market: "Gaborone", Price: "50.00"},
		{Commodity: "Maize", Market: "Gaborone", Price: "10.00"},
	}, testCropIndex, testRegionIndex)

	require.Len(t, rows, 1)
	assert.Equal(t, "Maize", rows[0].CropName)
}

func TestMapDropsCommodityMissingFromIndex(t *testing.T) {
	m := NewMapper("Gaborone")

	// "chicken" is in the vocabulary but absent from this deployment's crops.
	rows := m.Map([]amis.ExternalPrice{
		{Commodity: "Chicken", Market: "Gaborone", Price: "30.00"},
	}, testCropIndex, testRegionIndex)

	assert.Empty(t, rows)
}

func TestMapUnmatchedMarketFallsBack(t *testing.T) {
	m := NewMapper("Gaborone")

	rows := m.Map([]amis.ExternalPrice{
		{Commodity: "Sorghum", Market: "Some Border Post", Price: "6.00"},
	}, testCropIndex, testRegionIndex)

	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].RegionID)
	assert.Equal(t, "Gaborone", rows[0].RegionName)
}

func TestMapDropsUnparseablePrice(t *testing.T) {
	m := NewMapper("Gaborone")

	rows := m.Map([]amis.ExternalPrice{
		{Commodity: "Maize", Market: "Gaborone", Price: "n/a"},
		{Commodity: "Maize", Market: "Gaborone", Price: " 11.00 "},
	}, testCropIndex, testRegionIndex)

	require.Len(t, rows, 1)
	assert.True(t, rows[0].Price.Equal(decimal.RequireFromString("11.00")))
}

func TestMapDefaultsUnit(t *testing.T) {
	m := NewMapper("Gaborone")

	rows := m.Map([]amis.ExternalPrice{
		{Commodity: "Maize", Market: "Gaborone", Price: "10.00"},
	}, testCropIndex, testRegionIndex)

	require.Len(t, rows, 1)
	assert.Equal(t, "kg", rows[0].Unit)
}
