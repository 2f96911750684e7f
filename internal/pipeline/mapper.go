// Package pipeline contains the market-price synchronization subsystem: the
// external-feed mapper, the fallback fluctuation generator, the sync
// orchestrator, the alert dispatcher, the scheduler, and the price-history
// archiver.
package pipeline

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dondie52/agriconnect/internal/domain"
	"github.com/dondie52/agriconnect/internal/platform/amis"
)

// commodityVocabulary maps substrings of external commodity labels onto
// internal crop names. Matching is case-insensitive; the first entry whose
// substring occurs in the label wins. Order matters for overlapping terms.
var commodityVocabulary = []struct {
	substring string
	crop      string
}{
	{"maize", "Maize"},
	{"corn", "Maize"},
	{"sorghum", "Sorghum"},
	{"millet", "Millet"},
	{"cowpea", "Cowpeas"},
	{"bean", "Cowpeas"},
	{"groundnut", "Groundnuts"},
	{"peanut", "Groundnuts"},
	{"sunflower", "Sunflower"},
	{"cabbage", "Cabbage"},
	{"tomato", "Tomatoes"},
	{"onion", "Onions"},
	{"potato", "Potatoes"},
	{"watermelon", "Watermelon"},
	{"spinach", "Spinach"},
	{"rape", "Spinach"},
	{"beef", "Beef"},
	{"cattle", "Beef"},
	{"goat", "Goat Meat"},
	{"chicken", "Chicken"},
	{"poultry", "Chicken"},
}

// marketVocabulary maps substrings of external market labels onto internal
// region names. Unmatched markets fall back to the configured default region
// rather than being dropped.
var marketVocabulary = []struct {
	substring string
	region    string
}{
	{"gaborone", "Gaborone"},
	{"francistown", "Francistown"},
	{"maun", "Maun"},
	{"serowe", "Serowe"},
	{"palapye", "Palapye"},
	{"lobatse", "Lobatse"},
	{"kasane", "Kasane"},
	{"ghanzi", "Ghanzi"},
	{"tsabong", "Tsabong"},
	{"molepolole", "Molepolole"},
}

// Mapper translates external feed rows into internal price rows using
// crop/region name indices loaded at the start of each sync run.
type Mapper struct {
	fallbackRegion string
}

// NewMapper creates a Mapper whose unmatched markets resolve to
// fallbackRegion (typically the capital).
func NewMapper(fallbackRegion string) *Mapper {
	return &Mapper{fallbackRegion: fallbackRegion}
}

// Map converts external rows into price rows. Indices are keyed by
// lower-cased name. Rows whose commodity has no vocabulary match, whose
// mapped crop is unknown to the index, or whose price does not parse are
// dropped silently; rows whose market is unmatched get the fallback region.
// Rows keep no OldPrice: the orchestrator looks the prior price up.
func (m *Mapper) Map(rows []amis.ExternalPrice, cropIndex, regionIndex map[string]int64) []domain.PriceRow {
	out := make([]domain.PriceRow, 0, len(rows))
	for _, row := range rows {
		cropName, ok := matchCommodity(row.Commodity)
		if !ok {
			continue
		}
		cropID, ok := cropIndex[strings.ToLower(cropName)]
		if !ok {
			continue
		}

		regionName := matchMarket(row.Market, m.fallbackRegion)
		regionID, ok := regionIndex[strings.ToLower(regionName)]
		if !ok {
			continue
		}

		price, err := decimal.NewFromString(strings.TrimSpace(row.Price))
		if err != nil {
			continue
		}

		unit := row.Unit
		if unit == "" {
			unit = "kg"
		}

		out = append(out, domain.PriceRow{
			CropID:     cropID,
			RegionID:   regionID,
			Price:      price.Round(2),
			Unit:       unit,
			CropName:   cropName,
			RegionName: regionName,
		})
	}
	return out
}

func matchCommodity(label string) (string, bool) {
	lower := strings.ToLower(label)
	for _, v := range commodityVocabulary {
		if strings.Contains(lower, v.substring) {
			return v.crop, true
		}
	}
	return "", false
}

func matchMarket(label, fallback string) string {
	lower := strings.ToLower(label)
	for _, v := range marketVocabulary {
		if strings.Contains(lower, v.substring) {
			return v.region
		}
	}
	return fallback
}
