// Package cache provides the canonical cache-key derivation shared by every
// price-cache backend.
package cache

import (
	"strconv"
	"strings"

	"github.com/dondie52/agriconnect/internal/domain"
)

// Key canonicalizes a price filter into a deterministic cache key. Fields are
// emitted in a fixed order and absent fields are omitted, so the same filters
// always produce the same key and distinct filter sets never collide. An
// empty filter maps to "all". Name filters are lower-cased to match the
// case-insensitive read path.
func Key(f domain.PriceFilter) string {
	if f.IsZero() {
		return "all"
	}

	var parts []string
	if f.Crop != "" {
		parts = append(parts, "crop="+strings.ToLower(f.Crop))
	}
	if f.CropID != 0 {
		parts = append(parts, "crop_id="+strconv.FormatInt(f.CropID, 10))
	}
	if f.Region != "" {
		parts = append(parts, "region="+strings.ToLower(f.Region))
	}
	if f.RegionID != 0 {
		parts = append(parts, "region_id="+strconv.FormatInt(f.RegionID, 10))
	}
	return strings.Join(parts, "&")
}
