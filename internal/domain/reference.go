// Package domain defines the core types, store and cache interfaces, and
// sentinel errors shared by every layer of the AgriConnect backend.
package domain

// Crop is immutable reference data describing a tradeable crop. External
// commodity labels are mapped onto crops by name.
type Crop struct {
	ID       int64
	Name     string
	Category string
}

// Region is immutable reference data describing a market region. Coordinates
// are optional and only carried for map display.
type Region struct {
	ID        int64
	Name      string
	Latitude  *float64
	Longitude *float64
}
