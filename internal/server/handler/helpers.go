package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dondie52/agriconnect/internal/domain"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parsePriceFilter extracts the optional crop/region filters from the query
// string. Non-numeric IDs are treated as absent.
func parsePriceFilter(r *http.Request) domain.PriceFilter {
	q := r.URL.Query()

	filter := domain.PriceFilter{
		Crop:   q.Get("crop"),
		Region: q.Get("region"),
	}
	if v := q.Get("crop_id"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			filter.CropID = n
		}
	}
	if v := q.Get("region_id"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			filter.RegionID = n
		}
	}
	return filter
}
