package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dondie52/agriconnect/internal/domain"
	"github.com/dondie52/agriconnect/internal/service"
)

// PriceHandler serves the market-price read path.
type PriceHandler struct {
	svc    *service.PriceService
	logger *slog.Logger
}

// NewPriceHandler creates a PriceHandler.
func NewPriceHandler(svc *service.PriceService, logger *slog.Logger) *PriceHandler {
	return &PriceHandler{
		svc:    svc,
		logger: logger.With(slog.String("handler", "prices")),
	}
}

type priceDTO struct {
	CropID        int64   `json:"crop_id"`
	RegionID      int64   `json:"region_id"`
	Crop          string  `json:"crop"`
	Region        string  `json:"region"`
	Price         string  `json:"price"`
	PreviousPrice *string `json:"previous_price"`
	Unit          string  `json:"unit"`
	UpdatedAt     string  `json:"updated_at"`
}

type priceListResponse struct {
	Data     []priceDTO `json:"data"`
	Cached   bool       `json:"cached"`
	CachedAt *string    `json:"cached_at,omitempty"`
	LastSync *string    `json:"last_sync"`
}

// ListPrices responds with prices for the optional crop/region filters,
// served cache-first.
// GET /api/prices?crop=&crop_id=&region=&region_id=
func (h *PriceHandler) ListPrices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := parsePriceFilter(r)

	listing, err := h.svc.GetPrices(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "list prices failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load prices")
		return
	}

	resp := priceListResponse{
		Data:     make([]priceDTO, 0, len(listing.Data)),
		Cached:   listing.Cached,
		CachedAt: formatTime(listing.CachedAt),
		LastSync: formatTime(listing.LastSync),
	}
	for _, p := range listing.Data {
		resp.Data = append(resp.Data, toPriceDTO(p))
	}

	writeJSON(w, http.StatusOK, resp)
}

func toPriceDTO(p domain.PriceWithNames) priceDTO {
	dto := priceDTO{
		CropID:    p.CropID,
		RegionID:  p.RegionID,
		Crop:      p.CropName,
		Region:    p.RegionName,
		Price:     p.Price.Price.StringFixed(2),
		Unit:      p.Unit,
		UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if p.PreviousPrice != nil {
		s := p.PreviousPrice.StringFixed(2)
		dto.PreviousPrice = &s
	}
	return dto
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
