package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/platform/httpx"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/services"
)

// TrackingHandlers serves the public tracking lookup. No authentication; the
// tracking number is the capability.
type TrackingHandlers struct {
	tracking services.TrackingService
}

// NewTrackingHandlers constructs a new TrackingHandlers instance.
func NewTrackingHandlers(tracking services.TrackingService) *TrackingHandlers {
	return &TrackingHandlers{tracking: tracking}
}

// Routes registers the /tracking endpoints.
func (h *TrackingHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/{trackingNumber}", h.trackByNumber)
}

func (h *TrackingHandlers) trackByNumber(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.tracking == nil {
		httpx.WriteError(ctx, w, httpx.NewError("tracking_service_unavailable", "tracking service unavailable", http.StatusServiceUnavailable))
		return
	}

	trackingNumber := strings.TrimSpace(chi.URLParam(r, "trackingNumber"))
	view, err := h.tracking.TrackByNumber(ctx, trackingNumber)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildTrackingPayload(view))
}
