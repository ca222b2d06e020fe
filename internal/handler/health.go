package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/exitravels/backoffice/internal/dashboard"
	"github.com/exitravels/backoffice/internal/model"
)

const healthPingTimeout = 2 * time.Second

type healthResponse struct {
	Status   string                                   `json:"status"` // ok | degraded | unhealthy
	Database string                                   `json:"database"`
	Feeds    map[model.Collection]dashboard.FeedState `json:"feeds,omitempty"`
}

// Health reports the database and the live feeds. A failed feed is never
// resubscribed, so it makes the instance unhealthy until restarted.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "ok"}

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		resp.Status = "unhealthy"
		resp.Database = err.Error()
	}

	if h.feeds != nil {
		resp.Feeds = h.feeds.Feeds()
		for _, s := range resp.Feeds {
			if s == dashboard.FeedFailed && resp.Status == "ok" {
				resp.Status = "degraded"
			}
		}
	}

	code := http.StatusOK
	if resp.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}
