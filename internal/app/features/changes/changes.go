// Package changes streams document change events to admin clients over
// Server-Sent Events.
//
//	GET /api/changes                     - every collection (admin)
//	GET /api/changes?collection=projects - one collection (admin)
//
// Each event is one SSE message whose data is the JSON-encoded change.
// A comment line goes out periodically so idle connections stay open
// through proxies.
package changes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/app/system/events"
	"github.com/dalemusser/stratasite/internal/app/system/normalize"
)

// keepAliveInterval is how often a comment line is written to an idle
// stream.
const keepAliveInterval = 30 * time.Second

// Handler streams bus events to connected clients.
type Handler struct {
	bus       *events.Bus
	logger    *zap.Logger
	keepAlive time.Duration
}

// NewHandler creates a change stream handler on the given bus.
func NewHandler(bus *events.Bus, logger *zap.Logger) *Handler {
	return &Handler{
		bus:       bus,
		logger:    logger,
		keepAlive: keepAliveInterval,
	}
}

// Routes returns a router with the change stream endpoint. The stream is
// admin-only.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Group(func(ar chi.Router) {
		ar.Use(sessionMgr.RequireAdmin)
		ar.Get("/", h.StreamHandler)
	})
	return r
}

// StreamHandler subscribes to the bus and writes events until the client
// disconnects.
func (h *Handler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	collection := normalize.QueryParam(r.URL.Query().Get("collection"))
	ch, cancel := h.bus.Subscribe(collection)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	var adminEmail string
	if admin, ok := auth.CurrentAdmin(r); ok {
		adminEmail = admin.Email
	}
	h.logger.Debug("change stream opened",
		zap.String("admin", adminEmail),
		zap.String("collection", collection))

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("change stream closed", zap.String("admin", adminEmail))
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case event, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Warn("failed to encode change event", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
