// Package bookingapi serves the booking settings JSON API:
//
//	GET /api/booking - current booking settings (public)
//	PUT /api/booking - replace the settings (admin)
package bookingapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	bookingstore "github.com/dalemusser/stratasite/internal/app/store/booking"
	"github.com/dalemusser/stratasite/internal/app/store/docstore"
	"github.com/dalemusser/stratasite/internal/app/system/apicors"
	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/domain/models"
)

// Handler serves the booking settings endpoints.
type Handler struct {
	booking *bookingstore.Store
	errLog  *errorsfeature.ErrorLogger
	logger  *zap.Logger
}

// NewHandler creates a booking API handler.
func NewHandler(booking *bookingstore.Store, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		booking: booking,
		errLog:  errLog,
		logger:  logger,
	}
}

// Routes returns a router with the booking endpoints. The read is public
// with permissive CORS; the write requires an admin session.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(apicors.Middleware())
		pr.Get("/", h.GetHandler)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(sessionMgr.RequireAdmin)
		ar.Put("/", h.SaveHandler)
	})

	return r
}

// GetHandler returns the current booking settings, defaults included.
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := h.booking.Get(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to load booking settings", err)
		jsonutil.InternalError(w, "failed to load booking settings")
		return
	}
	jsonutil.OK(w, settings)
}

// SaveHandler replaces the booking settings. The body is normalized the
// same way stored documents are, so partial bodies get the defaults.
func (h *Handler) SaveHandler(w http.ResponseWriter, r *http.Request) {
	var doc docstore.Document
	if err := jsonutil.Decode(r, &doc); err != nil {
		jsonutil.BadRequest(w, "invalid booking settings body")
		return
	}
	settings := models.NormalizeBookingSettings(doc)

	if err := h.booking.Save(r.Context(), settings); err != nil {
		h.errLog.Log(r, "failed to save booking settings", err)
		jsonutil.InternalError(w, "failed to save booking settings")
		return
	}

	h.logger.Info("booking settings saved", zap.Bool("enabled", settings.Enabled))
	jsonutil.OK(w, settings)
}
