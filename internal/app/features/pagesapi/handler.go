// Package pagesapi provides the JSON endpoints for site pages.
//
// Endpoints:
//   - GET /api/pages - list all pages (public)
//   - GET /api/pages/{id} - fetch one page (public)
//   - PUT /api/pages/{id} - save a page (admin)
//   - DELETE /api/pages/{id} - delete a page (admin)
package pagesapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	pagestore "github.com/dalemusser/stratasite/internal/app/store/pages"
	"github.com/dalemusser/stratasite/internal/app/store/docstore"
	"github.com/dalemusser/stratasite/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/domain/models"
)

// Handler handles page API requests.
type Handler struct {
	pages  *pagestore.Store
	errLog *errorsfeature.ErrorLogger
	logger *zap.Logger
}

// NewHandler creates a new pagesapi handler.
func NewHandler(pages *pagestore.Store, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		pages:  pages,
		errLog: errLog,
		logger: logger,
	}
}

// ListHandler handles GET /api/pages.
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	pages, err := h.pages.GetAll(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to list pages", err)
		jsonutil.InternalError(w, "failed to load pages")
		return
	}
	if pages == nil {
		pages = []models.Page{}
	}
	jsonutil.OK(w, pages)
}

// GetHandler handles GET /api/pages/{id}.
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	page, err := h.pages.GetByID(r.Context(), id)
	if err != nil {
		h.errLog.Log(r, "failed to load page", err)
		jsonutil.InternalError(w, "failed to load page")
		return
	}
	if page == nil {
		jsonutil.NotFound(w, "page not found")
		return
	}
	jsonutil.OK(w, page)
}

// SaveHandler handles PUT /api/pages/{id}. The request body is the page
// document as edited; missing SEO fields are filled with defaults and the
// rich text content is sanitized before storage.
func (h *Handler) SaveHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || id == models.NewRecordID {
		jsonutil.BadRequest(w, "a page id is required")
		return
	}

	var doc docstore.Document
	if err := jsonutil.Decode(r, &doc); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	page := models.NormalizePage(doc)
	page.ID = id
	page.Content = htmlsanitize.Sanitize(page.Content)

	if _, err := h.pages.Save(r.Context(), page); err != nil {
		h.errLog.Log(r, "failed to save page", err)
		jsonutil.InternalError(w, "failed to save page")
		return
	}

	h.logger.Info("page saved", zap.String("page_id", id))

	saved, err := h.pages.GetByID(r.Context(), id)
	if err != nil || saved == nil {
		// The write succeeded; fall back to what we stored.
		jsonutil.OK(w, page)
		return
	}
	jsonutil.OK(w, saved)
}

// DeleteHandler handles DELETE /api/pages/{id}.
func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.pages.Delete(r.Context(), id); err != nil {
		h.errLog.Log(r, "failed to delete page", err)
		jsonutil.InternalError(w, "failed to delete page")
		return
	}

	h.logger.Info("page deleted", zap.String("page_id", id))
	jsonutil.NoContent(w)
}
