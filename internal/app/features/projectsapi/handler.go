// Package projectsapi serves the portfolio projects JSON API:
//
//	GET    /api/projects       - list all projects (public)
//	GET    /api/projects/{id}  - fetch one project (public)
//	PUT    /api/projects/{id}  - create or update a project (admin)
//	DELETE /api/projects/{id}  - delete a project (admin)
//
// Saves arrive as multipart form data so new image files can ride along
// with the project document, or as plain JSON when nothing is uploaded.
package projectsapi

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	"github.com/dalemusser/stratasite/internal/app/store/docstore"
	projectstore "github.com/dalemusser/stratasite/internal/app/store/projects"
	"github.com/dalemusser/stratasite/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratasite/internal/app/system/images"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/domain/models"
)

// maxUploadSize caps a whole save request, project JSON and images included.
const maxUploadSize = 32 << 20

// Handler serves the projects API endpoints.
type Handler struct {
	projects *projectstore.Store
	errLog   *errorsfeature.ErrorLogger
	logger   *zap.Logger
}

// NewHandler creates a projects API handler.
func NewHandler(projects *projectstore.Store, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		projects: projects,
		errLog:   errLog,
		logger:   logger,
	}
}

// ListHandler returns every project.
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.GetAll(r.Context())
	if err != nil {
		h.errLog.Log(r, "failed to list projects", err)
		jsonutil.InternalError(w, "failed to load projects")
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	jsonutil.OK(w, projects)
}

// GetHandler returns a single project by id.
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	project, err := h.projects.GetByID(r.Context(), id)
	if err != nil {
		h.errLog.Log(r, "failed to load project", err)
		jsonutil.InternalError(w, "failed to load project")
		return
	}
	if project == nil {
		jsonutil.NotFound(w, "project not found")
		return
	}
	jsonutil.OK(w, project)
}

// galleryEntry is one element of the "gallery" form field. An entry with
// an empty url is a placeholder for the next uploaded gallery file.
type galleryEntry struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

// SaveHandler creates or updates a project. Multipart requests carry the
// project document in a "project" field, an optional replacement main image
// in an "image" file part, and the desired gallery as a "gallery" JSON field
// whose url-less entries consume "galleryFiles" parts in order. A plain JSON
// body saves the document with no new images.
func (h *Handler) SaveHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonutil.BadRequest(w, "project id is required")
		return
	}

	var (
		in  projectstore.SaveInput
		err error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		in, err = h.parseMultipartSave(r)
	} else {
		in, err = h.parseJSONSave(r)
	}
	if err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	in.Project.ID = id
	sanitizeProject(&in.Project)

	saved, err := h.projects.Save(r.Context(), in)
	if err != nil {
		h.errLog.Log(r, "failed to save project", err)
		jsonutil.InternalError(w, "failed to save project")
		return
	}

	h.logger.Info("project saved",
		zap.String("id", saved.ID),
		zap.String("title", saved.Title))
	jsonutil.OK(w, saved)
}

// DeleteHandler removes a project. Unknown ids succeed quietly.
func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.projects.Delete(r.Context(), id); err != nil {
		h.errLog.Log(r, "failed to delete project", err)
		jsonutil.InternalError(w, "failed to delete project")
		return
	}

	h.logger.Info("project deleted", zap.String("id", id))
	jsonutil.NoContent(w)
}

func (h *Handler) parseJSONSave(r *http.Request) (projectstore.SaveInput, error) {
	var doc docstore.Document
	if err := jsonutil.Decode(r, &doc); err != nil {
		return projectstore.SaveInput{}, fmt.Errorf("invalid project body")
	}
	project := models.NormalizeProject(doc, time.Now())

	in := projectstore.SaveInput{Project: project}
	for _, img := range project.Gallery {
		in.Gallery = append(in.Gallery, projectstore.GalleryUpload{
			URL:     img.URL,
			Caption: img.Caption,
		})
	}
	return in, nil
}

func (h *Handler) parseMultipartSave(r *http.Request) (projectstore.SaveInput, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return projectstore.SaveInput{}, fmt.Errorf("request too large or malformed")
	}

	raw := r.FormValue("project")
	if raw == "" {
		return projectstore.SaveInput{}, fmt.Errorf("project field is required")
	}
	var doc docstore.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return projectstore.SaveInput{}, fmt.Errorf("invalid project field")
	}
	in := projectstore.SaveInput{Project: models.NormalizeProject(doc, time.Now())}

	if file, header, err := r.FormFile("image"); err == nil && header.Size > 0 {
		in.NewImage = pendingUpload(file, header)
	}

	gallery, err := h.parseGallery(r, in.Project.Gallery)
	if err != nil {
		return projectstore.SaveInput{}, err
	}
	in.Gallery = gallery
	return in, nil
}

// parseGallery builds the gallery uploads from the "gallery" form field,
// falling back to the project document's own gallery when the field is
// absent. Entries without a url take the next "galleryFiles" part.
func (h *Handler) parseGallery(r *http.Request, existing []models.GalleryImage) ([]projectstore.GalleryUpload, error) {
	raw := r.FormValue("gallery")
	if raw == "" {
		out := make([]projectstore.GalleryUpload, 0, len(existing))
		for _, img := range existing {
			out = append(out, projectstore.GalleryUpload{URL: img.URL, Caption: img.Caption})
		}
		return out, nil
	}

	var entries []galleryEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("invalid gallery field")
	}

	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["galleryFiles"]
	}

	out := make([]projectstore.GalleryUpload, 0, len(entries))
	next := 0
	for i, entry := range entries {
		up := projectstore.GalleryUpload{URL: entry.URL, Caption: entry.Caption}
		if entry.URL == "" {
			if next >= len(files) {
				return nil, fmt.Errorf("gallery entry %d has no url and no uploaded file", i)
			}
			file, err := files[next].Open()
			if err != nil {
				return nil, fmt.Errorf("gallery file %d is unreadable", next)
			}
			up.File = pendingUpload(file, files[next])
			next++
		}
		out = append(out, up)
	}
	return out, nil
}

func pendingUpload(file multipart.File, header *multipart.FileHeader) *images.PendingUpload {
	return &images.PendingUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Data:        file,
	}
}

// sanitizeProject scrubs the rich-text fields before they are stored.
func sanitizeProject(p *models.Project) {
	p.Details = htmlsanitize.Sanitize(p.Details)
	p.ProjectDetails.Challenge = htmlsanitize.Sanitize(p.ProjectDetails.Challenge)
	p.ProjectDetails.Solution = htmlsanitize.Sanitize(p.ProjectDetails.Solution)
	p.ProjectDetails.Outcome = htmlsanitize.Sanitize(p.ProjectDetails.Outcome)
}
