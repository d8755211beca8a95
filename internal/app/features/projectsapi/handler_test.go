package projectsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	"github.com/dalemusser/stratasite/internal/app/store/docstore"
	projectstore "github.com/dalemusser/stratasite/internal/app/store/projects"
	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/app/system/images"
	"github.com/dalemusser/stratasite/internal/app/system/querycache"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/testutil"
)

const testSessionKey = "0123456789abcdef0123456789abcdef"

type fakeUploader struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeUploader) Upload(ctx context.Context, up *images.PendingUpload) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return "https://cdn.test/" + up.Filename, nil
}

type fixture struct {
	docs     *testutil.MemDocStore
	uploader *fakeUploader
	handler  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	docs := testutil.NewMemDocStore(nil)
	up := &fakeUploader{}
	store := projectstore.New(docs, querycache.New(), up, zap.NewNop())
	sm, err := auth.NewSessionManager(testSessionKey, "", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}
	h := NewHandler(store, errorsfeature.NewErrorLogger(zap.NewNop()), zap.NewNop())
	return &fixture{docs: docs, uploader: up, handler: Routes(h, sm)}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) doAdmin(req *http.Request) *httptest.ResponseRecorder {
	return f.do(testutil.WithAdmin(req, testutil.Admin()))
}

// multipartBody builds a save request body. Fields map to form values,
// files map part names to lists of filenames.
func multipartBody(t *testing.T, fields map[string]string, files map[string][]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	for name, filenames := range files {
		for _, filename := range filenames {
			fw, err := mw.CreateFormFile(name, filename)
			if err != nil {
				t.Fatalf("create file part %s: %v", name, err)
			}
			fmt.Fprint(fw, "fake image bytes")
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func decodeProject(t *testing.T, rec *httptest.ResponseRecorder) models.Project {
	t.Helper()
	var project models.Project
	if err := json.Unmarshal(rec.Body.Bytes(), &project); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return project
}

func TestList_EmptyReturnsArray(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want empty array", body)
	}
}

func TestGet_MissingReturns404(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGet_ReturnsProject(t *testing.T) {
	f := newFixture(t)
	f.docs.Seed(projectstore.Collection, "p1", docstore.Document{"title": "Deck Build"})

	rec := f.do(httptest.NewRequest(http.MethodGet, "/p1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	project := decodeProject(t, rec)
	if project.ID != "p1" || project.Title != "Deck Build" {
		t.Errorf("project = %+v", project)
	}
}

func TestSave_RequiresAdmin(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPut, "/p1", strings.NewReader(`{"title":"X"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := f.do(req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if f.docs.Len(projectstore.Collection) != 0 {
		t.Error("nothing should be written without an admin session")
	}
}

func TestSave_JSONBody(t *testing.T) {
	f := newFixture(t)

	body := `{"title":"Kitchen Remodel","category":"Residential","gallery":[{"url":"https://cdn.test/old.jpg","caption":"before"}]}`
	req := httptest.NewRequest(http.MethodPut, "/p1", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := f.doAdmin(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	project := decodeProject(t, rec)
	if project.ID != "p1" || project.Title != "Kitchen Remodel" {
		t.Errorf("project = %+v", project)
	}
	if len(project.Gallery) != 1 || project.Gallery[0].URL != "https://cdn.test/old.jpg" {
		t.Errorf("gallery = %+v", project.Gallery)
	}
	if f.uploader.calls != 0 {
		t.Errorf("uploader calls = %d, want 0", f.uploader.calls)
	}
}

func TestSave_NewSentinelGeneratesID(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPut, "/"+models.NewRecordID, strings.NewReader(`{"title":"Fresh"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := f.doAdmin(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	project := decodeProject(t, rec)
	if project.ID == "" || project.ID == models.NewRecordID {
		t.Errorf("id = %q, want a generated id", project.ID)
	}
}

func TestSave_MultipartUploadsMainImage(t *testing.T) {
	f := newFixture(t)

	body, contentType := multipartBody(t,
		map[string]string{"project": `{"title":"Patio"}`},
		map[string][]string{"image": {"main.jpg"}})
	req := httptest.NewRequest(http.MethodPut, "/p1", body)
	req.Header.Set("Content-Type", contentType)
	rec := f.doAdmin(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	project := decodeProject(t, rec)
	if project.ImageURL != "https://cdn.test/main.jpg" {
		t.Errorf("imageUrl = %q", project.ImageURL)
	}
	if f.uploader.calls != 1 {
		t.Errorf("uploader calls = %d, want 1", f.uploader.calls)
	}
}

func TestSave_MultipartGalleryFiles(t *testing.T) {
	f := newFixture(t)

	body, contentType := multipartBody(t,
		map[string]string{
			"project": `{"title":"Fence"}`,
			"gallery": `[{"url":"https://cdn.test/keep.jpg","caption":"kept"},{"caption":"new shot"}]`,
		},
		map[string][]string{"galleryFiles": {"g1.jpg"}})
	req := httptest.NewRequest(http.MethodPut, "/p1", body)
	req.Header.Set("Content-Type", contentType)
	rec := f.doAdmin(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	project := decodeProject(t, rec)
	want := []models.GalleryImage{
		{URL: "https://cdn.test/keep.jpg", Caption: "kept"},
		{URL: "https://cdn.test/g1.jpg", Caption: "new shot"},
	}
	if len(project.Gallery) != 2 || project.Gallery[0] != want[0] || project.Gallery[1] != want[1] {
		t.Errorf("gallery = %+v, want %+v", project.Gallery, want)
	}
}

func TestSave_GalleryEntryWithoutFileFails(t *testing.T) {
	f := newFixture(t)

	body, contentType := multipartBody(t,
		map[string]string{
			"project": `{"title":"Fence"}`,
			"gallery": `[{"caption":"missing file"}]`,
		}, nil)
	req := httptest.NewRequest(http.MethodPut, "/p1", body)
	req.Header.Set("Content-Type", contentType)
	rec := f.doAdmin(req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if f.docs.Len(projectstore.Collection) != 0 {
		t.Error("no project should be written when the gallery is incomplete")
	}
}

func TestSave_MissingProjectFieldFails(t *testing.T) {
	f := newFixture(t)

	body, contentType := multipartBody(t, map[string]string{}, nil)
	req := httptest.NewRequest(http.MethodPut, "/p1", body)
	req.Header.Set("Content-Type", contentType)
	rec := f.doAdmin(req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSave_SanitizesRichText(t *testing.T) {
	f := newFixture(t)

	body := `{"title":"Deck","details":"<p>Solid work</p><script>alert(1)</script>"}`
	req := httptest.NewRequest(http.MethodPut, "/p1", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := f.doAdmin(req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	project := decodeProject(t, rec)
	if strings.Contains(project.Details, "<script>") {
		t.Errorf("details = %q, script tags should be removed", project.Details)
	}
	if !strings.Contains(project.Details, "<p>Solid work</p>") {
		t.Errorf("details = %q, safe markup should survive", project.Details)
	}
}

func TestDelete_RemovesProject(t *testing.T) {
	f := newFixture(t)
	f.docs.Seed(projectstore.Collection, "p1", docstore.Document{"title": "Old"})

	req := httptest.NewRequest(http.MethodDelete, "/p1", nil)
	rec := f.doAdmin(req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if f.docs.Stored(projectstore.Collection, "p1") != nil {
		t.Error("project should be removed")
	}
}
