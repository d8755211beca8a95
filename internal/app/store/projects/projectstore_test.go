package projectstore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/dalemusser/stratasite/internal/app/store/docstore"
	"github.com/dalemusser/stratasite/internal/app/system/images"
	"github.com/dalemusser/stratasite/internal/app/system/querycache"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/testutil"
)

// fakeUploader returns a URL derived from the filename, or fails for
// filenames listed in failOn.
type fakeUploader struct {
	mu     sync.Mutex
	calls  int
	failOn map[string]bool
}

func (f *fakeUploader) Upload(ctx context.Context, up *images.PendingUpload) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.failOn[up.Filename] {
		return "", errors.New("storage unavailable")
	}
	return "https://cdn.test/" + up.Filename, nil
}

func pending(name string) *images.PendingUpload {
	return &images.PendingUpload{
		Filename:    name,
		ContentType: "image/jpeg",
		Data:        strings.NewReader("fake image bytes"),
	}
}

func newTestStore(t *testing.T) (*Store, *testutil.MemDocStore, *fakeUploader) {
	t.Helper()
	docs := testutil.NewMemDocStore(nil)
	up := &fakeUploader{failOn: map[string]bool{}}
	return New(docs, querycache.New(), up, zap.NewNop()), docs, up
}

func TestStore_SaveUploadsImages(t *testing.T) {
	store, _, up := newTestStore(t)
	ctx := context.Background()

	in := SaveInput{
		Project:  models.Project{ID: "p1", Title: "Deck"},
		NewImage: pending("main.jpg"),
		Gallery: []GalleryUpload{
			{File: pending("g1.jpg"), Caption: "before"},
			{URL: "https://cdn.test/existing.jpg", Caption: "after"},
		},
	}

	saved, err := store.Save(ctx, in)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if up.calls != 2 {
		t.Errorf("uploader calls = %d, want 2", up.calls)
	}
	if saved.Image != "https://cdn.test/main.jpg" || saved.ImageURL != "https://cdn.test/main.jpg" {
		t.Errorf("image = %q / %q", saved.Image, saved.ImageURL)
	}
	wantGallery := []models.GalleryImage{
		{URL: "https://cdn.test/g1.jpg", Caption: "before"},
		{URL: "https://cdn.test/existing.jpg", Caption: "after"},
	}
	if len(saved.Gallery) != 2 || saved.Gallery[0] != wantGallery[0] || saved.Gallery[1] != wantGallery[1] {
		t.Errorf("gallery = %+v, want %+v", saved.Gallery, wantGallery)
	}
}

func TestStore_SaveAbortsOnUploadFailure(t *testing.T) {
	store, docs, up := newTestStore(t)
	ctx := context.Background()
	up.failOn["bad.jpg"] = true

	in := SaveInput{
		Project:  models.Project{ID: "p1", Title: "Deck"},
		NewImage: pending("main.jpg"),
		Gallery:  []GalleryUpload{{File: pending("bad.jpg")}},
	}

	if _, err := store.Save(ctx, in); err == nil {
		t.Fatal("Save() succeeded, want error from failed upload")
	}
	if docs.SetCalls != 0 {
		t.Errorf("Set calls = %d, want 0 after aborted save", docs.SetCalls)
	}
	if docs.Len(Collection) != 0 {
		t.Errorf("collection has %d documents, want none", docs.Len(Collection))
	}
}

func TestStore_SaveGeneratesID(t *testing.T) {
	store, docs, _ := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"", models.NewRecordID} {
		saved, err := store.Save(ctx, SaveInput{Project: models.Project{ID: id, Title: "New build"}})
		if err != nil {
			t.Fatalf("Save() with id %q error = %v", id, err)
		}
		if saved.ID == "" || saved.ID == models.NewRecordID {
			t.Errorf("Save() with id %q returned id %q, want generated", id, saved.ID)
		}
		if docs.Stored(Collection, saved.ID) == nil {
			t.Errorf("no document stored under generated id %q", saved.ID)
		}
	}
}

func TestStore_SaveDropsGalleryEntriesWithoutURL(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	in := SaveInput{
		Project: models.Project{ID: "p1"},
		Gallery: []GalleryUpload{
			{URL: "https://cdn.test/keep.jpg", Caption: "keep"},
			{Caption: "no url, no file"},
		},
	}

	saved, err := store.Save(ctx, in)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if len(saved.Gallery) != 1 || saved.Gallery[0].URL != "https://cdn.test/keep.jpg" {
		t.Errorf("gallery = %+v, want only the entry with a URL", saved.Gallery)
	}
}

func TestStore_SaveReturnsNormalized(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, SaveInput{Project: models.Project{ID: "p1"}})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.Title != models.DefaultProjectTitle {
		t.Errorf("Title = %q, want default from read-back normalization", saved.Title)
	}
	if saved.Category != models.DefaultProjectCategory {
		t.Errorf("Category = %q", saved.Category)
	}
}

func TestStore_SaveInvalidatesCache(t *testing.T) {
	store, docs, _ := newTestStore(t)
	ctx := context.Background()

	docs.Seed(Collection, "p1", docstore.Document{"title": "Old"})
	if _, err := store.GetAll(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Save(ctx, SaveInput{Project: models.Project{ID: "p1", Title: "New"}}); err != nil {
		t.Fatal(err)
	}

	projects, err := store.GetAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 1 || projects[0].Title != "New" {
		t.Errorf("GetAll after save = %+v", projects)
	}
	if docs.GetAllCalls != 2 {
		t.Errorf("GetAll calls = %d, want refetch after invalidation", docs.GetAllCalls)
	}
}

func TestStore_GetByID(t *testing.T) {
	store, docs, _ := newTestStore(t)
	ctx := context.Background()

	docs.Seed(Collection, "p1", docstore.Document{"title": "Deck", "completionDate": "2024-05-01"})

	project, err := store.GetByID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if project == nil || project.Title != "Deck" || project.CompletionDate != "2024-05-01" {
		t.Errorf("project = %+v", project)
	}

	missing, err := store.GetByID(ctx, "missing")
	if err != nil {
		t.Fatalf("GetByID() on missing error = %v", err)
	}
	if missing != nil {
		t.Errorf("GetByID() on missing = %+v, want nil", missing)
	}

	before := docs.GetCalls
	if p, _ := store.GetByID(ctx, models.NewRecordID); p != nil {
		t.Error("GetByID(sentinel) returned a project")
	}
	if docs.GetCalls != before {
		t.Error("GetByID(sentinel) hit the gateway")
	}
}

func TestStore_Delete(t *testing.T) {
	store, docs, _ := newTestStore(t)
	ctx := context.Background()

	docs.Seed(Collection, "p1", docstore.Document{"title": "Deck"})
	docs.Seed(Collection, "p2", docstore.Document{"title": "Roof"})

	if _, err := store.GetAll(ctx); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "p1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	projects, err := store.GetAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 1 || projects[0].ID != "p2" {
		t.Errorf("GetAll after delete = %v", projectIDs(projects))
	}
}

func projectIDs(projects []models.Project) []string {
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	return ids
}
