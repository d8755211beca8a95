// internal/app/store/projects/projectstore.go
package projectstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dalemusser/stratasite/internal/app/store/docstore"
	"github.com/dalemusser/stratasite/internal/app/system/images"
	"github.com/dalemusser/stratasite/internal/app/system/querycache"
	"github.com/dalemusser/stratasite/internal/domain/models"
)

// Collection is the gateway collection projects live in.
const Collection = "projects"

const cacheKeyList = "projects"

func cacheKeyProject(id string) string { return "project:" + id }

// Store is the projects facade. Reads go through the query cache; Save
// uploads any pending images first, concurrently, and writes the project
// only when every upload succeeded.
type Store struct {
	docs     docstore.Store
	cache    *querycache.Cache
	uploader images.Uploader
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a projects store.
func New(docs docstore.Store, cache *querycache.Cache, uploader images.Uploader, logger *zap.Logger) *Store {
	return &Store{
		docs:     docs,
		cache:    cache,
		uploader: uploader,
		logger:   logger,
		now:      time.Now,
	}
}

// GalleryUpload is one gallery entry submitted with a save. Either File is
// set (a new image to upload) or URL points at an already-stored image.
type GalleryUpload struct {
	URL     string
	Caption string
	File    *images.PendingUpload
}

// SaveInput carries a project save along with its pending image files.
type SaveInput struct {
	Project  models.Project
	NewImage *images.PendingUpload
	Gallery  []GalleryUpload
}

// GetAll returns every project, normalized. A record that cannot be used is
// dropped with a log line rather than failing the whole listing.
func (s *Store) GetAll(ctx context.Context) ([]models.Project, error) {
	return querycache.Get(ctx, s.cache, cacheKeyList, func(ctx context.Context) ([]models.Project, error) {
		docs, err := s.docs.GetAll(ctx, Collection)
		if err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}

		now := s.now()
		projects := make([]models.Project, 0, len(docs))
		for _, doc := range docs {
			if doc.ID() == "" {
				s.logger.Warn("dropping project record without usable id")
				continue
			}
			projects = append(projects, models.NormalizeProject(doc, now))
		}
		return projects, nil
	})
}

// GetByID returns the project, or nil when it does not exist. An empty id
// or the unsaved-record sentinel returns nil without touching the gateway.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Project, error) {
	if id == "" || id == models.NewRecordID {
		return nil, nil
	}

	return querycache.Get(ctx, s.cache, cacheKeyProject(id), func(ctx context.Context) (*models.Project, error) {
		doc, err := s.docs.Get(ctx, Collection, id)
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("get project %s: %w", id, err)
		}
		project := models.NormalizeProject(doc, s.now())
		return &project, nil
	})
}

// Save stores the project. Pending images (the main image and any gallery
// files) upload concurrently; the first failure cancels the rest and aborts
// the save with no document written. Gallery entries that end up with no
// URL are dropped. The saved project is read back normalized.
func (s *Store) Save(ctx context.Context, in SaveInput) (*models.Project, error) {
	urls := make([]string, len(in.Gallery))
	var mainURL string

	g, gctx := errgroup.WithContext(ctx)
	if in.NewImage != nil {
		g.Go(func() error {
			url, err := s.uploader.Upload(gctx, in.NewImage)
			if err != nil {
				return fmt.Errorf("upload main image: %w", err)
			}
			mainURL = url
			return nil
		})
	}
	for i, entry := range in.Gallery {
		if entry.File == nil {
			urls[i] = entry.URL
			continue
		}
		i, file := i, entry.File
		g.Go(func() error {
			url, err := s.uploader.Upload(gctx, file)
			if err != nil {
				return fmt.Errorf("upload gallery image %d: %w", i, err)
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("save project: %w", err)
	}

	project := in.Project
	if in.NewImage != nil {
		project.Image = mainURL
		project.ImageURL = mainURL
	}
	gallery := make([]models.GalleryImage, 0, len(in.Gallery))
	for i, entry := range in.Gallery {
		if urls[i] == "" {
			continue
		}
		gallery = append(gallery, models.GalleryImage{URL: urls[i], Caption: entry.Caption})
	}
	project.Gallery = gallery

	id := project.ID
	if id == "" || id == models.NewRecordID {
		id = strconv.FormatInt(s.now().UnixMilli(), 10)
	}

	if err := s.docs.Set(ctx, Collection, id, project.Document()); err != nil {
		return nil, fmt.Errorf("save project %s: %w", id, err)
	}

	doc, err := s.docs.Get(ctx, Collection, id)
	if err != nil {
		return nil, fmt.Errorf("project %s saved but not readable: %w", id, err)
	}
	saved := models.NormalizeProject(doc, s.now())

	s.cache.Invalidate(cacheKeyList, cacheKeyProject(id))
	return &saved, nil
}

// Delete removes the project. Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, Collection, id); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}

	s.cache.Invalidate(cacheKeyList, cacheKeyProject(id))
	return nil
}
