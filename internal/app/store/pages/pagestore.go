// internal/app/store/pages/pagestore.go
package pagestore

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dalemusser/stratasite/internal/app/store/docstore"
	"github.com/dalemusser/stratasite/internal/app/system/querycache"
	"github.com/dalemusser/stratasite/internal/domain/models"
)

// Collection is the gateway collection pages live in.
const Collection = "pages"

const cacheKeyList = "pages"

func cacheKeyPage(id string) string { return "page:" + id }

// Store is the pages facade: normalized reads through the query cache,
// writes through the document gateway with cache invalidation.
type Store struct {
	docs   docstore.Store
	cache  *querycache.Cache
	logger *zap.Logger
}

// New creates a pages store.
func New(docs docstore.Store, cache *querycache.Cache, logger *zap.Logger) *Store {
	return &Store{docs: docs, cache: cache, logger: logger}
}

// GetAll returns every page, normalized. A record that cannot be used is
// dropped with a log line rather than failing the whole listing.
func (s *Store) GetAll(ctx context.Context) ([]models.Page, error) {
	return querycache.Get(ctx, s.cache, cacheKeyList, func(ctx context.Context) ([]models.Page, error) {
		docs, err := s.docs.GetAll(ctx, Collection)
		if err != nil {
			return nil, fmt.Errorf("list pages: %w", err)
		}

		pages := make([]models.Page, 0, len(docs))
		for _, doc := range docs {
			if doc.ID() == "" {
				s.logger.Warn("dropping page record without usable id")
				continue
			}
			pages = append(pages, models.NormalizePage(doc))
		}
		return pages, nil
	})
}

// GetByID returns the page, or nil when it does not exist. An empty id or
// the unsaved-record sentinel returns nil without touching the gateway.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Page, error) {
	if id == "" || id == models.NewRecordID {
		return nil, nil
	}

	return querycache.Get(ctx, s.cache, cacheKeyPage(id), func(ctx context.Context) (*models.Page, error) {
		doc, err := s.docs.Get(ctx, Collection, id)
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("get page %s: %w", id, err)
		}
		page := models.NormalizePage(doc)
		return &page, nil
	})
}

// Save upserts the page under its id in a single write: a new page is
// inserted, an existing page keeps fields the write does not mention. Both
// the listing and the page's own cache entry are invalidated.
func (s *Store) Save(ctx context.Context, page models.Page) (string, error) {
	id := page.ID
	if id == "" || id == models.NewRecordID {
		return "", errors.New("save page: id is required")
	}

	if err := s.docs.Set(ctx, Collection, id, page.Document()); err != nil {
		return "", fmt.Errorf("save page %s: %w", id, err)
	}

	s.cache.Invalidate(cacheKeyList, cacheKeyPage(id))
	return id, nil
}

// Delete removes the page. Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, Collection, id); err != nil {
		return fmt.Errorf("delete page %s: %w", id, err)
	}

	s.cache.Invalidate(cacheKeyList, cacheKeyPage(id))
	return nil
}
