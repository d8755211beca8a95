// internal/app/store/booking/bookingstore.go
package bookingstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/stratasite/internal/app/store/docstore"
	"github.com/dalemusser/stratasite/internal/app/system/querycache"
	"github.com/dalemusser/stratasite/internal/domain/models"
)

// Collection holds the single booking settings document.
const Collection = "booking_settings"

const cacheKey = "booking"

// Store reads and writes the booking settings singleton.
type Store struct {
	docs  docstore.Store
	cache *querycache.Cache
}

// New creates a booking settings store.
func New(docs docstore.Store, cache *querycache.Cache) *Store {
	return &Store{docs: docs, cache: cache}
}

// Get returns the current settings, or the defaults when none have been
// saved yet.
func (s *Store) Get(ctx context.Context) (models.BookingSettings, error) {
	return querycache.Get(ctx, s.cache, cacheKey, func(ctx context.Context) (models.BookingSettings, error) {
		doc, err := s.docs.Get(ctx, Collection, models.BookingSettingsID)
		if errors.Is(err, docstore.ErrNotFound) {
			return models.DefaultBookingSettings(), nil
		}
		if err != nil {
			return models.BookingSettings{}, fmt.Errorf("get booking settings: %w", err)
		}
		return models.NormalizeBookingSettings(doc), nil
	})
}

// Save replaces the settings and invalidates the cached copy.
func (s *Store) Save(ctx context.Context, settings models.BookingSettings) error {
	if err := s.docs.Set(ctx, Collection, models.BookingSettingsID, settings.Document()); err != nil {
		return fmt.Errorf("save booking settings: %w", err)
	}

	s.cache.Invalidate(cacheKey)
	return nil
}
