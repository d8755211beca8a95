package bookingstore

import (
	"context"
	"testing"

	"github.com/dalemusser/stratasite/internal/app/system/querycache"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/testutil"
)

func TestStore_GetDefaultsWhenUnset(t *testing.T) {
	docs := testutil.NewMemDocStore(nil)
	store := New(docs, querycache.New())
	ctx := context.Background()

	settings, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if settings.Enabled {
		t.Error("Enabled = true, want false by default")
	}
	if settings.SlotMinutes != models.DefaultBookingSlotMinutes {
		t.Errorf("SlotMinutes = %d", settings.SlotMinutes)
	}
}

func TestStore_SaveThenGet(t *testing.T) {
	docs := testutil.NewMemDocStore(nil)
	store := New(docs, querycache.New())
	ctx := context.Background()

	in := models.DefaultBookingSettings()
	in.Enabled = true
	in.EmbedURL = "https://cal.example.com/embed"
	in.OpenWeekdays = []string{"Sat"}

	if err := store.Save(ctx, in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Enabled || got.EmbedURL != in.EmbedURL {
		t.Errorf("Get() = %+v", got)
	}
	if len(got.OpenWeekdays) != 1 || got.OpenWeekdays[0] != "Sat" {
		t.Errorf("OpenWeekdays = %v", got.OpenWeekdays)
	}
}

func TestStore_SaveInvalidatesCache(t *testing.T) {
	docs := testutil.NewMemDocStore(nil)
	store := New(docs, querycache.New())
	ctx := context.Background()

	if _, err := store.Get(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx); err != nil {
		t.Fatal(err)
	}
	if docs.GetCalls != 1 {
		t.Fatalf("gateway Get calls = %d, want 1 (cached)", docs.GetCalls)
	}

	in := models.DefaultBookingSettings()
	in.ContactEmail = "book@example.com"
	if err := store.Save(ctx, in); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.ContactEmail != "book@example.com" {
		t.Errorf("ContactEmail = %q, want fresh read after save", got.ContactEmail)
	}
	if docs.GetCalls != 2 {
		t.Errorf("gateway Get calls = %d, want 2", docs.GetCalls)
	}
}
