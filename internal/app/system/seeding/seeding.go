// internal/app/system/seeding/seeding.go
package seeding

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	adminstore "github.com/dalemusser/stratasite/internal/app/store/admins"
	bookingstore "github.com/dalemusser/stratasite/internal/app/store/booking"
	"github.com/dalemusser/stratasite/internal/app/store/docstore"
	pagestore "github.com/dalemusser/stratasite/internal/app/store/pages"
	"github.com/dalemusser/stratasite/internal/app/system/authutil"
	"github.com/dalemusser/stratasite/internal/domain/models"
)

// SeedAll seeds default site content if not already present.
func SeedAll(ctx context.Context, docs docstore.Store, logger *zap.Logger) error {
	if err := seedPages(ctx, docs, logger); err != nil {
		return err
	}
	return seedBookingSettings(ctx, docs, logger)
}

// seedPages creates the default site pages if they don't exist. Page ids
// double as URL slugs on the frontend.
func seedPages(ctx context.Context, docs docstore.Store, logger *zap.Logger) error {
	defaultPages := []models.Page{
		{
			ID:    "home",
			Title: "Home",
			Content: `<h2>Welcome</h2>
<p>This is the home page. An administrator can replace this content from the site editor.</p>`,
		},
		{
			ID:    "about",
			Title: "About",
			Content: `<h2>About Us</h2>
<p>Tell visitors who you are and what you do. An administrator can edit this page.</p>`,
		},
		{
			ID:    "services",
			Title: "Services",
			Content: `<h2>Our Services</h2>
<p>Describe the services you offer. An administrator can edit this page.</p>`,
		},
		{
			ID:    "contact",
			Title: "Contact",
			Content: `<h2>Contact Us</h2>
<p>Add your contact information, address, and hours here.</p>`,
		},
	}

	for _, page := range defaultPages {
		_, err := docs.Get(ctx, pagestore.Collection, page.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("check page %s: %w", page.ID, err)
		}
		normalized := models.NormalizePage(page.Document())
		if err := docs.Set(ctx, pagestore.Collection, page.ID, normalized.Document()); err != nil {
			return fmt.Errorf("seed page %s: %w", page.ID, err)
		}
		logger.Info("seeded default page", zap.String("id", page.ID))
	}

	return nil
}

// seedBookingSettings writes the default booking settings singleton when no
// settings document exists yet.
func seedBookingSettings(ctx context.Context, docs docstore.Store, logger *zap.Logger) error {
	_, err := docs.Get(ctx, bookingstore.Collection, models.BookingSettingsID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("check booking settings: %w", err)
	}

	settings := models.DefaultBookingSettings()
	if err := docs.Set(ctx, bookingstore.Collection, models.BookingSettingsID, settings.Document()); err != nil {
		return fmt.Errorf("seed booking settings: %w", err)
	}
	logger.Info("seeded default booking settings")
	return nil
}

// SeedAdmin ensures an active admin account exists for the configured
// credentials. An existing account with the same email is left untouched,
// password included.
func SeedAdmin(ctx context.Context, db *mongo.Database, email, password, name string, logger *zap.Logger) error {
	if email == "" || password == "" {
		logger.Warn("admin seed credentials not configured, skipping admin seeding")
		return nil
	}
	if err := authutil.ValidateEmail(email); err != nil {
		return fmt.Errorf("admin seed email: %w", err)
	}

	admins := adminstore.New(db)
	_, err := admins.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("check admin account: %w", err)
	}

	hash, err := authutil.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if name == "" {
		name = "Administrator"
	}

	_, err = admins.Create(ctx, models.Admin{
		Email:        email,
		FullName:     name,
		PasswordHash: hash,
		Status:       models.AdminStatusActive,
	})
	if err != nil && !errors.Is(err, adminstore.ErrDuplicateEmail) {
		return fmt.Errorf("create admin account: %w", err)
	}

	logger.Info("seeded admin account", zap.String("email", email))
	return nil
}
