package adminstore

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/testutil"
)

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Admin{
		Email:        "  Admin@Example.COM ",
		FullName:     " Site Admin ",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Email != "admin@example.com" {
		t.Errorf("Email = %q, want normalized lowercase", created.Email)
	}
	if created.FullName != "Site Admin" {
		t.Errorf("FullName = %q", created.FullName)
	}
	if created.Status != models.AdminStatusActive {
		t.Errorf("Status = %q, want active by default", created.Status)
	}

	got, err := store.GetByEmail(ctx, "ADMIN@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByEmail() id = %v, want %v", got.ID, created.ID)
	}

	byID, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if byID.Email != created.Email {
		t.Errorf("GetByID() email = %q", byID.Email)
	}
}

func TestStore_CreateDuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Admin{Email: "admin@example.com", PasswordHash: "h"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err := store.Create(ctx, models.Admin{Email: "Admin@Example.com", PasswordHash: "h"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("Create() duplicate error = %v, want ErrDuplicateEmail", err)
	}
}

func TestStore_GetByEmailNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByEmail(ctx, "nobody@example.com")
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("GetByEmail() error = %v, want ErrNoDocuments", err)
	}
}

func TestStore_SetStatusAndCountActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Create(ctx, models.Admin{Email: "a@example.com", PasswordHash: "h"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Create(ctx, models.Admin{Email: "b@example.com", PasswordHash: "h"}); err != nil {
		t.Fatal(err)
	}

	n, err := store.CountActive(ctx)
	if err != nil {
		t.Fatalf("CountActive() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountActive() = %d, want 2", n)
	}

	if err := store.SetStatus(ctx, a.ID, models.AdminStatusDisabled); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	n, _ = store.CountActive(ctx)
	if n != 1 {
		t.Errorf("CountActive() after disable = %d, want 1", n)
	}

	disabled, _ := store.GetByID(ctx, a.ID)
	if disabled.IsActive() {
		t.Error("IsActive() = true after disable")
	}
}

func TestStore_UpdatePassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Create(ctx, models.Admin{Email: "a@example.com", PasswordHash: "old"})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.UpdatePassword(ctx, a.ID, "new"); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}
	got, _ := store.GetByID(ctx, a.ID)
	if got.PasswordHash != "new" {
		t.Errorf("PasswordHash = %q, want %q", got.PasswordHash, "new")
	}
}
