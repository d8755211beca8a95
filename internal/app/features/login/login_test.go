package login

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	adminstore "github.com/dalemusser/stratasite/internal/app/store/admins"
	"github.com/dalemusser/stratasite/internal/app/store/ratelimit"
	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/app/system/authutil"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

const testSessionKey = "0123456789abcdef0123456789abcdef"

func newTestHandler(t *testing.T, db *mongo.Database, rl *ratelimit.Store) *Handler {
	t.Helper()
	sm, err := auth.NewSessionManager(testSessionKey, "", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}
	errLog := errorsfeature.NewErrorLogger(zap.NewNop())
	return NewHandler(db, sm, errLog, rl, zap.NewNop())
}

func seedAdmin(t *testing.T, db *mongo.Database, email, password string) models.Admin {
	t.Helper()
	hash, err := authutil.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	ctx, cancel := testutil.TestContext()
	defer cancel()
	admin, err := adminstore.New(db).Create(ctx, models.Admin{
		Email:        email,
		FullName:     "Test Admin",
		PasswordHash: hash,
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return admin
}

func postLogin(t *testing.T, h *Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	Routes(h).ServeHTTP(rec, req)
	return rec
}

func TestLogin_Success(t *testing.T) {
	db := testutil.SetupTestDB(t)
	admin := seedAdmin(t, db, "owner@example.com", "correct horse battery")
	h := newTestHandler(t, db, nil)

	rec := postLogin(t, h, LoginInput{Email: "owner@example.com", Password: "correct horse battery"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		Admin struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"admin"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Admin.ID != admin.ID.Hex() {
		t.Errorf("admin id = %q, want %q", resp.Admin.ID, admin.ID.Hex())
	}
	if resp.Admin.Email != "owner@example.com" {
		t.Errorf("admin email = %q", resp.Admin.Email)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Error("expected a session cookie to be set")
	}
}

func TestLogin_EmailIsCaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedAdmin(t, db, "Owner@Example.com", "correct horse battery")
	h := newTestHandler(t, db, nil)

	rec := postLogin(t, h, LoginInput{Email: "owner@example.COM", Password: "correct horse battery"})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedAdmin(t, db, "owner@example.com", "correct horse battery")
	h := newTestHandler(t, db, nil)

	rec := postLogin(t, h, LoginInput{Email: "owner@example.com", Password: "wrong"})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("no session cookie should be set on failure")
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(t, db, nil)

	rec := postLogin(t, h, LoginInput{Email: "nobody@example.com", Password: "whatever"})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestLogin_DisabledAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	admin := seedAdmin(t, db, "owner@example.com", "correct horse battery")

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := adminstore.New(db).SetStatus(ctx, admin.ID, models.AdminStatusDisabled); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	h := newTestHandler(t, db, nil)
	rec := postLogin(t, h, LoginInput{Email: "owner@example.com", Password: "correct horse battery"})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestLogin_InvalidInput(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(t, db, nil)

	tests := []struct {
		name  string
		input LoginInput
	}{
		{"missing email", LoginInput{Password: "something"}},
		{"bad email", LoginInput{Email: "not-an-email", Password: "something"}},
		{"missing password", LoginInput{Email: "owner@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postLogin(t, h, tt.input)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestLogin_RateLimitLockout(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedAdmin(t, db, "owner@example.com", "correct horse battery")

	rl := ratelimit.New(db, 3, 15*time.Minute, 30*time.Minute)
	h := newTestHandler(t, db, rl)

	// Two failures stay 401; the third hits the limit and locks out.
	for i := 0; i < 2; i++ {
		rec := postLogin(t, h, LoginInput{Email: "owner@example.com", Password: "wrong"})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want %d", i+1, rec.Code, http.StatusUnauthorized)
		}
	}
	rec := postLogin(t, h, LoginInput{Email: "owner@example.com", Password: "wrong"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("lockout attempt: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}

	// Even the correct password is rejected while locked out.
	rec = postLogin(t, h, LoginInput{Email: "owner@example.com", Password: "correct horse battery"})
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("locked login: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
}
