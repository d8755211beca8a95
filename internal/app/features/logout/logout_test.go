package logout

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/testutil"
)

const testSessionKey = "0123456789abcdef0123456789abcdef"

func newSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(testSessionKey, "", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}
	return sm
}

func TestLogout_RequiresAuth(t *testing.T) {
	sm := newSessionManager(t)
	h := NewHandler(sm, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	Routes(h, sm).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	sm := newSessionManager(t)
	h := NewHandler(sm, zap.NewNop())

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/", testutil.Admin())
	rec := httptest.NewRecorder()
	Routes(h, sm).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "logged out") {
		t.Errorf("body = %q, want a logged out confirmation", rec.Body.String())
	}

	// DestroySession expires the cookie.
	for _, c := range rec.Result().Cookies() {
		if c.Name == sm.SessionName() && c.MaxAge > 0 {
			t.Errorf("session cookie should be expired, got MaxAge %d", c.MaxAge)
		}
	}
}
