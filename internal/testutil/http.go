package testutil

import (
	"net/http"
	"net/http/httptest"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/stratasite/internal/app/system/auth"
)

// TestAdmin is the admin identity handler tests run as.
type TestAdmin struct {
	ID    string
	Name  string
	Email string
}

// Admin returns a TestAdmin with a fresh id.
func Admin() TestAdmin {
	return TestAdmin{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Admin",
		Email: "admin@test.com",
	}
}

// WithAdmin injects an admin into the request context, standing in for
// the session middleware.
func WithAdmin(r *http.Request, admin TestAdmin) *http.Request {
	return auth.WithTestAdmin(r, &auth.SessionAdmin{
		ID:    admin.ID,
		Name:  admin.Name,
		Email: admin.Email,
	})
}

// NewAuthenticatedRequest builds a request that already carries an
// admin in context.
func NewAuthenticatedRequest(method, target string, admin TestAdmin) *http.Request {
	return WithAdmin(httptest.NewRequest(method, target, nil), admin)
}
