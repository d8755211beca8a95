// internal/app/features/login/login.go
package login

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	adminstore "github.com/dalemusser/stratasite/internal/app/store/admins"
	"github.com/dalemusser/stratasite/internal/app/store/ratelimit"
	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/app/system/authutil"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
)

// Handler provides the JSON login endpoint for admin accounts.
type Handler struct {
	admins     *adminstore.Store
	rateLimit  *ratelimit.Store // nil if rate limiting disabled
	sessionMgr *auth.SessionManager
	errLog     *errorsfeature.ErrorLogger
	logger     *zap.Logger
}

// NewHandler creates a new login Handler.
// rateLimit can be nil to disable login rate limiting.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *errorsfeature.ErrorLogger,
	rateLimit *ratelimit.Store,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		admins:     adminstore.New(db),
		rateLimit:  rateLimit,
		sessionMgr: sessionMgr,
		errLog:     errLog,
		logger:     logger,
	}
}

// Routes returns a chi.Router with login routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.handleLogin)
	return r
}

// LoginInput is the request body for POST /api/login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin verifies admin credentials and establishes a cookie session.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if err := authutil.ValidateEmail(in.Email); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	if in.Password == "" {
		jsonutil.BadRequest(w, "Password is required.")
		return
	}

	if h.rateLimit != nil {
		allowed, _, lockedUntil := h.rateLimit.CheckAllowed(r.Context(), in.Email)
		if !allowed {
			jsonutil.Error(w, http.StatusTooManyRequests, lockoutMessage(lockedUntil))
			return
		}
	}

	admin, err := h.admins.GetByEmail(r.Context(), in.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Record the failure even though no account exists, so
			// enumeration attempts lock out too.
			if h.rateLimit != nil {
				h.rateLimit.RecordFailure(r.Context(), in.Email)
			}
			h.logger.Info("login failed: unknown email", zap.String("email", in.Email))
			jsonutil.Unauthorized(w, "invalid credentials")
			return
		}
		h.errLog.Log(r, "database error during login lookup", err)
		jsonutil.InternalError(w, "service temporarily unavailable")
		return
	}

	if !admin.IsActive() {
		if h.rateLimit != nil {
			h.rateLimit.RecordFailure(r.Context(), in.Email)
		}
		h.logger.Info("login failed: account disabled", zap.String("admin_id", admin.ID.Hex()))
		jsonutil.Unauthorized(w, "account is disabled")
		return
	}

	if !authutil.CheckPassword(in.Password, admin.PasswordHash) {
		if h.rateLimit != nil {
			lockedOut, lockedUntil := h.rateLimit.RecordFailure(r.Context(), in.Email)
			if lockedOut {
				h.logger.Warn("login locked out after repeated failures",
					zap.String("admin_id", admin.ID.Hex()))
				jsonutil.Error(w, http.StatusTooManyRequests, lockoutMessage(lockedUntil))
				return
			}
		}
		h.logger.Info("login failed: wrong password", zap.String("admin_id", admin.ID.Hex()))
		jsonutil.Unauthorized(w, "invalid credentials")
		return
	}

	if h.rateLimit != nil {
		h.rateLimit.ClearOnSuccess(r.Context(), in.Email)
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		h.errLog.Log(r, "failed to generate session token", err)
		jsonutil.InternalError(w, "failed to create session")
		return
	}
	if err := h.sessionMgr.CreateSession(w, r, admin.ID, token); err != nil {
		h.errLog.Log(r, "failed to create session", err)
		jsonutil.InternalError(w, "failed to create session")
		return
	}

	h.logger.Info("admin logged in", zap.String("admin_id", admin.ID.Hex()))

	jsonutil.OK(w, map[string]any{
		"admin": map[string]string{
			"id":    admin.ID.Hex(),
			"email": admin.Email,
			"name":  admin.FullName,
		},
	})
}

func lockoutMessage(lockedUntil *time.Time) string {
	if lockedUntil == nil {
		return "Too many failed login attempts. Please try again later."
	}
	remaining := time.Until(*lockedUntil)
	if remaining > time.Minute {
		return fmt.Sprintf("Too many failed login attempts. Please try again in %d minute(s).", int(remaining.Minutes())+1)
	}
	return fmt.Sprintf("Too many failed login attempts. Please try again in %d second(s).", int(remaining.Seconds())+1)
}
