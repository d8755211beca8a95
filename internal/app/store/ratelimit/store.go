// internal/app/store/ratelimit/store.go
package ratelimit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dalemusser/stratasite/internal/app/system/normalize"
)

// Attempt is the per-email record of failed admin logins. Counting
// happens inside a sliding window; crossing the limit sets LockedUntil.
type Attempt struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"` // lowercased
	AttemptCount int                `bson:"attempt_count"`
	WindowStart  time.Time          `bson:"window_start"`
	LockedUntil  *time.Time         `bson:"locked_until"` // nil while not locked
	LastAttempt  time.Time          `bson:"last_attempt"` // drives the TTL index
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

// Store throttles admin login attempts. Lookups fail open: a mongo
// error never blocks a login, it only skips the throttle.
type Store struct {
	c               *mongo.Collection
	maxAttempts     int
	windowDuration  time.Duration
	lockoutDuration time.Duration
}

func New(db *mongo.Database, maxAttempts int, window, lockout time.Duration) *Store {
	return &Store{
		c:               db.Collection("rate_limits"),
		maxAttempts:     maxAttempts,
		windowDuration:  window,
		lockoutDuration: lockout,
	}
}

// EnsureIndexes creates the email lookup index and the 24h TTL that
// expires stale attempt records.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_ratelimit_email"),
		},
		{
			Keys:    bson.D{{Key: "last_attempt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(86400).SetName("idx_ratelimit_ttl"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, models)
	return err
}

// CheckAllowed reports whether a login attempt for email may proceed.
// remaining is the number of attempts left before lockout, or -1 while
// locked. lockedUntil is set only while a lockout is active.
func (s *Store) CheckAllowed(ctx context.Context, email string) (allowed bool, remaining int, lockedUntil *time.Time) {
	email = normalize.Email(email)
	now := time.Now()

	var attempt Attempt
	err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&attempt)
	if err != nil {
		// No record, or a lookup failure. Either way the attempt runs.
		return true, s.maxAttempts, nil
	}

	if attempt.LockedUntil != nil && now.Before(*attempt.LockedUntil) {
		return false, -1, attempt.LockedUntil
	}

	if now.After(attempt.WindowStart.Add(s.windowDuration)) {
		// Window expired; the counter resets on the next failure.
		return true, s.maxAttempts, nil
	}

	remaining = s.maxAttempts - attempt.AttemptCount
	if remaining <= 0 {
		return false, 0, nil
	}
	return true, remaining, nil
}

// RecordFailure counts a failed login for email and reports whether
// this failure tripped the lockout.
func (s *Store) RecordFailure(ctx context.Context, email string) (lockedOut bool, lockedUntil *time.Time) {
	email = normalize.Email(email)
	now := time.Now()

	var attempt Attempt
	err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&attempt)

	switch {
	case err == mongo.ErrNoDocuments:
		attempt = Attempt{
			ID:           primitive.NewObjectID(),
			Email:        email,
			AttemptCount: 1,
			WindowStart:  now,
			LastAttempt:  now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		lockedOut, lockedUntil = s.maybeLock(&attempt, now)
		_, _ = s.c.InsertOne(ctx, attempt)
		return lockedOut, lockedUntil

	case err != nil:
		// Fail open on lookup errors.
		return false, nil
	}

	if now.After(attempt.WindowStart.Add(s.windowDuration)) {
		attempt.AttemptCount = 1
		attempt.WindowStart = now
		attempt.LockedUntil = nil
	} else {
		attempt.AttemptCount++
	}
	attempt.LastAttempt = now
	attempt.UpdatedAt = now

	lockedOut, lockedUntil = s.maybeLock(&attempt, now)

	_, _ = s.c.UpdateOne(ctx,
		bson.M{"_id": attempt.ID},
		bson.M{"$set": bson.M{
			"attempt_count": attempt.AttemptCount,
			"window_start":  attempt.WindowStart,
			"locked_until":  attempt.LockedUntil,
			"last_attempt":  attempt.LastAttempt,
			"updated_at":    attempt.UpdatedAt,
		}},
	)
	return lockedOut, lockedUntil
}

// maybeLock sets LockedUntil on the attempt when the counter reaches
// the limit.
func (s *Store) maybeLock(attempt *Attempt, now time.Time) (bool, *time.Time) {
	if attempt.AttemptCount < s.maxAttempts {
		return false, nil
	}
	until := now.Add(s.lockoutDuration)
	attempt.LockedUntil = &until
	return true, &until
}

// ClearOnSuccess drops the attempt record after a successful login.
func (s *Store) ClearOnSuccess(ctx context.Context, email string) error {
	email = normalize.Email(email)
	_, err := s.c.DeleteOne(ctx, bson.M{"email": email})
	return err
}

// GetAttempt returns the current record for an email, or nil when none
// exists.
func (s *Store) GetAttempt(ctx context.Context, email string) (*Attempt, error) {
	email = normalize.Email(email)
	var attempt Attempt
	err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&attempt)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}
