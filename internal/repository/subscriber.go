package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/inkwell/inkwell/internal/model"
)

// Common errors for subscriber repository operations.
var (
	ErrDuplicateEmail     = errors.New("email is already subscribed")
	ErrSubscriberNotFound = errors.New("subscriber not found")
	ErrTokenNotFound      = errors.New("subscription token not found")
)

// PostgreSQL error codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// InsertSubscriber inserts a new subscriber in pending_confirmation state
// and returns the generated subscriber ID.
func (r *Repository) InsertSubscriber(ctx context.Context, sub model.NewSubscriber) (uuid.UUID, error) {
	query := `
		INSERT INTO subscribers (id, email, name, subscribed_at, status)
		VALUES ($1, $2, $3, $4, $5)
	`

	id := uuid.New()
	_, err := r.db.Exec(ctx, query,
		id,
		sub.Email.String(),
		sub.Name.String(),
		time.Now().UTC(),
		string(model.StatusPendingConfirmation),
	)

	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return uuid.Nil, ErrDuplicateEmail
		}
		return uuid.Nil, fmt.Errorf("failed to insert subscriber: %w", err)
	}

	return id, nil
}

// StoreToken inserts a confirmation token for a subscriber. The subscriber
// row must already exist; the workflow guarantees the ordering.
func (r *Repository) StoreToken(ctx context.Context, subscriberID uuid.UUID, token string) error {
	query := `
		INSERT INTO subscription_tokens (subscription_token, subscriber_id)
		VALUES ($1, $2)
	`

	_, err := r.db.Exec(ctx, query, token, subscriberID)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return ErrSubscriberNotFound
		}
		return fmt.Errorf("failed to store subscription token: %w", err)
	}

	return nil
}

// FindSubscriberIDByToken resolves a confirmation token to a subscriber ID.
// Returns ErrTokenNotFound if the token is unknown.
func (r *Repository) FindSubscriberIDByToken(ctx context.Context, token string) (uuid.UUID, error) {
	query := `
		SELECT subscriber_id
		FROM subscription_tokens
		WHERE subscription_token = $1
	`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query, token).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrTokenNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to look up subscription token: %w", err)
	}

	return id, nil
}

// MarkConfirmed transitions a subscriber to confirmed status. Idempotent:
// confirming an already-confirmed subscriber succeeds without change.
// Tokens are never invalidated, so replaying a confirmation link is a no-op.
func (r *Repository) MarkConfirmed(ctx context.Context, subscriberID uuid.UUID) error {
	query := `
		UPDATE subscribers
		SET status = $2
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, subscriberID, string(model.StatusConfirmed))
	if err != nil {
		return fmt.Errorf("failed to mark subscriber confirmed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrSubscriberNotFound
	}

	return nil
}

// GetSubscriberByEmail retrieves a subscriber by email address.
// Used by operational tooling and tests; the workflow itself only ever
// references subscribers by ID.
func (r *Repository) GetSubscriberByEmail(ctx context.Context, email string) (*model.Subscriber, error) {
	query := `
		SELECT id, email, name, subscribed_at, status
		FROM subscribers
		WHERE email = $1
	`

	var sub model.Subscriber
	err := r.db.QueryRow(ctx, query, email).Scan(
		&sub.ID,
		&sub.Email,
		&sub.Name,
		&sub.SubscribedAt,
		&sub.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriberNotFound
		}
		return nil, fmt.Errorf("failed to get subscriber by email: %w", err)
	}

	return &sub, nil
}

// isPgError checks whether err is a PostgreSQL error with the given code.
func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
