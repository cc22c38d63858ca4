// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkwell/inkwell/internal/metrics"
	"github.com/inkwell/inkwell/internal/model"
	"github.com/inkwell/inkwell/internal/repository"
)

// Service errors. Handlers map ErrValidation and ErrUnknownToken to client
// errors and everything else to server errors; no finer detail is exposed.
var (
	ErrValidation   = errors.New("invalid subscriber input")
	ErrStorage      = errors.New("could not save subscriber")
	ErrDispatch     = errors.New("could not send confirmation email")
	ErrUnknownToken = errors.New("unknown subscription token")
)

// ConfirmationSender dispatches a confirmation email carrying a token.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, recipient model.SubscriberEmail, token string) error
}

// SubscriptionService orchestrates the subscription lifecycle.
type SubscriptionService struct {
	repo       *repository.Repository
	dispatcher ConfirmationSender
	tokens     *TokenGenerator
	metrics    metrics.Recorder
	logger     *slog.Logger
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(
	repo *repository.Repository,
	dispatcher ConfirmationSender,
	tokens *TokenGenerator,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *SubscriptionService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &SubscriptionService{
		repo:       repo,
		dispatcher: dispatcher,
		tokens:     tokens,
		metrics:    recorder,
		logger:     logger,
	}
}

// SubscribeInput defines raw input for a subscription attempt.
type SubscribeInput struct {
	Name  string
	Email string
}

// Subscribe runs the full subscription workflow: validate the input,
// persist a pending subscriber, issue and store a confirmation token, and
// dispatch the confirmation email.
//
// The three external steps are independent and are not rolled back on a
// later failure: a token-store or dispatch failure leaves the subscriber
// row in pending_confirmation with no automatic recovery path. Each partial
// failure is logged with the subscriber ID so the confirmation can be
// re-driven manually.
func (s *SubscriptionService) Subscribe(ctx context.Context, input SubscribeInput) error {
	name, err := model.ParseSubscriberName(input.Name)
	if err != nil {
		s.metrics.IncSubscriptionRejected()
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}
	email, err := model.ParseSubscriberEmail(input.Email)
	if err != nil {
		s.metrics.IncSubscriptionRejected()
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}
	sub := model.NewSubscriber{Name: name, Email: email}

	subscriberID, err := s.repo.InsertSubscriber(ctx, sub)
	if err != nil {
		s.metrics.IncSubscriptionFailed(metrics.StageStorage)
		s.logger.Error("failed to insert subscriber",
			"email", email.String(),
			"error", err,
		)
		return fmt.Errorf("%w: %s", ErrStorage, err)
	}

	token := s.tokens.Generate()
	if err := s.repo.StoreToken(ctx, subscriberID, token); err != nil {
		s.metrics.IncSubscriptionFailed(metrics.StageToken)
		// The subscriber row already exists without a usable token.
		s.logger.Error("failed to store subscription token",
			"subscriber_id", subscriberID.String(),
			"error", err,
		)
		return fmt.Errorf("%w: %s", ErrStorage, err)
	}

	start := time.Now()
	if err := s.dispatcher.SendConfirmation(ctx, email, token); err != nil {
		s.metrics.IncSubscriptionFailed(metrics.StageDispatch)
		// Subscriber and token are persisted but the email never went out.
		s.logger.Error("failed to send confirmation email",
			"subscriber_id", subscriberID.String(),
			"error", err,
		)
		return fmt.Errorf("%w: %s", ErrDispatch, err)
	}
	s.metrics.ObserveDispatchDuration(time.Since(start))

	s.metrics.IncSubscriptionAccepted()
	s.logger.Info("subscriber pending confirmation",
		"subscriber_id", subscriberID.String(),
	)
	return nil
}

// Confirm consumes a confirmation token and transitions the subscriber to
// confirmed. Idempotent: any valid token confirms its subscriber no matter
// how many times it is replayed.
func (s *SubscriptionService) Confirm(ctx context.Context, token string) error {
	subscriberID, err := s.repo.FindSubscriberIDByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			s.metrics.IncConfirmationRejected()
			return ErrUnknownToken
		}
		return fmt.Errorf("%w: %s", ErrStorage, err)
	}

	if err := s.repo.MarkConfirmed(ctx, subscriberID); err != nil {
		s.logger.Error("failed to mark subscriber confirmed",
			"subscriber_id", subscriberID.String(),
			"error", err,
		)
		return fmt.Errorf("%w: %s", ErrStorage, err)
	}

	s.metrics.IncConfirmationCompleted()
	s.logger.Info("subscriber confirmed",
		"subscriber_id", subscriberID.String(),
	)
	return nil
}
