// Package model defines domain entities for the application.
package model

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rivo/uniseg"
)

// SubscriberStatus represents the confirmation state of a subscriber.
type SubscriberStatus string

const (
	StatusPendingConfirmation SubscriberStatus = "pending_confirmation"
	StatusConfirmed           SubscriberStatus = "confirmed"
)

// MaxNameLength is the maximum number of user-perceived characters
// (grapheme clusters) in a subscriber name.
const MaxNameLength = 256

// forbiddenNameChars can be used for SQL or HTML injection attempts and are
// rejected outright.
const forbiddenNameChars = `/()"<>\{}`

// Validation errors.
var (
	ErrNameEmpty         = errors.New("name must not be empty")
	ErrNameTooLong       = fmt.Errorf("name must be at most %d characters", MaxNameLength)
	ErrNameForbiddenChar = errors.New("name contains a forbidden character")
	ErrEmailInvalid      = errors.New("email is not a valid address")
)

// SubscriberName is a validated subscriber name.
// The zero value is invalid; construct via ParseSubscriberName.
type SubscriberName struct {
	value string
}

// ParseSubscriberName validates raw input and returns a SubscriberName.
// Rejects empty or whitespace-only strings, strings longer than
// MaxNameLength grapheme clusters, and strings containing any forbidden
// character.
func ParseSubscriberName(raw string) (SubscriberName, error) {
	if strings.TrimSpace(raw) == "" {
		return SubscriberName{}, ErrNameEmpty
	}
	if uniseg.GraphemeClusterCount(raw) > MaxNameLength {
		return SubscriberName{}, ErrNameTooLong
	}
	if strings.ContainsAny(raw, forbiddenNameChars) {
		return SubscriberName{}, ErrNameForbiddenChar
	}
	return SubscriberName{value: raw}, nil
}

// String returns the validated name.
func (n SubscriberName) String() string {
	return n.value
}

// SubscriberEmail is a validated email address.
// The zero value is invalid; construct via ParseSubscriberEmail.
type SubscriberEmail struct {
	value string
}

// ParseSubscriberEmail validates raw input as an RFC 5322 address and
// returns a SubscriberEmail. Display names ("Ursula <u@example.com>") are
// rejected: the input must be a bare address.
func ParseSubscriberEmail(raw string) (SubscriberEmail, error) {
	if raw == "" {
		return SubscriberEmail{}, ErrEmailInvalid
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return SubscriberEmail{}, fmt.Errorf("%w: %s", ErrEmailInvalid, err)
	}
	if addr.Name != "" || addr.Address != raw {
		return SubscriberEmail{}, ErrEmailInvalid
	}
	return SubscriberEmail{value: raw}, nil
}

// String returns the validated address.
func (e SubscriberEmail) String() string {
	return e.value
}

// NewSubscriber is a validated signup submission.
// It can only be built from parsed parts, so it is always valid.
type NewSubscriber struct {
	Name  SubscriberName
	Email SubscriberEmail
}

// Subscriber represents a persisted newsletter subscriber.
type Subscriber struct {
	ID           uuid.UUID        `json:"id"`
	Email        string           `json:"email"`
	Name         string           `json:"name"`
	SubscribedAt time.Time        `json:"subscribed_at"`
	Status       SubscriberStatus `json:"status"`
}

// IsConfirmed returns true once the subscriber has visited their
// confirmation link.
func (s *Subscriber) IsConfirmed() bool {
	return s.Status == StatusConfirmed
}
