// Package dto provides Data Transfer Objects for API responses.
package dto

// SubscribeResponse is returned after a subscription attempt is accepted.
type SubscribeResponse struct {
	Status string `json:"status"`
}

// ConfirmResponse is returned after a subscription is confirmed.
type ConfirmResponse struct {
	Status string `json:"status"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
