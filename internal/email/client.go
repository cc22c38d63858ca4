// Package email wraps the outbound transactional-email provider.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/inkwell/inkwell/internal/model"
)

const (
	// DialTimeout is the connection timeout.
	DialTimeout = 5 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 5 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 10 * time.Second
)

// Header names for provider requests.
const (
	HeaderServerToken = "X-Server-Token"
	HeaderMessageID   = "X-Inkwell-Message-Id"
)

// Client is a thin HTTP client for the transactional-email provider.
// It is safe for concurrent use and never mutated after construction.
type Client struct {
	baseURL    string
	sender     string
	authToken  string
	httpClient *http.Client
}

// NewClient creates a provider client. timeout bounds the whole send call.
func NewClient(baseURL, sender, authToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		sender:    sender,
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   DialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   TLSHandshakeTimeout,
				ResponseHeaderTimeout: ResponseHeaderTimeout,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

// sendRequest is the provider's send-email payload.
type sendRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
	TextBody string `json:"text_body"`
}

// SendEmail posts a single message to the provider. Any transport failure
// or non-2xx response is returned as one opaque error; callers do not
// distinguish provider 4xx from 5xx.
func (c *Client) SendEmail(ctx context.Context, recipient model.SubscriberEmail, subject, htmlBody, textBody string) error {
	payload, err := json.Marshal(sendRequest{
		From:     c.sender,
		To:       recipient.String(),
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
	if err != nil {
		return fmt.Errorf("encoding email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	messageID := ulid.Make().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderServerToken, c.authToken)
	req.Header.Set(HeaderMessageID, messageID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("provider rejected message %s (status %d): %s", messageID, resp.StatusCode, string(body))
	}

	return nil
}
