package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"

	"github.com/inkwell/inkwell/internal/email"
	"github.com/inkwell/inkwell/internal/metrics"
	"github.com/inkwell/inkwell/internal/middleware"
	"github.com/inkwell/inkwell/internal/repository"
	"github.com/inkwell/inkwell/internal/service"
)

// capturedEmail mirrors the provider request payload.
type capturedEmail struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
	TextBody string `json:"text_body"`
}

// emailCapture is an httptest email provider that records deliveries.
type emailCapture struct {
	mu     sync.Mutex
	emails []capturedEmail
	status int
}

func (c *emailCapture) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload capturedEmail
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		c.mu.Lock()
		c.emails = append(c.emails, payload)
		status := c.status
		c.mu.Unlock()
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
	}
}

func (c *emailCapture) sent() []capturedEmail {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]capturedEmail, len(c.emails))
	copy(out, c.emails)
	return out
}

// testApp wires a router the way cmd/api does, against a mock database
// pool and a fake email provider.
type testApp struct {
	router  http.Handler
	mock    pgxmock.PgxPoolIface
	capture *emailCapture
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)

	capture := &emailCapture{}
	provider := httptest.NewServer(capture.handler())
	t.Cleanup(provider.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.NewWithDB(mock)

	client := email.NewClient(provider.URL, "newsletter@inkwell.dev", "test-token", 2*time.Second)
	dispatcher := email.NewDispatcher(client, "http://api.inkwell.dev")

	tokens, err := service.NewTokenGenerator()
	if err != nil {
		t.Fatalf("failed to create token generator: %v", err)
	}

	svc := service.NewSubscriptionService(repo, dispatcher, tokens, metrics.NewInMemory(), logger)
	subscriptionHandler := NewSubscriptionHandler(svc, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Post("/subscriptions", subscriptionHandler.Subscribe)
	r.Get("/subscriptions/confirm", subscriptionHandler.Confirm)

	return &testApp{router: r, mock: mock, capture: capture}
}

func (app *testApp) postSubscription(t *testing.T, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) expectSubscriberInsert(email, name string) {
	app.mock.ExpectExec("INSERT INTO subscribers").
		WithArgs(pgxmock.AnyArg(), email, name, pgxmock.AnyArg(), "pending_confirmation").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
}

func (app *testApp) expectTokenInsert() {
	app.mock.ExpectExec("INSERT INTO subscription_tokens").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
}

var confirmationLinkPattern = regexp.MustCompile(`href="([^"]+)"`)

// extractConfirmationLink pulls the confirmation URL out of a captured
// email's HTML body.
func extractConfirmationLink(t *testing.T, html string) *url.URL {
	t.Helper()
	matches := confirmationLinkPattern.FindStringSubmatch(html)
	if matches == nil {
		t.Fatalf("no link found in email body: %s", html)
	}
	link, err := url.Parse(strings.ReplaceAll(matches[1], "&amp;", "&"))
	if err != nil {
		t.Fatalf("invalid confirmation link %q: %v", matches[1], err)
	}
	return link
}

func TestSubscribe_ValidForm(t *testing.T) {
	app := newTestApp(t)
	app.expectSubscriberInsert("ursula_le_guin@gmail.com", "le guin")
	app.expectTokenInsert()

	rec := app.postSubscription(t, url.Values{
		"name":  {"le guin"},
		"email": {"ursula_le_guin@gmail.com"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var response struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "pending_confirmation" {
		t.Errorf("status = %q, want pending_confirmation", response.Status)
	}

	sent := app.capture.sent()
	if len(sent) != 1 {
		t.Fatalf("expected exactly one confirmation email, got %d", len(sent))
	}
	if sent[0].To != "ursula_le_guin@gmail.com" {
		t.Errorf("email recipient = %q", sent[0].To)
	}
	if sent[0].Subject != "Welcome!" {
		t.Errorf("email subject = %q", sent[0].Subject)
	}

	link := extractConfirmationLink(t, sent[0].HTMLBody)
	if link.Path != "/subscriptions/confirm" {
		t.Errorf("confirmation link path = %q", link.Path)
	}
	token := link.Query().Get("subscription_token")
	if len(token) != service.TokenLength {
		t.Errorf("token length = %d, want %d", len(token), service.TokenLength)
	}
	if !strings.Contains(sent[0].TextBody, link.String()) {
		t.Errorf("text body missing confirmation link: %s", sent[0].TextBody)
	}

	if err := app.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSubscribe_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{"missing email", url.Values{"name": {"le guin"}}},
		{"missing name", url.Values{"email": {"ursula_le_guin@gmail.com"}}},
		{"empty form", url.Values{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)

			rec := app.postSubscription(t, tt.form)

			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", rec.Code)
			}
			if sent := app.capture.sent(); len(sent) != 0 {
				t.Errorf("no email should be sent, got %d", len(sent))
			}
			// No database expectations registered: nothing may be persisted.
			if err := app.mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unexpected database access: %v", err)
			}
		})
	}
}

func TestSubscribe_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{"empty name", url.Values{"name": {""}, "email": {"ursula_le_guin@gmail.com"}}},
		{"whitespace name", url.Values{"name": {"   "}, "email": {"ursula_le_guin@gmail.com"}}},
		{"name with forbidden character", url.Values{"name": {"le/guin"}, "email": {"ursula_le_guin@gmail.com"}}},
		{"empty email", url.Values{"name": {"le guin"}, "email": {""}}},
		{"email missing at sign", url.Values{"name": {"le guin"}, "email": {"ursula_le_guin.gmail.com"}}},
		{"email missing subject", url.Values{"name": {"le guin"}, "email": {"@gmail.com"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)

			rec := app.postSubscription(t, tt.form)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body: %s", rec.Code, rec.Body.String())
			}
			if sent := app.capture.sent(); len(sent) != 0 {
				t.Errorf("no email should be sent, got %d", len(sent))
			}
		})
	}
}

func TestSubscribe_DatabaseDown(t *testing.T) {
	app := newTestApp(t)
	app.mock.ExpectExec("INSERT INTO subscribers").
		WithArgs(pgxmock.AnyArg(), "ursula_le_guin@gmail.com", "le guin", pgxmock.AnyArg(), "pending_confirmation").
		WillReturnError(io.ErrUnexpectedEOF)

	rec := app.postSubscription(t, url.Values{
		"name":  {"le guin"},
		"email": {"ursula_le_guin@gmail.com"},
	})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if sent := app.capture.sent(); len(sent) != 0 {
		t.Errorf("no email should be sent, got %d", len(sent))
	}
}

func TestSubscribe_EmailProviderDown(t *testing.T) {
	app := newTestApp(t)
	app.capture.status = http.StatusInternalServerError
	app.expectSubscriberInsert("ursula_le_guin@gmail.com", "le guin")
	app.expectTokenInsert()

	rec := app.postSubscription(t, url.Values{
		"name":  {"le guin"},
		"email": {"ursula_le_guin@gmail.com"},
	})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

// TestConfirmationRoundtrip drives the full workflow: subscribe, follow
// the link from the confirmation email, observe the status flip.
func TestConfirmationRoundtrip(t *testing.T) {
	app := newTestApp(t)
	app.expectSubscriberInsert("ursula_le_guin@gmail.com", "le guin")
	app.expectTokenInsert()

	rec := app.postSubscription(t, url.Values{
		"name":  {"le guin"},
		"email": {"ursula_le_guin@gmail.com"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("subscribe status = %d; body: %s", rec.Code, rec.Body.String())
	}

	sent := app.capture.sent()
	if len(sent) != 1 {
		t.Fatalf("expected one confirmation email, got %d", len(sent))
	}
	link := extractConfirmationLink(t, sent[0].HTMLBody)
	token := link.Query().Get("subscription_token")

	subscriberID := uuid.New()
	app.mock.ExpectQuery("SELECT subscriber_id").
		WithArgs(token).
		WillReturnRows(pgxmock.NewRows([]string{"subscriber_id"}).AddRow(subscriberID))
	app.mock.ExpectExec("UPDATE subscribers").
		WithArgs(subscriberID, "confirmed").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	confirmReq := httptest.NewRequest(http.MethodGet, link.Path+"?"+link.RawQuery, nil)
	confirmRec := httptest.NewRecorder()
	app.router.ServeHTTP(confirmRec, confirmReq)

	if confirmRec.Code != http.StatusOK {
		t.Fatalf("confirm status = %d; body: %s", confirmRec.Code, confirmRec.Body.String())
	}

	var response struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(confirmRec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "confirmed" {
		t.Errorf("status = %q, want confirmed", response.Status)
	}

	if err := app.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestConfirm_MissingToken(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/subscriptions/confirm", nil)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if err := app.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database access: %v", err)
	}
}

func TestConfirm_UnknownToken(t *testing.T) {
	app := newTestApp(t)
	app.mock.ExpectQuery("SELECT subscriber_id").
		WithArgs("nosuchtoken").
		WillReturnError(pgx.ErrNoRows)

	req := httptest.NewRequest(http.MethodGet, "/subscriptions/confirm?subscription_token=nosuchtoken", nil)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	var response struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Code != "UNKNOWN_TOKEN" {
		t.Errorf("error code = %q, want UNKNOWN_TOKEN", response.Code)
	}
}
