package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/app/system/mailer"
	"github.com/dalemusser/communityhub/internal/domain/models"
)

// WithUser adds u to the request context, bypassing the token middleware.
func WithUser(r *http.Request, u models.User) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	})
}

// JSONRequest builds a request with body encoded as JSON. A nil body sends none.
func JSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// Envelope is the decoded API response.
type Envelope struct {
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

// DecodeEnvelope parses rec's body, failing the test on malformed JSON.
func DecodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

// DecodeResult unmarshals the envelope's result into dst.
func DecodeResult(t *testing.T, rec *httptest.ResponseRecorder, dst any) Envelope {
	t.Helper()
	env := DecodeEnvelope(t, rec)
	if err := json.Unmarshal(env.Result, dst); err != nil {
		t.Fatalf("decode result %s: %v", env.Result, err)
	}
	return env
}

// AssertStatus checks the response status code, printing the body on mismatch.
func AssertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status code: got %d, want %d (body: %s)", rec.Code, want, rec.Body.String())
	}
}

// MailRecorder is a mailer.Sender that records messages instead of sending.
// Set Err to make every Send fail.
type MailRecorder struct {
	mu   sync.Mutex
	sent []mailer.Email
	Err  error
}

func (m *MailRecorder) Send(_ context.Context, e mailer.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, e)
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MailRecorder) Sent() []mailer.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Email(nil), m.sent...)
}
