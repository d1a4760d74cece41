package ratelimit_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/communityhub/internal/app/system/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_AllowAndRemaining(t *testing.T) {
	l := ratelimit.New(2, time.Minute)
	t.Cleanup(l.Stop)

	assert.Equal(t, 2, l.Remaining("k"))
	require.True(t, l.Allow("k"))
	require.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))
	assert.Equal(t, 0, l.Remaining("k"))

	// Other keys are independent.
	assert.True(t, l.Allow("other"))

	l.Reset("k")
	assert.True(t, l.Allow("k"))
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := ratelimit.New(1, 20*time.Millisecond)
	t.Cleanup(l.Stop)

	require.True(t, l.Allow("k"))
	require.False(t, l.Allow("k"))
	time.Sleep(40 * time.Millisecond)
	assert.True(t, l.Allow("k"))
}

func TestLimiter_RefillsGradually(t *testing.T) {
	l := ratelimit.New(2, 200*time.Millisecond)
	t.Cleanup(l.Stop)

	require.True(t, l.Allow("k"))
	require.True(t, l.Allow("k"))
	require.False(t, l.Allow("k"))

	// One token returns every 100ms.
	time.Sleep(130 * time.Millisecond)
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	assert.Equal(t, "10.0.0.9", ratelimit.ClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", ratelimit.ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", ratelimit.ClientIP(r))
}

func TestAuthLimiter_PerAccount(t *testing.T) {
	a := ratelimit.NewAuthLimiter(4, time.Minute)
	t.Cleanup(a.Stop)
	r := httptest.NewRequest("POST", "/api/v1/auth/login", nil)

	ok, _ := a.Check(r, "A@Example.com")
	require.True(t, ok)
	ok, _ = a.Check(r, "a@example.com")
	require.True(t, ok)

	ok, reason := a.Check(r, "a@example.com")
	assert.False(t, ok)
	assert.Contains(t, reason, "account")

	a.ResetAccount("a@example.com")
	ok, _ = a.Check(r, "a@example.com")
	assert.True(t, ok)
}

func TestAuthLimiter_NilIsPermissive(t *testing.T) {
	var a *ratelimit.AuthLimiter
	ok, _ := a.Check(httptest.NewRequest("POST", "/", nil), "x")
	assert.True(t, ok)
}
