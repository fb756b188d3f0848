package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"farmledger/internal/core"
	"farmledger/internal/storage/memory"
)

func newTokens(t *testing.T) *Tokens {
	t.Helper()
	tok, err := NewTokens("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	return tok
}

func newService(t *testing.T) *Service {
	t.Helper()
	s := NewService(memory.New(), newTokens(t))
	s.cost = bcrypt.MinCost
	return s
}

func TestNewTokensValidation(t *testing.T) {
	if _, err := NewTokens("", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
	if _, err := NewTokens("s", 0); err == nil {
		t.Error("expected error for zero ttl")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tok := newTokens(t)
	raw, err := tok.Issue(core.User{ID: "user-1", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := tok.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "a@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestTokenRejections(t *testing.T) {
	tok := newTokens(t)
	raw, _ := tok.Issue(core.User{ID: "user-1"})

	other, _ := NewTokens("other-secret", time.Hour)
	foreign, _ := other.Issue(core.User{ID: "user-1"})

	expiredIssuer := newTokens(t)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _ := expiredIssuer.Issue(core.User{ID: "user-1"})

	parts := strings.Split(raw, ".")
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"user-2","exp":9999999999}`))
	tampered := strings.Join(parts, ".")

	tests := map[string]string{
		"tampered":     tampered,
		"wrong secret": foreign,
		"expired":      expired,
		"garbage":      "not-a-token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := tok.Verify(token)
			var ae *core.AuthError
			if !errors.As(err, &ae) || ae.Message != "Invalid token" {
				t.Fatalf("expected Invalid token AuthError, got %v", err)
			}
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	reg, err := s.Register(ctx, "Ravi Kumar", " Ravi@Example.com ", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.User.Email != "ravi@example.com" || reg.Token == "" {
		t.Fatalf("unexpected session %+v", reg)
	}
	if reg.User.PasswordHash == "secret123" {
		t.Fatal("password stored in plain text")
	}

	login, err := s.Login(ctx, "ravi@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := s.tokens.Verify(login.Token)
	if err != nil || claims.Subject != reg.User.ID {
		t.Fatalf("login token does not identify the user: %+v (err=%v)", claims, err)
	}

	if _, err := s.Login(ctx, "ravi@example.com", "wrong-pass"); !core.IsAuth(err) {
		t.Fatalf("expected AuthError for wrong password, got %v", err)
	}
	if _, err := s.Login(ctx, "nobody@example.com", "secret123"); !core.IsAuth(err) {
		t.Fatalf("expected AuthError for unknown user, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	if _, err := s.Register(ctx, "Existing", "taken@example.com", "secret123"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	tests := []struct {
		name, user, email, password, message string
	}{
		{"missing name", "", "a@example.com", "secret123", "Name is required"},
		{"short name", "Al", "a@example.com", "secret123", "Name must be at least 3 characters long"},
		{"bad email", "Alice", "not-an-email", "secret123", "Please enter a valid email address"},
		{"short password", "Alice", "a@example.com", "123", "Password must be at least 6 characters long"},
		{"duplicate email", "Alice", "TAKEN@example.com", "secret123", "User already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(ctx, tt.user, tt.email, tt.password)
			var ve *core.ValidationError
			if !errors.As(err, &ve) || ve.Message != tt.message {
				t.Fatalf("expected %q, got %v", tt.message, err)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	tok := newTokens(t)
	valid, _ := tok.Issue(core.User{ID: "user-9", Email: "n@example.com"})

	var seen Identity
	h := tok.Middleware(func(w http.ResponseWriter, _ *http.Request, err error) {
		http.Error(w, err.Error(), http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"no header", "", http.StatusUnauthorized, "Access denied. No token provided."},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Access denied. No token provided."},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, "Invalid token"},
		{"valid token", "Bearer " + valid, http.StatusNoContent, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if tt.body != "" && !strings.Contains(rec.Body.String(), tt.body) {
				t.Fatalf("expected body to contain %q, got %q", tt.body, rec.Body.String())
			}
		})
	}
	if seen.UserID != "user-9" || seen.Email != "n@example.com" {
		t.Fatalf("identity not propagated: %+v", seen)
	}
}
