package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORSMiddleware(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name        string
		origins     []string
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantAllow   string
		wantCreds   string
		wantMethods bool
	}{
		{"no origin header", []string{"https://app.example"}, http.MethodGet, "", false, http.StatusTeapot, "", "", false},
		{"allowed origin", []string{"https://app.example/"}, http.MethodGet, "https://app.example", false, http.StatusTeapot, "https://app.example", "true", false},
		{"disallowed origin", []string{"https://app.example"}, http.MethodGet, "https://evil.example", false, http.StatusTeapot, "", "", false},
		{"allowed preflight", []string{"https://app.example"}, http.MethodOptions, "https://app.example", true, http.StatusNoContent, "https://app.example", "true", true},
		{"disallowed preflight", []string{"https://app.example"}, http.MethodOptions, "https://evil.example", true, http.StatusForbidden, "", "", false},
		{"open config", nil, http.MethodGet, "https://any.example", false, http.StatusTeapot, "*", "", false},
		{"plain options is not a preflight", nil, http.MethodOptions, "https://any.example", false, http.StatusTeapot, "*", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCORSMiddleware(DefaultCORSConfig(tt.origins)).Middleware(okHandler)
			req := httptest.NewRequest(tt.method, "/api/expenses", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPut)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
			if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCreds {
				t.Errorf("Allow-Credentials = %q, want %q", got, tt.wantCreds)
			}
			if got := rec.Header().Get("Access-Control-Allow-Methods") != ""; got != tt.wantMethods {
				t.Errorf("Allow-Methods present = %v, want %v", got, tt.wantMethods)
			}
			if tt.origin != "" && rec.Header().Get("Vary") != "Origin" {
				t.Errorf("Vary = %q", rec.Header().Get("Vary"))
			}
		})
	}
}
