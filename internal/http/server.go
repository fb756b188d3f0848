package http

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"farmledger/internal/auth"
	"farmledger/internal/ledger"
	applog "farmledger/internal/log"
	"farmledger/internal/middleware/ratelimit"
	"farmledger/internal/middleware/security"
	"farmledger/internal/middleware/trace"
	"farmledger/internal/notify"
)

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the API is built from.
type Deps struct {
	Ledger  *ledger.Service
	Auth    *auth.Service
	Tokens  *auth.Tokens
	Contact *notify.ContactService
	Store   Pinger
	Logger  *applog.Logger

	RateLimitPerMinute int
	TrustedProxies     []string
	AllowedOrigins     []string

	// Now dates the CSV export filename. Defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server

	ledger   *ledger.Service
	auth     *auth.Service
	contact  *notify.ContactService
	store    Pinger
	logger   *applog.Logger
	now      func() time.Time
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, d Deps) (*Server, error) {
	if d.Ledger == nil || d.Auth == nil || d.Tokens == nil || d.Contact == nil {
		return nil, fmt.Errorf("http server: ledger, auth, tokens and contact are required")
	}
	if d.Logger == nil {
		d.Logger = applog.FromContext(context.Background())
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	detector, err := security.NewDetector(d.TrustedProxies...)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	s := &Server{
		ledger:   d.Ledger,
		auth:     d.Auth,
		contact:  d.Contact,
		store:    d.Store,
		logger:   d.Logger.WithComponent(applog.ComponentHTTP),
		now:      d.Now,
		detector: detector,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: d.RateLimitPerMinute}),
	}
	s.tracer = trace.NewMiddleware(s.logger, detector.ExtractClientIP)

	mux := http.NewServeMux()
	protected := d.Tokens.Middleware(writeAuthError)
	handle := func(pattern string, h http.HandlerFunc) { mux.Handle(pattern, h) }
	handleAuth := func(pattern string, h http.HandlerFunc) { mux.Handle(pattern, protected(h)) }

	handle("GET /healthz", s.handleHealth)
	handle("GET /readyz", s.handleReady)

	handle("POST /api/auth/register", s.handleRegister)
	handle("POST /api/auth/login", s.handleLogin)
	handle("GET /api/categories", s.handleCategories)
	handle("POST /api/contact", s.handleContact)

	handleAuth("GET /api/expenses", s.handleListExpenses)
	handleAuth("POST /api/expenses", s.handleCreateExpense)
	handleAuth("PUT /api/expenses/{id}", s.handleUpdateExpense)
	handleAuth("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	handleAuth("GET /api/income", s.handleGetIncome)
	handleAuth("PUT /api/income", s.handleSaveIncome)
	handleAuth("GET /api/ledger/summary", s.handleSummary)
	handleAuth("GET /api/ledger/export.csv", s.handleExportCSV)

	handleAuth("GET /api/farm", s.handleListFarms)
	handleAuth("POST /api/farm", s.handleCreateFarm)
	handleAuth("PUT /api/farm/{id}", s.handleUpdateFarm)
	handleAuth("DELETE /api/farm/{id}", s.handleDeleteFarm)

	handleAuth("GET /api/user/profile", s.handleGetProfile)
	handleAuth("PUT /api/user/profile", s.handleUpdateProfile)
	handleAuth("PUT /api/user/change-password", s.handleChangePassword)
	handleAuth("DELETE /api/user/delete-account", s.handleDeleteAccount)

	handle("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Route not found").Write(w)
	})

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	cors := security.NewCORSMiddleware(security.DefaultCORSConfig(d.AllowedOrigins))
	limit := s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, detector.ExtractClientIP(r),
			applog.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})

	var h http.Handler = mux
	h = limit(h)
	h = detector.Middleware(h)
	h = cors.Middleware(h)
	h = headers.Middleware(h)
	h = recoverMiddleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Shutdown stops the rate limiter, gracefully shuts down the server and logs
// the traffic counters collected by the middleware.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
		s.logTraffic(ctx)
		s.limiter.Stop()
	})
	return err
}

func (s *Server) logTraffic(ctx context.Context) {
	requests := s.tracer.GetMetrics()
	limits := s.limiter.GetMetrics()
	threats := s.detector.GetMetrics()
	s.logger.InfoContext(ctx, "HTTP traffic summary",
		"requests_total", requests.TotalRequests,
		"server_errors", requests.ServerErrors,
		"last_duration_ms", requests.LastDurationMs,
		"rate_limited", limits.TotalHits,
		"rate_limit_clients", limits.ClientCount,
		"suspicious_requests", threats.SuspiciousRequests,
		"spoofed_forwarding", threats.SpoofedForwarding)
}

// recoverMiddleware turns a panic into a 500 JSON response.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				applog.FromContext(r.Context()).ErrorContext(r.Context(), "Panic while serving request",
					"panic", rec,
					"stack", string(debug.Stack()),
					applog.FieldPath, r.URL.Path)
				InternalServerError("Internal server error").Write(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ownerLedger resolves the caller's ledger from the authenticated identity.
func (s *Server) ownerLedger(r *http.Request) (*ledger.OwnerLedger, error) {
	return s.ledger.ForOwner(callerID(r))
}
