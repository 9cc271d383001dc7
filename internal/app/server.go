// Package app wires storage, domain services, and the HTTP surface into a
// runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/pvaldez/taskstack/internal/api"
	"github.com/pvaldez/taskstack/internal/auth"
	"github.com/pvaldez/taskstack/internal/auth/password"
	"github.com/pvaldez/taskstack/internal/auth/token"
	"github.com/pvaldez/taskstack/internal/notify"
	"github.com/pvaldez/taskstack/internal/storage/sqlite"
	"github.com/pvaldez/taskstack/internal/task"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

// Options configures a Server.
type Options struct {
	Addr            string
	DBPath          string
	TokenIssuer     string
	TokenAudience   string
	SigningKey      string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	LoginPerMinute  float64
	LoginBurst      int
	CleanupInterval time.Duration
	Clock           func() time.Time
}

// Server is the assembled application.
type Server struct {
	opts       Options
	store      *sqlite.Store
	auth       *auth.Service
	httpServer *http.Server
	clock      func() time.Time
}

// NewServer opens storage and assembles the services and routes.
func NewServer(opts Options) (*Server, error) {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 5 * time.Minute
	}
	if opts.LoginPerMinute <= 0 {
		opts.LoginPerMinute = 10
	}
	if opts.LoginBurst <= 0 {
		opts.LoginBurst = 10
	}

	store, err := sqlite.Open(opts.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	key, err := token.ParseSigningKey(opts.SigningKey)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	signer, err := token.NewSigner(token.Config{
		Issuer:     opts.TokenIssuer,
		Audience:   opts.TokenAudience,
		Key:        key,
		AccessTTL:  opts.AccessTTL,
		RefreshTTL: opts.RefreshTTL,
		Now:        opts.Clock,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("new signer: %w", err)
	}

	limiter := auth.NewLoginLimiter(opts.LoginPerMinute, opts.LoginBurst)
	authService := auth.NewService(store, store, password.NewHasher(bcrypt.DefaultCost), signer, limiter, opts.Clock)
	taskService := task.NewService(store, store, opts.Clock, nil)
	notifyEngine := notify.NewEngine(store)

	apiServer := api.NewServer(authService, taskService, notifyEngine, opts.Clock)

	mux := http.NewServeMux()
	apiServer.Routes(mux)
	mux.HandleFunc("GET /up", func(w http.ResponseWriter, r *http.Request) {
		if err := store.DB().PingContext(r.Context()); err != nil {
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	return &Server{
		opts:  opts,
		store: store,
		auth:  authService,
		httpServer: &http.Server{
			Addr:              opts.Addr,
			Handler:           withTracing(mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
		clock: opts.Clock,
	}, nil
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully and closes storage.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.startCleanup(serverCtx, s.opts.CleanupInterval)

	log.Printf("server listening at %v", listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			_ = s.store.Close()
			return fmt.Errorf("shutdown http server: %w", err)
		}
		<-serveErr
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = s.store.Close()
			return fmt.Errorf("serve http: %w", err)
		}
	}

	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

// startCleanup starts periodic expiry cleanup for refresh sessions.
//
// This keeps rotated and expired session records from accumulating without
// requiring a separate maintenance process.
func (s *Server) startCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.auth.PurgeExpiredSessions(ctx); err != nil {
					log.Printf("purge expired sessions: %v", err)
				}
			}
		}
	}()
}

// withTracing wraps the handler in a per-request span. With no provider
// registered this is a no-op tracer.
func withTracing(next http.Handler) http.Handler {
	tracer := otel.Tracer("taskstack/http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
