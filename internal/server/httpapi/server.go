// Package httpapi exposes the account and simulation services over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/simkeeper/internal/logging"
	"github.com/dmitrijs2005/simkeeper/internal/server/config"
	"github.com/dmitrijs2005/simkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/simkeeper/internal/server/models"
	"github.com/dmitrijs2005/simkeeper/internal/server/services"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// AccountService is the subset of services.UserService the gateway needs.
type AccountService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Authenticate(ctx context.Context, token string) (*services.Principal, error)
	Logout(ctx context.Context, p *services.Principal) error
	VerifyExternalIdentity(ctx context.Context, userID int64, tumID, password string) (*models.User, error)
}

// SimulationService is the subset of services.SimulationService the gateway needs.
type SimulationService interface {
	List(ctx context.Context, ownerID int64, q models.ListQuery) (*models.SimulationPage, error)
	Create(ctx context.Context, ownerID int64, in services.CreateInput) (*models.Simulation, error)
	Get(ctx context.Context, ownerID, id int64) (*models.Simulation, error)
	Update(ctx context.Context, ownerID, id int64, patch models.SimulationPatch) (*models.Simulation, error)
	Delete(ctx context.Context, ownerID, id int64) error
	BulkDelete(ctx context.Context, ownerID int64, ids any) (int64, error)
}

// Server is the HTTP gateway.
type Server struct {
	address         string
	allowedOrigins  map[string]struct{}
	requestTimeout  time.Duration
	shutdownTimeout time.Duration

	accounts    AccountService
	simulations SimulationService
	metrics     *metrics.Metrics
	limiter     *ipRateLimiter
	logger      logging.Logger
}

// NewHTTPServer wires the gateway. A nil m gets a fresh metrics registry.
func NewHTTPServer(cfg *config.Config, l logging.Logger, accounts AccountService, sims SimulationService, m *metrics.Metrics) *Server {
	if m == nil {
		m = metrics.New()
	}

	origins := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		origins[o] = struct{}{}
	}

	return &Server{
		address:         cfg.EndpointAddrHTTP,
		allowedOrigins:  origins,
		requestTimeout:  cfg.RequestTimeout,
		shutdownTimeout: cfg.ShutdownTimeout,
		accounts:        accounts,
		simulations:     sims,
		metrics:         m,
		limiter:         newIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst, maxLimiters),
		logger:          l.With("module", "http_server"),
	}
}

// Handler builds the router with every route and middleware attached.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestID)
	r.Use(s.cors)
	r.Use(s.metrics.Instrument)
	r.Use(s.accessLog)
	r.Use(s.recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(s.rateLimit)
				r.Post("/register", s.register)
				r.Post("/login", s.login)
			})
			r.Group(func(r chi.Router) {
				r.Use(s.authenticate)
				r.Post("/logout", s.logout)
				r.Get("/me", s.me)
				r.With(s.rateLimit).Post("/verify-tum", s.verifyTum)
			})
		})

		r.Route("/simulations", func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/", s.listSimulations)
			r.Post("/", s.createSimulation)
			r.Post("/bulk-delete", s.bulkDeleteSimulations)
			r.Get("/{id}", s.getSimulation)
			r.Put("/{id}", s.updateSimulation)
			r.Delete("/{id}", s.deleteSimulation)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *Server) serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.requestTimeout,
		WriteTimeout:      s.requestTimeout,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-shutdownErr
}
