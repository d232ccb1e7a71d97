package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/subtrackhq/notify/pkg/delivlog"
	"github.com/subtrackhq/notify/pkg/engine"
	"github.com/subtrackhq/notify/pkg/httpserver"
	"github.com/subtrackhq/notify/pkg/inbox"
	"github.com/subtrackhq/notify/pkg/ratelimit"
)

// Option is a functional option for configuring the API.
type Option func(*API)

// WithLogger sets the logger for request handling.
func WithLogger(log *slog.Logger) Option {
	return func(a *API) {
		if log != nil {
			a.log = log
		}
	}
}

// WithHealthChecks registers readiness checks served on /healthz.
func WithHealthChecks(checks ...func(ctx context.Context) error) Option {
	return func(a *API) {
		a.healthChecks = append(a.healthChecks, checks...)
	}
}

// WithRateLimiter throttles the notification submission endpoints per
// client IP. Read endpoints stay unthrottled.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(a *API) {
		a.limiter = limiter
	}
}

// WithRequestTimeout bounds handler execution time.
func WithRequestTimeout(d time.Duration) Option {
	return func(a *API) {
		if d > 0 {
			a.requestTimeout = d
		}
	}
}

// API serves the notification engine over HTTP.
type API struct {
	engine   *engine.Engine
	recorder *delivlog.Recorder
	inbox    inbox.Storage

	log            *slog.Logger
	healthChecks   []func(ctx context.Context) error
	requestTimeout time.Duration
	limiter        *ratelimit.Limiter
}

// New creates the API over its collaborators.
func New(eng *engine.Engine, recorder *delivlog.Recorder, inboxStorage inbox.Storage, opts ...Option) (*API, error) {
	if eng == nil {
		return nil, ErrEngineNil
	}
	if recorder == nil {
		return nil, ErrRecorderNil
	}
	if inboxStorage == nil {
		return nil, ErrInboxNil
	}

	a := &API{
		engine:         eng,
		recorder:       recorder,
		inbox:          inboxStorage,
		log:            slog.Default(),
		requestTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Router builds the HTTP routing tree.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(a.requestTimeout))

	r.Get("/healthz", httpserver.HealthCheckHandler(a.log, a.healthChecks...))

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if a.limiter != nil {
				r.Use(ratelimit.Middleware(a.limiter, ratelimit.ClientIP))
			}
			r.Post("/notifications", a.handleSend)
			r.Post("/notifications/batch", a.handleSendBatch)
		})
		r.Delete("/queue/{id}", a.handleCancel)
		r.Post("/callbacks/{provider}", a.handleCallback)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/logs", a.handleHistory)
			r.Get("/inbox", a.handleInboxList)
			r.Get("/inbox/unread-count", a.handleInboxUnreadCount)
			r.Post("/inbox/read", a.handleInboxMarkRead)
		})
	})

	return r
}
