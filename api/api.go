// Package api exposes the publish workflow, account registry, and compose
// helper over a local REST interface.
package api

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/jmcleod/redpost/accounts"
	"github.com/jmcleod/redpost/compose"
	"github.com/jmcleod/redpost/publish"
	"github.com/jmcleod/redpost/session"
)

// Publisher runs one publish attempt end to end.
type Publisher interface {
	Run(ctx context.Context, req publish.Request) (*publish.Outcome, error)
}

// Prober reports whether a session is still accepted by the platform,
// either the stored one or an explicit candidate.
type Prober interface {
	Probe(ctx context.Context) bool
	ProbeWith(ctx context.Context, sess *session.Session) bool
}

// Composer drafts a title and body from keywords.
type Composer interface {
	Generate(ctx context.Context, keywords string) (*compose.Draft, error)
}

// AccountRegistry is the part of the account store the handlers need.
type AccountRegistry interface {
	Put(name, cookieHeader string) error
	Get(name string) (*accounts.Account, error)
	List() ([]string, error)
	Delete(name string) error
}

// HistoryReader lists recorded publish outcomes.
type HistoryReader interface {
	List() ([]publish.Outcome, error)
}

// TaskReader lists queued scheduled tasks.
type TaskReader interface {
	List() ([]publish.Task, error)
}

// API holds the dependencies needed by the REST handlers.
type API struct {
	publisher Publisher
	prober    Prober
	composer  Composer
	registry  AccountRegistry
	history   HistoryReader
	tasks     TaskReader
	logger    *slog.Logger
}

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for request-level events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// WithComposer enables the draft generation endpoint.
func WithComposer(c Composer) Option {
	return func(a *API) {
		a.composer = c
	}
}

// New creates a new API instance.
func New(publisher Publisher, prober Prober, registry AccountRegistry, history HistoryReader, tasks TaskReader, opts ...Option) *API {
	a := &API{
		publisher: publisher,
		prober:    prober,
		registry:  registry,
		history:   history,
		tasks:     tasks,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Post("/publish", a.Publish)
	r.Get("/history", a.ListHistory)
	r.Get("/tasks", a.ListTasks)
	r.Get("/session", a.SessionStatus)
	r.Post("/compose", a.Compose)

	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", a.ListAccounts)
		r.Put("/{name}", a.PutAccount)
		r.Get("/{name}", a.GetAccount)
		r.Delete("/{name}", a.DeleteAccount)
		r.Post("/{name}/verify", a.VerifyAccount)
	})

	return r
}
