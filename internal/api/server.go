// Package api implements the HTTP layer for the operations diagnostic.
// Handlers are methods on *Server. Each handler file is responsible for one
// resource group and only imports the dependencies it actually uses.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nyashahama/ops-diagnostic-backend/internal/catalog"
	"github.com/nyashahama/ops-diagnostic-backend/internal/db"
	"github.com/nyashahama/ops-diagnostic-backend/internal/email"
	"github.com/nyashahama/ops-diagnostic-backend/internal/report"
	"github.com/nyashahama/ops-diagnostic-backend/internal/scoring"
	"github.com/nyashahama/ops-diagnostic-backend/internal/store"
	stripeinternal "github.com/nyashahama/ops-diagnostic-backend/internal/stripe"
	"github.com/nyashahama/ops-diagnostic-backend/internal/worker"
)

// Config holds values read from environment variables at startup.
type Config struct {
	// BaseURL is the frontend origin used to build share and report links.
	// e.g. "https://app.example.com"
	BaseURL string

	// StripeWebhookSecret is the signing secret from the Stripe dashboard.
	StripeWebhookSecret string

	// PriceCents and Currency are charged for a paid assessment.
	PriceCents int64
	Currency   string

	// AdminPasswordHash is the bcrypt hash checked at admin login.
	AdminPasswordHash string

	// AdminSessionSecret signs the admin_session JWT.
	AdminSessionSecret string

	// AdminSessionTTL is the admin session lifetime.
	AdminSessionTTL time.Duration

	// Env is "production", "staging", or "development".
	Env string
}

// Store is the subset of *store.Store the handlers use for multi-step writes.
type Store interface {
	CreateAssessment(ctx context.Context, c store.Contact, source db.AssessmentSource, paymentIntent string) (db.Assessment, error)
	CreatePaidAssessment(ctx context.Context, paymentIntent string, c store.Contact) (db.Assessment, error)
	Resolve(ctx context.Context, ref string) (db.Assessment, error)
	SaveResponses(ctx context.Context, id uuid.UUID, patch scoring.Responses, step int) (db.Assessment, error)
	SubmitAssessment(ctx context.Context, id uuid.UUID) (db.Assessment, error)
	ReleaseAssessment(ctx context.Context, id uuid.UUID) (db.Assessment, error)
	SetManualInsights(ctx context.Context, id uuid.UUID, list []report.Insight) (db.Assessment, error)
	SetExecutiveOverride(ctx context.Context, id uuid.UUID, text string) (db.Assessment, error)
}

// Generator regenerates a narrative on admin request. *worker.Job
// satisfies it.
type Generator interface {
	Generate(ctx context.Context, id uuid.UUID, force bool) (db.Assessment, error)
}

var (
	_ Store     = (*store.Store)(nil)
	_ Generator = (*worker.Job)(nil)
)

// Server holds all shared dependencies. Each handler file attaches methods to
// this type and uses only the fields it needs.
type Server struct {
	// q handles all single-query reads. Injected directly; no repo wrapper.
	q db.Querier

	// store handles multi-step atomic writes.
	store Store

	// narratives regenerates report narratives synchronously for admins.
	narratives Generator

	// catalog is served to the questionnaire frontend.
	catalog *catalog.Catalog

	// stripe creates PaymentIntents and verifies webhook signatures. Nil
	// when Stripe is not configured; checkout and webhooks then answer 503.
	stripe stripeinternal.Client

	// worker enqueues narrative drafting after submit.
	worker worker.Enqueuer

	// mailer sends transactional emails (links, receipts, release notices).
	mailer email.Sender

	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to http.Server.
func NewServer(
	q db.Querier,
	st Store,
	narratives Generator,
	cat *catalog.Catalog,
	stripeClient stripeinternal.Client,
	enqueuer worker.Enqueuer,
	mailer email.Sender,
	cfg Config,
	logger *slog.Logger,
) http.Handler {
	if cfg.AdminSessionTTL <= 0 {
		cfg.AdminSessionTTL = 12 * time.Hour
	}
	s := &Server{
		q:          q,
		store:      st,
		narratives: narratives,
		catalog:    cat,
		stripe:     stripeClient,
		worker:     enqueuer,
		mailer:     mailer,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(middleware.Timeout(90 * time.Second))

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// ── Short links ───────────────────────────────────────────────────────────
	r.Get("/r/{code}", s.handleShortLink)

	// ── API ───────────────────────────────────────────────────────────────────
	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.handleGetCatalog)

		// Intake and checkout: no auth.
		r.Post("/assessments", s.handleCreateAssessment)
		r.Post("/checkout", s.handleCreateCheckout)

		// Stripe webhook: signature verification inside handler.
		r.Post("/webhooks/stripe", s.handleStripeWebhook)

		// Respondent routes: the short code or token in the URL is the
		// credential.
		r.Route("/assessments/{ref}", func(r chi.Router) {
			r.Get("/", s.handleGetAssessment)
			r.Put("/responses", s.handleSaveResponses)
			r.Post("/submit", s.handleSubmitAssessment)
			r.Get("/report", s.handleGetReport)
		})

		// Admin.
		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.handleAdminLogin)
			r.Post("/logout", s.handleAdminLogout)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/assessments", s.handleAdminListAssessments)
				r.Route("/assessments/{id}", func(r chi.Router) {
					r.Get("/", s.handleAdminGetAssessment)
					r.Post("/narrative", s.handleAdminGenerateNarrative)
					r.Put("/insights", s.handleAdminSetInsights)
					r.Put("/override", s.handleAdminSetOverride)
					r.Post("/release", s.handleAdminRelease)
				})
			})
		})
	})

	return r
}
