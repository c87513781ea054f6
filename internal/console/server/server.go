package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xela07ax/fraudwatch-console/internal/console/handler"
	"github.com/xela07ax/fraudwatch-console/internal/domain"
	"github.com/xela07ax/fraudwatch-console/internal/engine"
	"github.com/xela07ax/fraudwatch-console/internal/infra/auth"
	"go.uber.org/zap"
)

type ConsoleServer struct {
	router *chi.Mux
	logger *zap.Logger

	// Интерфейс для проверки токенов (RS256). nil — авторизация выключена
	authValidator auth.TokenValidator

	// Обработчики
	authHandler    *handler.AuthHandler      // /auth/token
	dashHandler    *handler.DashboardHandler // /api/v1/dashboard, transactions, uploads, predict
	reviewHandler  *handler.ReviewHandler    // /api/v1/reviews
	journalHandler *handler.JournalHandler   // /api/v1/journal
}

type Handlers struct {
	Auth      *handler.AuthHandler
	Dashboard *handler.DashboardHandler
	Review    *handler.ReviewHandler
	Journal   *handler.JournalHandler
}

// NewConsoleServer инициализирует BFF консоли со всеми зависимостями
func NewConsoleServer(logger *zap.Logger, validator auth.TokenValidator, h Handlers) *ConsoleServer {
	s := &ConsoleServer{
		router:         chi.NewRouter(),
		logger:         logger.Named("console-api"),
		authValidator:  validator,
		authHandler:    h.Auth,
		dashHandler:    h.Dashboard,
		reviewHandler:  h.Review,
		journalHandler: h.Journal,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(engine.TracingMiddleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ ---
	r.Group(func(r chi.Router) {
		if s.authHandler != nil {
			r.Post("/auth/token", s.authHandler.Login)
		}
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР ---
	r.Route("/api/v1", func(r chi.Router) {
		if s.authValidator != nil {
			r.Use(auth.NewMiddleware(s.authValidator, s.logger))
		}

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireScope(domain.ScopeDashboardRead))
			r.Get("/dashboard", s.dashHandler.Get)
			r.Get("/transactions", s.dashHandler.Transactions)
			r.Post("/transactions/page/{direction}", s.dashHandler.Navigate)
			r.Get("/reviews", s.reviewHandler.List)
			r.Get("/journal", s.journalHandler.Recent)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireScope(domain.ScopeUploadWrite))
			r.Post("/uploads", s.dashHandler.Upload)
			r.Post("/predict", s.dashHandler.Predict)
		})

		// Human-in-the-loop
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireScope(domain.ScopeReviewWrite))
			r.Post("/reviews/{id}/select", s.reviewHandler.Select)
			r.Post("/reviews/verdict", s.reviewHandler.Verdict)
		})
	})
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
