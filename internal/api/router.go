// Package api serves the marketplace over HTTP. Every signed-in token owns
// one navigation session.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/erazemk/fixitforward/internal/catalog"
	"github.com/erazemk/fixitforward/internal/events"
	"github.com/erazemk/fixitforward/internal/imaging"
	"github.com/erazemk/fixitforward/internal/metrics"
	"github.com/erazemk/fixitforward/internal/navigation"
	"github.com/erazemk/fixitforward/internal/negotiation"
	"github.com/erazemk/fixitforward/internal/session"
)

// Server holds the services behind the routes.
type Server struct {
	Catalog     *catalog.Catalog
	Chat        *negotiation.Engine
	Images      *imaging.Library
	Accounts    navigation.AccountRecorder
	Revocations Revocations
	Sessions    *session.Manager
	Publisher   events.Publisher
	Metrics     *metrics.Metrics // nil disables /metrics
	JWTSecret   string
	Log         *zap.Logger
}

func (s *Server) newController() *navigation.Controller {
	opts := []navigation.Option{navigation.WithLogger(s.Log)}
	if s.Accounts != nil {
		opts = append(opts, navigation.WithAccounts(s.Accounts))
	}
	if s.Publisher != nil {
		opts = append(opts, navigation.WithPublisher(s.Publisher))
	}
	return navigation.New(s.Catalog, s.Chat, opts...)
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(s *Server) http.Handler {
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	if s.Sessions == nil {
		s.Sessions = session.NewManager()
	}

	authHandler := &AuthHandler{s}
	sessionHandler := &SessionHandler{s}
	itemsHandler := &ItemsHandler{s}
	chatHandler := &ChatHandler{s}

	r := chi.NewRouter()
	if s.Metrics != nil {
		r.Use(s.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}
	r.Use(LoggingMiddleware(s.Log))

	// Public: login and signup.
	r.Post("/api/auth/login", authHandler.Login)
	r.Post("/api/auth/signup", authHandler.Signup)

	// Authenticated routes.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.JWTSecret, s.Revocations, s.Sessions))

		r.Post("/api/auth/logout", authHandler.Logout)

		r.Get("/api/session", sessionHandler.Get)
		r.Post("/api/session/events", sessionHandler.Dispatch)

		r.Get("/api/items", itemsHandler.List)
		r.Get("/api/items/{id}", itemsHandler.Get)
		r.Put("/api/items/{id}/image", itemsHandler.UploadImage)
		r.Get("/api/items/{id}/image", itemsHandler.GetImage)

		r.Get("/api/items/{id}/chat", chatHandler.Get)
		r.Post("/api/items/{id}/chat/messages", chatHandler.PostMessage)
		r.Put("/api/items/{id}/chat/pending", chatHandler.Compose)
		r.Delete("/api/items/{id}/chat/pending", chatHandler.Cancel)
		r.Post("/api/items/{id}/chat/offer", chatHandler.Propose)
		r.Delete("/api/items/{id}/chat/offer", chatHandler.Deny)
	})

	return r
}
