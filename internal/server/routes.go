package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nbenali/skillswap/internal/auth"
	"github.com/nbenali/skillswap/internal/chat"
	"github.com/nbenali/skillswap/internal/notification"
	"github.com/nbenali/skillswap/internal/request"
)

type RouterConfig struct {
	RequestHandler      *request.Handler
	NotificationHandler *notification.Handler
	ChatHandler         *chat.Handler
	AuthService         *auth.Service
	Log                 *slog.Logger
}

func NewRouter(config RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware block
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Protected REST surface
	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(config.AuthService, config.Log))

		r.Route("/requests", func(r chi.Router) {
			config.RequestHandler.RegisterRoutes(r)
		})

		r.Route("/notifications", func(r chi.Router) {
			config.NotificationHandler.RegisterRoutes(r)
		})
	})

	// Realtime gateway, authenticates during its own handshake
	r.Route("/ws", func(r chi.Router) {
		config.ChatHandler.RegisterRoutes(r)
	})

	return r
}
