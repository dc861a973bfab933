package httpapi

import (
	"chat-relay/services"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures the HTTP surface of the relay.
type Options struct {
	AllowedOrigin string
}

// NewRouter wires every HTTP route: login, presence, transcripts, the
// authenticated send endpoint, the websocket upgrade and operational
// endpoints.
func NewRouter(auth services.IAuthService, chat services.IChatService, wsHandler http.Handler, log *slog.Logger, opts Options) http.Handler {
	h := &handlers{auth: auth, chat: chat, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors(opts.AllowedOrigin))

	r.Post("/login", h.login)
	r.Get("/status", h.status)
	r.Get("/healthz", h.healthz)
	r.Get("/groups/{name}/messages", h.groupHistory)
	r.Get("/groups/{name}/search", h.groupSearch)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth(auth, log))
		r.Post("/messages", h.send)
	})

	r.Handle("/ws", wsHandler)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
