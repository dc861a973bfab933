package ws

import (
	"chat-relay/errors"
	"chat-relay/services"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultSinkBuffer   = 32
	defaultWriteTimeout = 10 * time.Second
)

// Handler upgrades authenticated HTTP requests to websocket sessions and
// attaches each one to the router through the chat service.
type Handler struct {
	auth          services.IAuthService
	chat          services.IChatService
	log           *slog.Logger
	upgrader      websocket.Upgrader
	sinkBuffer    int
	writeTimeout  time.Duration
	allowedOrigin string
}

type HandlerOptions struct {
	AllowedOrigin string
	SinkBuffer    int
	WriteTimeout  time.Duration
}

func NewHandler(auth services.IAuthService, chat services.IChatService, log *slog.Logger, opts HandlerOptions) *Handler {
	if opts.SinkBuffer <= 0 {
		opts.SinkBuffer = defaultSinkBuffer
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	h := &Handler{
		auth:          auth,
		chat:          chat,
		log:           log,
		sinkBuffer:    opts.SinkBuffer,
		writeTimeout:  opts.WriteTimeout,
		allowedOrigin: opts.AllowedOrigin,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin accepts same-host clients (no Origin header) and the single
// configured browser origin.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || origin == h.allowedOrigin
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	identity, err := h.auth.Authenticate(token)
	if err != nil {
		// Reject before the upgrade so browser clients get a clean 401.
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "identity", identity, "error", err)
		return
	}

	sink := NewSink(h.sinkBuffer)
	c := &client{
		identity:     identity,
		conn:         conn,
		sink:         sink,
		chat:         h.chat,
		log:          h.log,
		writeTimeout: h.writeTimeout,
		closeCode:    websocket.CloseNormalClosure,
	}

	// The write pump must be running before Connect: registering drains the
	// identity's mailbox into the sink, and a backlog larger than the sink
	// buffer would otherwise overflow mid-drain with nothing consuming it.
	go c.writePump()

	if err := h.chat.Connect(r.Context(), identity, sink); err != nil {
		h.log.Warn("Connection refused", "identity", identity, "error", err)
		c.closeCode = websocket.CloseInternalServerErr
		if stderrors.Is(err, errors.ErrUnauthorizedIdentity) {
			c.closeCode = websocket.ClosePolicyViolation
		}
		sink.Close()
		return
	}

	h.log.Info("Identity connected", "identity", identity)
	c.readPump(r.Context())
}
