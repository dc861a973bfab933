package httpapi

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/services"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

type handlers struct {
	auth services.IAuthService
	chat services.IChatService
	log  *slog.Logger
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type sendRequest struct {
	Recipient string `json:"recipient,omitempty"`
	Group     string `json:"group,omitempty"`
	Text      string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, errors.MapToHTTPStatus(err), err.Error())
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: string(token)})
}

// status returns the presence snapshot for every known identity.
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.chat.PresenceSnapshot(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// send routes one message on behalf of the authenticated identity. The body
// must address exactly one of recipient or group.
func (h *handlers) send(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	probe := domain.Message{Recipient: req.Recipient, Group: req.Group}
	if probe.AmbiguousAddressing() {
		writeDomainError(w, errors.ErrMalformedFrame)
		return
	}

	var err error
	if probe.Direct() {
		err = h.chat.SendDirect(r.Context(), identity, req.Recipient, req.Text)
	} else {
		err = h.chat.SendGroup(r.Context(), identity, req.Group, req.Text)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *handlers) groupHistory(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "name")
	records, err := h.chat.GroupHistory(group)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if records == nil {
		records = []domain.TranscriptRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *handlers) groupSearch(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "name")
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxSearchLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	records, err := h.chat.SearchGroup(r.Context(), group, query, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if records == nil {
		records = []domain.TranscriptRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
