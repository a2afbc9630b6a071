// Package httpapi exposes the plain HTTP surface around the WebSocket upgrade route:
// push subscription endpoints, the liveness probe and the monitoring snapshot.
package httpapi

import (
	"chat-rooms/domain/notification"
	"chat-rooms/errors"
	"chat-rooms/observability"
	"chat-rooms/services"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"
)

const maxBodyBytes = 16 << 10

type PublicKeyResponse struct {
	VAPIDPublicKey string `json:"vapidPublicKey"`
}

type SaveSubscriptionRequest struct {
	Subscription notification.Subscription `json:"subscription"`
	Username     string                    `json:"username"`
}

type successData struct {
	Success bool `json:"success"`
}

type SaveSubscriptionResponse struct {
	Data successData `json:"data"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// StatsProvider returns a point-in-time snapshot of the service counters.
type StatsProvider interface {
	GetLatest() observability.Stats
}

type Handler struct {
	log           *slog.Logger
	subscriptions services.ISubscriptionService
	stats         StatsProvider
}

func NewHandler(log *slog.Logger, subscriptions services.ISubscriptionService, stats StatsProvider) *Handler {
	return &Handler{log: log, subscriptions: subscriptions, stats: stats}
}

// Routes mounts every endpoint on a new mux. chat serves the WebSocket upgrade.
func (h *Handler) Routes(chat http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", chat)
	mux.HandleFunc("GET /vapidPublicKey", h.PublicKey)
	mux.HandleFunc("POST /api/save-subscription/", h.SaveSubscription)
	mux.HandleFunc("GET /healthz", Health)
	mux.HandleFunc("GET /api/monitoring", h.Monitoring)
	return mux
}

func (h *Handler) PublicKey(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, PublicKeyResponse{VAPIDPublicKey: h.subscriptions.PublicKey()})
}

func (h *Handler) SaveSubscription(w http.ResponseWriter, r *http.Request) {
	var request SaveSubscriptionRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&request); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON body"})
		return
	}

	err := h.subscriptions.Save(r.Context(), request.Username, request.Subscription)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, SaveSubscriptionResponse{Data: successData{Success: true}})
	case stderrors.Is(err, errors.ErrInvalidPayload):
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: errors.Reason(err)})
	default:
		h.log.Error("Failed to save subscription", "identity", request.Username, "error", err)
		h.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Subscription could not be saved"})
	}
}

// Health reports liveness only.
func Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) Monitoring(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.stats.GetLatest())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Debug("Failed to write response", "error", err)
	}
}

// NewServer applies the HTTP timeouts used in production.
// WriteTimeout stays zero: hijacked WebSocket connections manage their own deadlines.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
