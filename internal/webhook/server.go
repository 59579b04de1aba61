package webhook

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Spawner triggers a reconciliation worker for a request id. Duplicate
// triggers for a running worker are coalesced by the implementation.
type Spawner interface {
	Spawn(requestID string) bool
}

// eventBatch is the approval backend's webhook payload: a batch of events,
// each referencing the task it concerns.
type eventBatch struct {
	Events []struct {
		Resource struct {
			ID string `json:"id"`
		} `json:"resource"`
	} `json:"events"`
}

// Handler serves the process's small HTTP surface: a health endpoint for the
// hosting platform, the chat transport's webhook acknowledgment, and the
// approval backend's event feed.
type Handler struct {
	spawner Spawner
	logger  zerolog.Logger
}

func NewHandler(spawner Spawner, logger zerolog.Logger) *Handler {
	return &Handler{
		spawner: spawner,
		logger:  logger.With().Str("component", "webhook").Logger(),
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", h.health)
	r.Post("/telegram", h.telegramAck)
	r.Post("/approval", h.approvalEvents)

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// telegramAck exists only so the transport's webhook configuration gets a
// 200; updates are consumed via long polling.
func (h *Handler) telegramAck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handler) approvalEvents(w http.ResponseWriter, r *http.Request) {
	// The backend's webhook handshake sends a secret header and expects it
	// echoed back before it starts delivering events.
	if secret := r.Header.Get("X-Hook-Secret"); secret != "" {
		w.Header().Set("X-Hook-Secret", secret)
		w.WriteHeader(http.StatusOK)

		return
	}

	var batch eventBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		h.logger.Warn().Err(err).Msg("malformed event batch")
		http.Error(w, "bad request", http.StatusBadRequest)

		return
	}

	for _, event := range batch.Events {
		if event.Resource.ID == "" {
			continue
		}

		h.spawner.Spawn(event.Resource.ID)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
