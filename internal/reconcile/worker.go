package reconcile

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gratefultolord/badge_approval_bot/internal/approval"
	"github.com/gratefultolord/badge_approval_bot/internal/bot"
)

// Backend is the slice of the approval client the worker needs.
type Backend interface {
	GetRequest(ctx context.Context, requestID string) (*approval.Request, error)
	LatestComment(ctx context.Context, requestID string) (*string, error)
}

// Policy bounds the polling loop: one status fetch per interval, up to
// MaxAttempts fetches total.
type Policy struct {
	Interval    time.Duration
	MaxAttempts int
}

// Worker polls one request until it observes a terminal decision, then
// notifies the submitter exactly once per (request, decision) pair and
// resets their session to the menu. Several workers may run concurrently
// for different requests; overlap on the same request is harmless because
// the dedup keys gate the notification.
type Worker struct {
	backend  Backend
	sessions *bot.Sessions
	sender   bot.Sender
	keys     *Keys
	policy   Policy
	sleep    func(time.Duration)
	logger   zerolog.Logger
}

func NewWorker(
	backend Backend,
	sessions *bot.Sessions,
	sender bot.Sender,
	keys *Keys,
	policy Policy,
	logger zerolog.Logger,
) *Worker {
	return &Worker{
		backend:  backend,
		sessions: sessions,
		sender:   sender,
		keys:     keys,
		policy:   policy,
		sleep:    time.Sleep,
		logger:   logger.With().Str("component", "reconcile").Logger(),
	}
}

// Run polls until a terminal status, a context cancellation, or attempt
// exhaustion. Transport errors skip the attempt and are retried on the next
// interval; they never kill the loop.
func (w *Worker) Run(ctx context.Context, requestID string) {
	for attempt := 0; attempt < w.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			w.sleep(w.policy.Interval)
		}

		if ctx.Err() != nil {
			return
		}

		req, err := w.backend.GetRequest(ctx, requestID)
		if err != nil {
			w.logger.Warn().Err(err).Str("request_id", requestID).Msg("status poll failed")
			continue
		}

		if !req.Status.Terminal() {
			continue
		}

		w.resolve(ctx, req)

		return
	}

	// Known gap: the user stays gated until a later webhook respawns a
	// worker for this request. The registry allows that respawn.
	w.logger.Warn().Str("request_id", requestID).Int("attempts", w.policy.MaxAttempts).
		Msg("poll attempts exhausted without a decision")
}

func (w *Worker) resolve(ctx context.Context, req *approval.Request) {
	if !w.keys.Insert(req.ID, req.Status) {
		return
	}

	var comment *string

	if req.Status == approval.StatusRejected || req.Status == approval.StatusChangesRequested {
		var err error

		comment, err = w.backend.LatestComment(ctx, req.ID)
		if err != nil {
			w.logger.Warn().Err(err).Str("request_id", req.ID).Msg("comment fetch failed")
			comment = nil
		}
	}

	text := bot.DecisionMessage(req.Language, req.Status, comment)

	if err := w.sender.Send(req.UserID, text, bot.MenuKeyboard(req.Language)); err != nil {
		w.logger.Error().Err(err).Str("request_id", req.ID).Msg("decision notification failed")
	}

	w.sessions.Do(req.UserID, func(state *bot.UserState) {
		if state.Language == "" {
			state.Language = req.Language
		}

		state.LastRequestID = req.ID
		state.ResetToMenu()
	})

	w.logger.Info().Str("request_id", req.ID).Str("status", string(req.Status)).
		Int64("user_id", req.UserID).Msg("decision delivered")
}
