package sla

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gratefultolord/badge_approval_bot/internal/bot"
)

// Monitor periodically sweeps sessions gated on an outstanding request and
// sends a one-time "taking longer than usual" notice once the deadline has
// passed. It never changes the session step and never cancels a worker; it
// is an informational side channel only.
type Monitor struct {
	sessions *bot.Sessions
	sender   bot.Sender
	deadline time.Duration
	interval time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

func NewMonitor(
	sessions *bot.Sessions,
	sender bot.Sender,
	deadline time.Duration,
	interval time.Duration,
	logger zerolog.Logger,
) *Monitor {
	return &Monitor{
		sessions: sessions,
		sender:   sender,
		deadline: deadline,
		interval: interval,
		now:      time.Now,
		logger:   logger.With().Str("component", "sla").Logger(),
	}
}

// Run sweeps at the configured interval until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep sends the delay notice to every overdue session that has not been
// notified for its current submission yet.
func (m *Monitor) Sweep() {
	now := m.now()

	for chatID, snapshot := range m.sessions.AwaitingDecision() {
		if snapshot.SLANotified || now.Sub(snapshot.SubmittedAt) <= m.deadline {
			continue
		}

		notified := false

		m.sessions.Do(chatID, func(state *bot.UserState) {
			// Recheck under the lock: the worker may have resolved the
			// request, or a concurrent sweep may have notified already.
			if state.Step != bot.StepAwaitingDecision || state.SLANotified {
				return
			}

			state.SLANotified = true
			notified = true
		})

		if !notified {
			continue
		}

		if err := m.sender.Send(chatID, bot.SLANotice(snapshot.Language), nil); err != nil {
			m.logger.Error().Err(err).Int64("chat_id", chatID).Msg("sla notice failed")
		}

		m.logger.Info().Int64("chat_id", chatID).Str("request_id", snapshot.ActiveRequestID).
			Msg("sla notice sent")
	}
}
