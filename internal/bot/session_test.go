package bot

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionsSerializePerUser(t *testing.T) {
	sessions := NewSessions()

	const turns = 200

	var wg sync.WaitGroup

	for i := 0; i < turns; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			sessions.Do(1, func(state *UserState) {
				// Unsynchronized read-modify-write; only per-user locking
				// keeps the count exact.
				state.Evidence = append(state.Evidence, nil)
			})
		}()
	}

	wg.Wait()

	var got int

	sessions.Do(1, func(state *UserState) {
		got = len(state.Evidence)
	})

	assert.Equal(t, turns, got)
}

func TestSessionsAwaitingDecisionSnapshot(t *testing.T) {
	sessions := NewSessions()

	sessions.Do(1, func(state *UserState) {
		state.Step = StepAwaitingDecision
		state.ActiveRequestID = "req-1"
		state.SubmittedAt = time.Now()
	})
	sessions.Do(2, func(state *UserState) {
		state.Step = StepMenu
	})

	snapshot := sessions.AwaitingDecision()

	require.Len(t, snapshot, 1)
	assert.Equal(t, "req-1", snapshot[1].ActiveRequestID)

	// Mutating the snapshot must not leak into the store.
	entry := snapshot[1]
	entry.SLANotified = true

	sessions.Do(1, func(state *UserState) {
		assert.False(t, state.SLANotified)
	})
}

func TestResetToMenuKeepsLanguageAndLastRequest(t *testing.T) {
	state := UserState{
		Step:            StepAwaitingDecision,
		Language:        LangEN,
		FIO:             "Jane Doe",
		BadgeNumber:     "12345",
		ActiveRequestID: "req-1",
		LastRequestID:   "req-1",
		SubmittedAt:     time.Now(),
		SLANotified:     true,
	}

	state.ResetToMenu()

	assert.Equal(t, StepMenu, state.Step)
	assert.Equal(t, LangEN, state.Language)
	assert.Equal(t, "req-1", state.LastRequestID)
	assert.Empty(t, state.ActiveRequestID)
	assert.Empty(t, state.FIO)
	assert.False(t, state.SLANotified)
	assert.True(t, state.SubmittedAt.IsZero())
}
