package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gratefultolord/badge_approval_bot/internal/approval"
	"github.com/gratefultolord/badge_approval_bot/internal/bot"
)

type pollStep struct {
	status approval.Status
	err    error
}

type fakeBackend struct {
	mu      sync.Mutex
	steps   []pollStep
	calls   int
	userID  int64
	lang    string
	comment *string
}

func (f *fakeBackend) GetRequest(_ context.Context, requestID string) (*approval.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	step := f.steps[len(f.steps)-1]
	if f.calls < len(f.steps) {
		step = f.steps[f.calls]
	}

	f.calls++

	if step.err != nil {
		return nil, step.err
	}

	return &approval.Request{
		ID:       requestID,
		Status:   step.status,
		UserID:   f.userID,
		Language: f.lang,
	}, nil
}

func (f *fakeBackend) LatestComment(_ context.Context, _ string) (*string, error) {
	return f.comment, nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) Send(_ int64, text string, _ [][]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, text)

	return nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.sent...)
}

func newWorker(backend *fakeBackend, sessions *bot.Sessions, sender *fakeSender, keys *Keys, attempts int) *Worker {
	w := NewWorker(backend, sessions, sender, keys, Policy{
		Interval:    time.Minute,
		MaxAttempts: attempts,
	}, zerolog.Nop())

	// No real waiting in tests.
	w.sleep = func(time.Duration) {}

	return w
}

func awaitingSession(sessions *bot.Sessions, chatID int64, requestID string) {
	sessions.Do(chatID, func(state *bot.UserState) {
		state.Step = bot.StepAwaitingDecision
		state.Language = bot.LangEN
		state.ActiveRequestID = requestID
		state.LastRequestID = requestID
		state.SubmittedAt = time.Now()
	})
}

func TestWorkerNotifiesOnApproval(t *testing.T) {
	backend := &fakeBackend{
		steps:  []pollStep{{status: approval.StatusPending}, {status: approval.StatusApproved}},
		userID: 7,
		lang:   bot.LangEN,
	}
	sessions := bot.NewSessions()
	sender := &fakeSender{}
	awaitingSession(sessions, 7, "req-1")

	worker := newWorker(backend, sessions, sender, NewKeys(), 5)
	worker.Run(context.Background(), "req-1")

	require.Len(t, sender.texts(), 1)
	assert.Equal(t, bot.DecisionMessage(bot.LangEN, approval.StatusApproved, nil), sender.texts()[0])

	sessions.Do(7, func(state *bot.UserState) {
		assert.Equal(t, bot.StepMenu, state.Step)
		assert.Empty(t, state.ActiveRequestID)
		assert.Equal(t, "req-1", state.LastRequestID)
	})
}

func TestWorkerDuplicateDeliverySendsOnce(t *testing.T) {
	backend := &fakeBackend{
		steps:  []pollStep{{status: approval.StatusApproved}},
		userID: 7,
		lang:   bot.LangEN,
	}
	sessions := bot.NewSessions()
	sender := &fakeSender{}
	keys := NewKeys()
	awaitingSession(sessions, 7, "req-1")

	worker := newWorker(backend, sessions, sender, keys, 5)

	// Two workers for the same request race on the same decision, as when a
	// webhook is delivered twice.
	var wg sync.WaitGroup

	for i := 0; i < 2; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			worker.Run(context.Background(), "req-1")
		}()
	}

	wg.Wait()

	assert.Len(t, sender.texts(), 1, "decision notification must be at-most-once")
}

func TestWorkerRetriesTransportErrors(t *testing.T) {
	backend := &fakeBackend{
		steps: []pollStep{
			{err: errors.New("timeout")},
			{err: errors.New("timeout")},
			{status: approval.StatusApproved},
		},
		userID: 7,
		lang:   bot.LangEN,
	}
	sessions := bot.NewSessions()
	sender := &fakeSender{}
	awaitingSession(sessions, 7, "req-1")

	worker := newWorker(backend, sessions, sender, NewKeys(), 5)
	worker.Run(context.Background(), "req-1")

	assert.Len(t, sender.texts(), 1)
	assert.Equal(t, 3, backend.calls)
}

func TestWorkerExhaustsAttemptsSilently(t *testing.T) {
	backend := &fakeBackend{
		steps:  []pollStep{{status: approval.StatusPending}},
		userID: 7,
		lang:   bot.LangEN,
	}
	sessions := bot.NewSessions()
	sender := &fakeSender{}
	awaitingSession(sessions, 7, "req-1")

	worker := newWorker(backend, sessions, sender, NewKeys(), 3)
	worker.Run(context.Background(), "req-1")

	assert.Empty(t, sender.texts())
	assert.Equal(t, 3, backend.calls)

	sessions.Do(7, func(state *bot.UserState) {
		assert.Equal(t, bot.StepAwaitingDecision, state.Step, "user stays gated")
	})
}

func TestWorkerRejectionComment(t *testing.T) {
	t.Run("interpolates reviewer comment", func(t *testing.T) {
		backend := &fakeBackend{
			steps:   []pollStep{{status: approval.StatusRejected}},
			userID:  7,
			lang:    bot.LangEN,
			comment: pointer.To("photo is unreadable"),
		}
		sessions := bot.NewSessions()
		sender := &fakeSender{}
		awaitingSession(sessions, 7, "req-1")

		worker := newWorker(backend, sessions, sender, NewKeys(), 3)
		worker.Run(context.Background(), "req-1")

		require.Len(t, sender.texts(), 1)
		assert.Contains(t, sender.texts()[0], "photo is unreadable")
	})

	t.Run("falls back when no comment", func(t *testing.T) {
		backend := &fakeBackend{
			steps:  []pollStep{{status: approval.StatusChangesRequested}},
			userID: 7,
			lang:   bot.LangEN,
		}
		sessions := bot.NewSessions()
		sender := &fakeSender{}
		awaitingSession(sessions, 7, "req-1")

		worker := newWorker(backend, sessions, sender, NewKeys(), 3)
		worker.Run(context.Background(), "req-1")

		require.Len(t, sender.texts(), 1)
		assert.Contains(t, sender.texts()[0], "no reason given")
	})
}

func TestKeysAtomicInsert(t *testing.T) {
	keys := NewKeys()

	const racers = 50

	var (
		wg   sync.WaitGroup
		wins int64
		mu   sync.Mutex
	)

	for i := 0; i < racers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if keys.Insert("req-1", approval.StatusApproved) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int64(1), wins)

	// A different terminal status for the same request is a new key.
	assert.True(t, keys.Insert("req-1", approval.StatusRejected))
	assert.False(t, keys.Insert("req-1", approval.StatusRejected))
}

func TestRegistryCoalescesDuplicateTriggers(t *testing.T) {
	block := make(chan struct{})

	var (
		mu   sync.Mutex
		runs int
	)

	registry := NewRegistry(func(string) {
		mu.Lock()
		runs++
		mu.Unlock()

		<-block
	}, zerolog.Nop())

	runCount := func() int {
		mu.Lock()
		defer mu.Unlock()

		return runs
	}

	require.True(t, registry.Spawn("req-1"))
	require.Eventually(t, func() bool { return runCount() == 1 }, time.Second, time.Millisecond)

	assert.False(t, registry.Spawn("req-1"), "duplicate trigger while running must coalesce")
	assert.True(t, registry.Running("req-1"))
	assert.Equal(t, 1, runCount())

	close(block)

	require.Eventually(t, func() bool {
		return !registry.Running("req-1")
	}, time.Second, 5*time.Millisecond)

	// After the worker exits, a later trigger may respawn.
	require.True(t, registry.Spawn("req-1"))
	require.Eventually(t, func() bool { return runCount() == 2 }, time.Second, time.Millisecond)
}
