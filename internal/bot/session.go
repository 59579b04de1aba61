package bot

import "sync"

// Sessions maps a Telegram chat id to that user's conversation state. All
// reads and mutations go through Do, which serializes turns per user: rapid
// duplicate deliveries for one chat never interleave, while different chats
// proceed concurrently. Background tasks (reconciliation workers, the SLA
// monitor) mutate sessions through the same gate.
type Sessions struct {
	mu      sync.Mutex
	entries map[int64]*sessionEntry
}

type sessionEntry struct {
	mu    sync.Mutex
	state UserState
}

func NewSessions() *Sessions {
	return &Sessions{entries: make(map[int64]*sessionEntry)}
}

// Do runs fn with exclusive access to the user's state, creating a fresh
// session on first contact (zero Step, handled by the engine as a new user).
func (s *Sessions) Do(chatID int64, fn func(state *UserState)) {
	s.mu.Lock()

	entry, ok := s.entries[chatID]
	if !ok {
		entry = &sessionEntry{}
		s.entries[chatID] = entry
	}

	s.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	fn(&entry.state)
}

// AwaitingDecision returns a copy of every session currently gated on an
// outstanding request. Evidence is never part of these snapshots: it is
// released on submission, before a session can appear here.
func (s *Sessions) AwaitingDecision() map[int64]UserState {
	s.mu.Lock()

	ids := make([]int64, 0, len(s.entries))
	for chatID := range s.entries {
		ids = append(ids, chatID)
	}

	s.mu.Unlock()

	out := make(map[int64]UserState)

	for _, chatID := range ids {
		s.Do(chatID, func(state *UserState) {
			if state.Step == StepAwaitingDecision {
				out[chatID] = *state
			}
		})
	}

	return out
}
