package reconcile

import (
	"sync"

	"github.com/gratefultolord/badge_approval_bot/internal/approval"
)

// Keys is the set of (request id, terminal status) pairs already acted upon.
// It is what makes decision notifications at-most-once: duplicate webhook
// deliveries and overlapping pollers for the same decision all funnel
// through Insert, and only the first one wins.
type Keys struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewKeys() *Keys {
	return &Keys{seen: make(map[string]struct{})}
}

// Insert records the pair and reports whether it was newly inserted. The
// check and the insert happen under one lock, so two near-simultaneous
// observations of the same decision cannot both pass.
func (k *Keys) Insert(requestID string, status approval.Status) bool {
	key := requestID + "|" + string(status)

	k.mu.Lock()
	defer k.mu.Unlock()

	if _, ok := k.seen[key]; ok {
		return false
	}

	k.seen[key] = struct{}{}

	return true
}
