package dedup

import (
	"context"
	"encoding/hex"
	"sync"

	"github.com/zeebo/blake3"
)

// Store is the global set of evidence fingerprints accepted so far, across all
// users. Recording an existing fingerprint is a no-op, not an error.
type Store interface {
	Exists(ctx context.Context, fingerprint string) (bool, error)
	Record(ctx context.Context, fingerprint string) error
}

// Fingerprint derives the content digest of one evidence item.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)

	return hex.EncodeToString(sum[:])
}

// MemoryStore keeps fingerprints in process memory. Used in tests and as a
// fallback when no database is configured.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

func (s *MemoryStore) Exists(_ context.Context, fingerprint string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.seen[fingerprint]

	return ok, nil
}

func (s *MemoryStore) Record(_ context.Context, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen[fingerprint] = struct{}{}

	return nil
}
