package memory

import (
	"context"
	"sync"
)

// SeedLedger remembers which seed sets were applied during this process.
type SeedLedger struct {
	mu      sync.Mutex
	applied map[string]struct{}
}

func NewSeedLedger() *SeedLedger {
	return &SeedLedger{applied: make(map[string]struct{})}
}

func (s *SeedLedger) Claim(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.applied[name]; ok {
		return false, nil
	}
	s.applied[name] = struct{}{}
	return true, nil
}
