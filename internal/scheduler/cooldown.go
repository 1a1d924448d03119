package scheduler

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

// CooldownStore owns the producer → expiry map. TryArm is the only way to
// set an expiry and must check and arm in one atomic step per producer.
type CooldownStore interface {
	Active(ctx context.Context, producer string, now time.Time) (bool, error)
	TryArm(ctx context.Context, producer string, now time.Time, cooldown time.Duration) (bool, error)
}

const cooldownStripes = 32

// MemoryCooldowns is a process-local CooldownStore with striped locking:
// calls for the same producer serialize, producers hashed to different
// stripes never contend.
type MemoryCooldowns struct {
	stripes [cooldownStripes]cooldownStripe
}

type cooldownStripe struct {
	mu     sync.Mutex
	expiry map[string]time.Time
}

func NewMemoryCooldowns() *MemoryCooldowns {
	m := &MemoryCooldowns{}
	for i := range m.stripes {
		m.stripes[i].expiry = make(map[string]time.Time)
	}
	return m
}

func (m *MemoryCooldowns) stripe(producer string) *cooldownStripe {
	h := fnv.New32a()
	_, _ = h.Write([]byte(producer))
	return &m.stripes[h.Sum32()%cooldownStripes]
}

func (m *MemoryCooldowns) Active(_ context.Context, producer string, now time.Time) (bool, error) {
	s := m.stripe(producer)
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.expiry[producer]
	return ok && now.Before(exp), nil
}

func (m *MemoryCooldowns) TryArm(_ context.Context, producer string, now time.Time, cooldown time.Duration) (bool, error) {
	s := m.stripe(producer)
	s.mu.Lock()
	defer s.mu.Unlock()

	if exp, ok := s.expiry[producer]; ok && now.Before(exp) {
		return false, nil
	}
	s.expiry[producer] = now.Add(cooldown)
	return true, nil
}

// expiry returns the armed expiry of a producer, if any.
func (m *MemoryCooldowns) expiry(producer string) (time.Time, bool) {
	s := m.stripe(producer)
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.expiry[producer]
	return exp, ok
}
