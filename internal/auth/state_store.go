package auth

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"
)

// 登录 state 的有效期
const stateTTL = 10 * time.Minute

type stateStore struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string]time.Time
}

func newStateStore(now func() time.Time) *stateStore {
	return &stateStore{
		now:   now,
		items: make(map[string]time.Time),
	}
}

func (s *stateStore) issue() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(s.now())

	state := newRandomToken(24)
	s.items[state] = s.now().Add(stateTTL)
	return state
}

// consume 校验并作废 state，每个 state 只能使用一次
func (s *stateStore) consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.items[state]
	if !ok {
		return false
	}
	delete(s.items, state)
	return !s.now().After(expiresAt)
}

func (s *stateStore) purgeExpiredLocked(now time.Time) {
	for k, exp := range s.items {
		if now.After(exp) {
			delete(s.items, k)
		}
	}
}

func newRandomToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
