package auth

import (
	"context"
	"sync"
	"time"
)

type memoryOTP struct {
	codeHash  string
	expiresAt time.Time
	attempts  int
}

// MemoryOTPStore is a single-process OTPStore guarded by a mutex
type MemoryOTPStore struct {
	mu          sync.Mutex
	entries     map[string]*memoryOTP
	maxAttempts int
	now         func() time.Time
}

func NewMemoryOTPStore(maxAttempts int) *MemoryOTPStore {
	return &MemoryOTPStore{
		entries:     make(map[string]*memoryOTP),
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

func (s *MemoryOTPStore) Put(_ context.Context, email string, entry OTPEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[email] = &memoryOTP{codeHash: hashToken(entry.Code), expiresAt: entry.ExpiresAt}
	return nil
}

func (s *MemoryOTPStore) Consume(_ context.Context, email, code string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[email]
	if !ok {
		return ErrOTPNotFound
	}
	if e.expiresAt.Before(now) {
		delete(s.entries, email)
		return ErrOTPExpired
	}
	if e.codeHash != hashToken(code) {
		e.attempts++
		if s.maxAttempts > 0 && e.attempts >= s.maxAttempts {
			delete(s.entries, email)
		}
		return ErrOTPInvalid
	}

	delete(s.entries, email)
	return nil
}

func (s *MemoryOTPStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, email)
	return nil
}

// Len returns the number of pending codes
func (s *MemoryOTPStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run evicts entries past expiry (plus the same grace as Redis) every interval until ctx is done
func (s *MemoryOTPStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.evictExpired(s.now())
		}
	}
}

func (s *MemoryOTPStore) evictExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for email, e := range s.entries {
		if e.expiresAt.Add(otpExpiryGrace).Before(now) {
			delete(s.entries, email)
			evicted++
		}
	}
	return evicted
}
