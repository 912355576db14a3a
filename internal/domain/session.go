package domain

import (
	"sync"
	"time"
)

type SessionState int

const (
	StateConnecting SessionState = iota
	StateAuthenticated
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session tracks the handshake state of one connection.
// connecting -> authenticated -> closed, or connecting -> closed.
type Session struct {
	ID           string
	UserID       int64
	Username     string
	State        SessionState
	CreatedAt    time.Time
	LastActiveAt time.Time
	mu           sync.RWMutex
}

func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		State:        StateConnecting,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// Authenticate binds the session to a user. It returns false once closed.
func (s *Session) Authenticate(userID int64, username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State == StateClosed {
		return false
	}
	s.UserID = userID
	s.Username = username
	s.State = StateAuthenticated
	s.LastActiveAt = time.Now()
	return true
}

// Close moves the session to closed and reports whether this call did it.
func (s *Session) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State == StateClosed {
		return false
	}
	s.State = StateClosed
	return true
}

// CloseIfConnecting closes a session that never authenticated. It reports
// false when the session already authenticated or closed.
func (s *Session) CloseIfConnecting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State != StateConnecting {
		return false
	}
	s.State = StateClosed
	return true
}

func (s *Session) GetState() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.State
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.State == StateAuthenticated
}

func (s *Session) IsClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.State == StateClosed
}

func (s *Session) GetUserID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.UserID
}

func (s *Session) GetUsername() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Username
}

func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActiveAt = time.Now()
}
