package uiaccess

import (
	"errors"
	"sync"
	"time"

	"github.com/odyssey-hr/odyssey-hr/internal/claims"
)

// ErrNoSession is returned when no token is cached.
var ErrNoSession = errors.New("uiaccess: no session")

// Store persists the cached token and its decoded claim between runs.
type Store interface {
	Load() (token string, err error)
	Save(token string, claim claims.SessionClaim) error
	Clear() error
}

// SessionContext holds the raw token and its unverified claim. Refresh is
// the only place where both change together.
type SessionContext struct {
	mu    sync.RWMutex
	token string
	claim claims.SessionClaim
	store Store
	now   func() time.Time
}

// NewSessionContext creates an empty session. store may be nil.
func NewSessionContext(store Store) *SessionContext {
	return &SessionContext{store: store, now: time.Now}
}

// Restore loads a previously saved token. A missing or undecodable token
// leaves the session empty.
func (s *SessionContext) Restore() error {
	if s.store == nil {
		return ErrNoSession
	}
	token, err := s.store.Load()
	if err != nil {
		return err
	}
	if token == "" {
		return ErrNoSession
	}
	return s.Refresh(token)
}

// Refresh replaces the cached token and claim. On a malformed token the
// session is cleared and the decode error returned.
func (s *SessionContext) Refresh(token string) error {
	claim, err := claims.DecodeUnverified(token)
	if err != nil {
		if clearErr := s.Clear(); clearErr != nil {
			return errors.Join(err, clearErr)
		}
		return err
	}
	s.mu.Lock()
	s.token = token
	s.claim = claim
	s.mu.Unlock()
	if s.store != nil {
		return s.store.Save(token, claim)
	}
	return nil
}

// Clear drops the token and claim, as on logout or any 401 response.
func (s *SessionContext) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.claim = claims.SessionClaim{}
	s.mu.Unlock()
	if s.store != nil {
		return s.store.Clear()
	}
	return nil
}

// Token returns the cached bearer token.
func (s *SessionContext) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Claim returns the cached claim while it is present and unexpired.
func (s *SessionContext) Claim() (claims.SessionClaim, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || s.claim.Expired(s.now()) {
		return claims.SessionClaim{}, false
	}
	return s.claim, true
}
