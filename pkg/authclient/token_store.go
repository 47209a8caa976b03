package authclient

import (
	"sync"

	"golang.org/x/oauth2"
)

// TokenStore persists the client's current token pair. Implementations must
// be safe for concurrent use.
type TokenStore interface {
	// Token returns the current token, or nil when logged out.
	Token() (*oauth2.Token, error)
	SetToken(token *oauth2.Token) error
	Clear() error
}

// MemoryTokenStore keeps the token pair in process memory.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token *oauth2.Token
}

// NewMemoryTokenStore returns an empty MemoryTokenStore.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return nil, nil
	}
	t := *s.token
	return &t, nil
}

func (s *MemoryTokenStore) SetToken(token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == nil {
		s.token = nil
		return nil
	}
	t := *token
	s.token = &t
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	return s.SetToken(nil)
}
