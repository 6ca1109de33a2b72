package handler

import (
	"strings"
	"sync"

	"github.com/cuongbtq/render-jobs/internal/domain"
)

// Session holds the wallet and endpoint settings of the render host.
// The wallet starts disconnected; Connect must be called before submitting.
type Session struct {
	mu    sync.RWMutex
	creds domain.Credentials
}

// NewSession creates a disconnected session for creds
func NewSession(creds domain.Credentials) *Session {
	creds.Connected = false
	return &Session{creds: creds}
}

// Connect marks the wallet connected, optionally switching to address first
func (s *Session) Connect(address string) (domain.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if address = strings.TrimSpace(address); address != "" {
		s.creds.WalletAddress = address
	}
	if s.creds.WalletAddress == "" {
		return s.creds, domain.ErrNotConnected
	}
	s.creds.Connected = true
	return s.creds, nil
}

// Disconnect clears the connected flag
func (s *Session) Disconnect() domain.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds.Connected = false
	return s.creds
}

// Credentials returns a snapshot for one operation
func (s *Session) Credentials() domain.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}
