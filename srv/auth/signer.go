// Package auth provides common tools and interfaces for user authentication
// and authorization.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/mb0/xelf/cor"
	"golang.org/x/crypto/bcrypt"
)

// Signer hashes and verifies user passwords.
type Signer interface {
	Sign(pass string) (string, error)
	Verify(hash, pass string) error
}

// Bcrypt implements signer using the bcrypt hash algorithm.
type Bcrypt struct {
	Cost int
}

func (v *Bcrypt) Sign(pass string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), v.Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (v *Bcrypt) Verify(hash, pass string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass))
}

// Sessions is an in-memory session token store with expiry.
type Sessions struct {
	sync.RWMutex
	TTL  time.Duration
	sess map[string]sess
}

// NewSessions returns a new session store where tokens expire after ttl, or
// never if ttl is zero.
func NewSessions(ttl time.Duration) *Sessions { return &Sessions{TTL: ttl} }

// New creates, stores and returns a new random token for user.
func (s *Sessions) New(user string) (string, error) {
	var b [18]byte
	_, err := rand.Read(b[:])
	if err != nil {
		return "", err
	}
	tok := base64.RawURLEncoding.EncodeToString(b[:])
	s.Lock()
	defer s.Unlock()
	if s.sess == nil {
		s.sess = make(map[string]sess)
	}
	var end time.Time
	if s.TTL > 0 {
		end = time.Now().Add(s.TTL)
	}
	s.sess[tok] = sess{user, end}
	return tok, nil
}

// User returns the user of an active session token or an error.
func (s *Sessions) User(tok string) (string, error) {
	s.RLock()
	e, ok := s.sess[tok]
	s.RUnlock()
	if !ok {
		return "", cor.Error("no session for token")
	}
	if !e.end.IsZero() && time.Now().After(e.end) {
		s.Delete(tok)
		return "", cor.Error("session expired")
	}
	return e.user, nil
}

// Delete drops the session token from the store.
func (s *Sessions) Delete(tok string) {
	s.Lock()
	defer s.Unlock()
	delete(s.sess, tok)
}

type sess struct {
	user string
	end  time.Time
}
