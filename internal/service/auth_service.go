package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// DefaultSessionTTL is how long a login stays valid.
const DefaultSessionTTL = 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("invalid or expired session")
	ErrWeakPassword       = errors.New("new password must be at least 6 characters")
)

// CredentialVerifier is the pluggable credential check behind login. The
// default is a single shared admin credential; a multi-user store can
// replace it without touching the token logic.
type CredentialVerifier interface {
	Verify(username, password string) bool
}

// StaticCredentials verifies against one configured username and a
// hex-encoded sha256 password digest held in the environment.
type StaticCredentials struct {
	Username     string
	PasswordHash string
}

func (c StaticCredentials) Verify(username, password string) bool {
	sum := sha256.Sum256([]byte(password))
	digest := hex.EncodeToString(sum[:])

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(digest), []byte(c.PasswordHash)) == 1
	return userOK && passOK
}

// Session is one authenticated admin session. Sessions live in process
// memory only; a restart invalidates all of them.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthService defines the session authentication business logic
type AuthService interface {
	Login(username, password string) (Session, error)
	Verify(token string) (Session, error)
	Logout(token string)
	ChangePassword(token, currentPassword, newPassword string) error
}

type authService struct {
	creds CredentialVerifier
	ttl   time.Duration

	mu       sync.RWMutex
	sessions map[string]Session

	now func() time.Time // swapped in tests
}

// NewAuthService creates a new instance of AuthService. The session map is
// created here and cleared only by logout, expiry, or process restart.
func NewAuthService(creds CredentialVerifier, ttl time.Duration) AuthService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &authService{
		creds:    creds,
		ttl:      ttl,
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// Login checks the credential and issues a random bearer token. Which of
// username or password was wrong is never surfaced.
func (s *authService) Login(username, password string) (Session, error) {
	if !s.creds.Verify(username, password) {
		return Session{}, ErrInvalidCredentials
	}

	session := Session{
		Token:     generateSessionToken(),
		Username:  username,
		ExpiresAt: s.now().Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session, nil
}

// Verify resolves a token to its session. Absent or expired tokens are
// evicted and rejected.
func (s *authService) Verify(token string) (Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return Session{}, ErrUnauthorized
	}

	if s.now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return Session{}, ErrUnauthorized
	}

	return session, nil
}

// Logout removes the token unconditionally; absent tokens are not an error.
func (s *authService) Logout(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// ChangePassword requires a live session and the correct current password.
// The credential itself lives in the environment, so nothing is persisted;
// callers are told to update the configured hash.
func (s *authService) ChangePassword(token, currentPassword, newPassword string) error {
	session, err := s.Verify(token)
	if err != nil {
		return err
	}

	if !s.creds.Verify(session.Username, currentPassword) {
		return ErrInvalidCredentials
	}

	if len(newPassword) < 6 {
		return ErrWeakPassword
	}

	return nil
}

// generateSessionToken returns 256 bits of hex-encoded randomness.
func generateSessionToken() string {
	buf := make([]byte, 32)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
