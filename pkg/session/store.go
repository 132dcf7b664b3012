// Package session holds the authenticated identity and bearer token, mirrored
// to durable storage. A Store is passed explicitly to every screen that needs it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"auditai/pkg/api"
	"auditai/pkg/logging"

	"go.uber.org/zap"
)

// Durable storage keys. Both are present or both are absent.
const (
	TokenKey = "auditai_token"
	UserKey  = "auditai_user"
)

var ErrEmptyToken = errors.New("backend returned an empty access token")

type User struct {
	Email   string `json:"email"`
	OrgName string `json:"orgName,omitempty"`
}

type Session struct {
	User  User
	Token string
}

// Authenticator is the subset of the API client the store needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*api.TokenResponse, error)
	Register(ctx context.Context, email, password, orgName string) (*api.TokenResponse, error)
}

type Store struct {
	auth    Authenticator
	storage Storage
	log     *zap.SugaredLogger

	mu      sync.RWMutex
	current *Session
	loading bool
}

func NewStore(auth Authenticator, storage Storage, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{auth: auth, storage: storage, log: log}
}

// Load reads durable storage once. Any inconsistency leaves the session absent.
func (s *Store) Load() {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	sess := s.readStored()

	s.mu.Lock()
	s.current = sess
	s.loading = false
	s.mu.Unlock()
}

func (s *Store) readStored() *Session {
	token, hasToken, err := s.storage.Get(TokenKey)
	if err != nil {
		s.log.Debugw("session storage unreadable", "error", err)
		return nil
	}
	rawUser, hasUser, err := s.storage.Get(UserKey)
	if err != nil {
		s.log.Debugw("session storage unreadable", "error", err)
		return nil
	}
	if !hasToken || !hasUser || token == "" {
		return nil
	}
	var u User
	if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
		s.log.Debugw("stored user is malformed", "error", err)
		return nil
	}
	return &Session{User: u, Token: token}
}

// Loading is true only while Load is reading durable storage.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Current returns the active session, if any.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// Token implements api.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Claims decodes the current token, if there is one.
func (s *Store) Claims() (Claims, bool) {
	tok := s.Token()
	if tok == "" {
		return Claims{}, false
	}
	c, err := ParseClaims(tok)
	if err != nil {
		s.log.Debugw("token is not a JWT", "error", err)
		return Claims{}, false
	}
	return c, true
}

func (s *Store) Login(ctx context.Context, email, password string) error {
	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return s.establish(resp, User{Email: email})
}

func (s *Store) Register(ctx context.Context, email, password, orgName string) error {
	resp, err := s.auth.Register(ctx, email, password, orgName)
	if err != nil {
		return err
	}
	return s.establish(resp, User{Email: email, OrgName: orgName})
}

func (s *Store) establish(resp *api.TokenResponse, u User) error {
	if resp == nil || resp.AccessToken == "" {
		return ErrEmptyToken
	}
	rawUser, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.storage.Set(map[string]string{TokenKey: resp.AccessToken, UserKey: string(rawUser)}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.mu.Lock()
	s.current = &Session{User: u, Token: resp.AccessToken}
	s.mu.Unlock()
	s.log.Debugw("session established", "email", u.Email)
	return nil
}

// Logout clears both durable keys and the in-memory session. The memory
// state is cleared even when storage fails.
func (s *Store) Logout() error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if err := s.storage.Remove(TokenKey, UserKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
