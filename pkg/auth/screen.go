// Package auth implements the login/register screen state.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"auditai/pkg/api"
)

type Mode string

const (
	ModeLogin    Mode = "login"
	ModeRegister Mode = "register"
)

// HealthStatus is the informational backend reachability indicator.
type HealthStatus string

const (
	HealthChecking  HealthStatus = "checking"
	HealthConnected HealthStatus = "connected"
	HealthOffline   HealthStatus = "offline"
)

var ErrMissingCredentials = errors.New("email and password are required")

// SessionStore is what the screen needs from the session package.
type SessionStore interface {
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, email, password, orgName string) error
}

// HealthChecker probes backend liveness.
type HealthChecker interface {
	CheckHealth(ctx context.Context) (*api.Health, error)
}

type Screen struct {
	sessions SessionStore
	health   HealthChecker

	mu       sync.Mutex
	mode     Mode
	orgName  string
	email    string
	password string
	err      string
	status   HealthStatus
	loading  bool
}

func NewScreen(sessions SessionStore, health HealthChecker) *Screen {
	return &Screen{
		sessions: sessions,
		health:   health,
		mode:     ModeLogin,
		status:   HealthChecking,
	}
}

func (s *Screen) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches tabs and clears any shown error. Fields are kept.
func (s *Screen) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m != ModeRegister {
		m = ModeLogin
	}
	s.mode = m
	s.err = ""
}

// Error is the message currently shown, or "".
func (s *Screen) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Screen) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// SetCredentials fills the form fields. orgName is only sent in register mode.
func (s *Screen) SetCredentials(orgName, email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgName, s.email, s.password = orgName, email, password
}

// Credentials returns the current form fields.
func (s *Screen) Credentials() (orgName, email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orgName, s.email, s.password
}

// ClearPassword empties the password field and keeps the rest.
func (s *Screen) ClearPassword() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.password = ""
}

// CanSubmit mirrors the enabled state of the submit control.
func (s *Screen) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.loading && filled(s.email, s.password)
}

func filled(email, password string) bool {
	return strings.TrimSpace(email) != "" && password != ""
}

// Submit runs login or register for the current mode. Any failure is
// recorded as the screen error, replacing the previous one, and returned.
func (s *Screen) Submit(ctx context.Context) error {
	s.mu.Lock()
	mode, email, password, org := s.mode, s.email, s.password, s.orgName
	if !filled(email, password) {
		s.err = ErrMissingCredentials.Error()
		s.mu.Unlock()
		return ErrMissingCredentials
	}
	s.loading = true
	s.err = ""
	s.mu.Unlock()

	var err error
	if mode == ModeRegister {
		err = s.sessions.Register(ctx, email, password, org)
	} else {
		err = s.sessions.Login(ctx, email, password)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err.Error()
	}
	return err
}

// HealthStatus returns the last probe result.
func (s *Screen) HealthStatus() HealthStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// ProbeHealth issues one request to the health endpoint.
func (s *Screen) ProbeHealth(ctx context.Context) HealthStatus {
	s.mu.Lock()
	s.status = HealthChecking
	s.mu.Unlock()

	status := HealthConnected
	if _, err := s.health.CheckHealth(ctx); err != nil {
		status = HealthOffline
	}

	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	return status
}
