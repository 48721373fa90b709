// Package session holds the authenticated identity and persists it between runs.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/theirongolddev/budgetplanner/internal/gateway"
	"github.com/theirongolddev/budgetplanner/internal/model"

	log "github.com/sirupsen/logrus"
)

// Keys used in the persisted store.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

var (
	// ErrLoginFailed wraps any failure of the login call.
	ErrLoginFailed = errors.New("login failed, please check your credentials")
	// ErrRegisterFailed wraps any failure of the register call.
	ErrRegisterFailed = errors.New("registration failed, please try again")
)

// Authenticator is the subset of the gateway used for login and registration.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (gateway.AuthResponse, error)
	Register(ctx context.Context, req gateway.RegisterRequest) (gateway.AuthResponse, error)
}

// Manager owns the current session. It starts in the validating state and
// reports no session until Restore has run.
type Manager struct {
	store Store
	auth  Authenticator

	mu         sync.RWMutex
	current    *model.Session
	validating bool
	subs       []func(*model.Session)
}

// NewManager returns a manager backed by store. auth may be nil when only
// Restore and Logout are needed.
func NewManager(store Store, auth Authenticator) *Manager {
	return &Manager{
		store:      store,
		auth:       auth,
		validating: true,
	}
}

// Subscribe registers fn to be called with the new session after every change.
// fn receives nil when the session ends.
func (m *Manager) Subscribe(fn func(*model.Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// Current returns the active session. It reports false while validating.
func (m *Manager) Current() (model.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.validating || m.current == nil {
		return model.Session{}, false
	}
	return *m.current, true
}

// Validating reports whether Restore has not finished yet.
func (m *Manager) Validating() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.validating
}

// Token returns the bearer token of the active session, or "".
func (m *Manager) Token() string {
	s, ok := m.Current()
	if !ok {
		return ""
	}
	return s.Token
}

// Restore reads the persisted token and user record and accepts them as the
// session without a server round trip. A corrupt user record clears both keys.
// The validating flag is cleared on every path.
func (m *Manager) Restore(_ context.Context) error {
	sess, err := m.readPersisted()

	m.mu.Lock()
	m.validating = false
	if err == nil {
		m.current = sess
	}
	m.mu.Unlock()

	if err != nil {
		log.WithError(err).Warn("session restore failed, clearing stored session")
		if delErr := m.store.Delete(KeyToken, KeyUser); delErr != nil {
			return fmt.Errorf("clearing session: %w", delErr)
		}
		m.notify(nil)
		return err
	}
	m.notify(sess)
	return nil
}

func (m *Manager) readPersisted() (*model.Session, error) {
	token, hasToken, err := m.store.Get(KeyToken)
	if err != nil {
		return nil, fmt.Errorf("reading token: %w", err)
	}
	raw, hasUser, err := m.store.Get(KeyUser)
	if err != nil {
		return nil, fmt.Errorf("reading user: %w", err)
	}
	if !hasToken || !hasUser {
		return nil, nil
	}

	var u model.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("parsing stored user: %w", err)
	}
	return &model.Session{User: u, Token: token}, nil
}

// Login authenticates with the service and persists the resulting session.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	if m.auth == nil {
		return errors.New("session: no authenticator configured")
	}
	resp, err := m.auth.Login(ctx, username, password)
	if err != nil {
		log.WithError(err).WithField("username", username).Debug("login call failed")
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	return m.begin(resp, username)
}

// Register creates an account and persists the resulting session.
func (m *Manager) Register(ctx context.Context, name, username, password string) error {
	if m.auth == nil {
		return errors.New("session: no authenticator configured")
	}
	resp, err := m.auth.Register(ctx, gateway.RegisterRequest{
		Name:     name,
		Username: username,
		Password: password,
	})
	if err != nil {
		log.WithError(err).WithField("username", username).Debug("register call failed")
		return fmt.Errorf("%w: %w", ErrRegisterFailed, err)
	}
	if resp.Name == "" {
		resp.Name = name
	}
	return m.begin(resp, username)
}

func (m *Manager) begin(resp gateway.AuthResponse, username string) error {
	u := model.User{
		ID:       resp.ID,
		Name:     resp.Name,
		Username: resp.Username,
	}
	if u.Username == "" {
		u.Username = username
	}
	sess := &model.Session{User: u, Token: resp.Token}

	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	if err := m.store.Set(KeyToken, resp.Token); err != nil {
		return fmt.Errorf("persisting token: %w", err)
	}
	if err := m.store.Set(KeyUser, string(data)); err != nil {
		return fmt.Errorf("persisting user: %w", err)
	}

	m.mu.Lock()
	m.current = sess
	m.validating = false
	m.mu.Unlock()

	log.WithFields(log.Fields{"user_id": u.ID, "username": u.Username}).Info("session started")
	m.notify(sess)
	return nil
}

// Logout ends the session in memory and in the store. Subscribers are
// notified even if clearing the store fails.
func (m *Manager) Logout() error {
	m.mu.Lock()
	had := m.current != nil
	m.current = nil
	m.mu.Unlock()

	err := m.store.Delete(KeyToken, KeyUser)
	if had {
		log.Info("session ended")
		m.notify(nil)
	}
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

func (m *Manager) notify(sess *model.Session) {
	m.mu.RLock()
	subs := make([]func(*model.Session), len(m.subs))
	copy(subs, m.subs)
	m.mu.RUnlock()

	for _, fn := range subs {
		fn(sess)
	}
}
