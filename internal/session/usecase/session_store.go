package usecase

import (
	"context"
	"fmt"
	"sync"

	"melodiapp-web/internal/session/domain/model"
	"melodiapp-web/internal/session/domain/repository"
	"melodiapp-web/internal/shared/eventbus"
	"melodiapp-web/internal/shared/logger"

	"go.uber.org/zap"
)

// RootPath is where a tab is sent after its session was cleared.
const RootPath = "/"

const eventSource = "session_store"

// SessionStore holds the authentication state of one tab.
//
// Token and role only change through SetSession and ClearSession. The role is
// non-empty only while the current token decoded successfully.
type SessionStore struct {
	tabID string

	mu    sync.RWMutex
	token string
	role  string

	initMu      sync.Mutex
	initialized bool

	storage   repository.TabStorage
	decoder   repository.TokenDecoder
	navigator repository.Navigator
	bus       eventbus.EventBusInterface
	logger    logger.Logger
}

// StoreDeps are the collaborators shared by every tab store.
type StoreDeps struct {
	Storage   repository.TabStorage
	Decoder   repository.TokenDecoder
	Navigator repository.Navigator
	Bus       eventbus.EventBusInterface // optional
	Logger    logger.Logger              // optional
}

func (d StoreDeps) validate() error {
	if d.Storage == nil {
		return fmt.Errorf("tab storage is required")
	}
	if d.Decoder == nil {
		return fmt.Errorf("token decoder is required")
	}
	if d.Navigator == nil {
		return fmt.Errorf("navigator is required")
	}
	return nil
}

// NewSessionStore creates an empty store for tabID. Call Init to load the
// persisted token.
func NewSessionStore(tabID string, deps StoreDeps) (*SessionStore, error) {
	if tabID == "" {
		return nil, model.ErrTabIDRequired
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &SessionStore{
		tabID:     tabID,
		storage:   deps.Storage,
		decoder:   deps.Decoder,
		navigator: deps.Navigator,
		bus:       deps.Bus,
		logger:    log.WithComponent("session_store"),
	}, nil
}

// TabID returns the tab this store belongs to.
func (s *SessionStore) TabID() string {
	return s.tabID
}

// SetSession stores token in memory and in tab storage, then decodes its role.
// An empty token is ignored. A token that fails to decode is logged and the
// session is cleared; that outcome is not an error. Storage failures are.
func (s *SessionStore) SetSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	ctx = s.scoped(ctx, "set_session")

	s.mu.Lock()
	prevToken, prevRole := s.token, s.role
	s.token = token
	s.role = ""
	if err := s.storage.SetItem(ctx, s.tabID, model.TokenStorageKey, token); err != nil {
		s.token, s.role = prevToken, prevRole
		s.mu.Unlock()
		return fmt.Errorf("persist session token: %w", err)
	}

	payload, err := s.decoder.Decode(ctx, token)
	if err != nil {
		s.logger.WithContext(ctx).Error("Error decoding token", zap.Error(err))
		state, removeErr := s.clearLocked(ctx)
		s.mu.Unlock()
		return s.afterClear(ctx, state, removeErr)
	}

	s.role = payload.Role
	state := s.stateLocked()
	s.mu.Unlock()

	s.logger.WithContext(ctx).Debug("Session set", zap.String("role", state.Role))
	s.publishChanged(ctx, state)
	return nil
}

// ClearSession drops token and role, removes the persisted token and sends
// the tab to the root path. Memory is cleared even when storage fails.
func (s *SessionStore) ClearSession(ctx context.Context) error {
	ctx = s.scoped(ctx, "clear_session")

	s.mu.Lock()
	state, removeErr := s.clearLocked(ctx)
	s.mu.Unlock()

	return s.afterClear(ctx, state, removeErr)
}

func (s *SessionStore) clearLocked(ctx context.Context) (model.SessionState, error) {
	s.token = ""
	s.role = ""
	err := s.storage.RemoveItem(ctx, s.tabID, model.TokenStorageKey)
	return s.stateLocked(), err
}

// afterClear runs outside the lock so subscribers may read the store.
func (s *SessionStore) afterClear(ctx context.Context, state model.SessionState, removeErr error) error {
	if removeErr != nil {
		s.logger.WithContext(ctx).Error("Failed to remove persisted token", zap.Error(removeErr))
	}

	s.publishChanged(ctx, state)
	s.navigator.Navigate(ctx, s.tabID, RootPath)

	if removeErr != nil {
		return fmt.Errorf("remove session token: %w", removeErr)
	}
	return nil
}

// Init loads the persisted token, if any, and replays it through SetSession.
func (s *SessionStore) Init(ctx context.Context) error {
	ctx = s.scoped(ctx, "init")

	token, ok, err := s.storage.GetItem(ctx, s.tabID, model.TokenStorageKey)
	if err != nil {
		return fmt.Errorf("load session token: %w", err)
	}
	if !ok || token == "" {
		return nil
	}
	return s.SetSession(ctx, token)
}

// ensureInitialized runs Init once. Concurrent callers wait for the first
// run; a failed run is retried by the next caller.
func (s *SessionStore) ensureInitialized(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.initialized {
		return nil
	}
	if err := s.Init(ctx); err != nil {
		return err
	}
	s.initialized = true
	return nil
}

// Token returns the raw token, "" when logged out.
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Role returns the decoded role, "" when logged out.
func (s *SessionStore) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

// IsLoggedIn reports whether a token is held.
func (s *SessionStore) IsLoggedIn() bool {
	return s.Session().IsLoggedIn()
}

// IsAdmin reports whether the decoded role is admin.
func (s *SessionStore) IsAdmin() bool {
	return s.Session().IsAdmin()
}

// Session returns a copy of the current session.
func (s *SessionStore) Session() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.Session{Token: s.token, Role: s.role}
}

// Snapshot returns the read-only state of the session.
func (s *SessionStore) Snapshot() model.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *SessionStore) stateLocked() model.SessionState {
	return model.StateOf(s.tabID, model.Session{Token: s.token, Role: s.role})
}

func (s *SessionStore) scoped(ctx context.Context, operation string) context.Context {
	return withTabOperation(ctx, s.tabID, operation)
}

func (s *SessionStore) publishChanged(ctx context.Context, state model.SessionState) {
	if s.bus == nil {
		return
	}
	event := eventbus.NewBasicEventWithSource(eventbus.EventTypeSessionChanged,
		model.SessionChangedEvent{State: state}, eventSource)
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.WithContext(ctx).Warn("Failed to publish session change", zap.Error(err))
	}
}
