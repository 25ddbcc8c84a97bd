package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tastevine/web/internal/infrastructure/config"
)

// ErrNotFound is returned when no live session matches an ID.
var ErrNotFound = errors.New("session not found")

// Store persists sessions between requests.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process memory with periodic cleanup
// of expired entries.
type MemoryStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	logger   *zap.Logger
	done     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates an in-memory session store and starts its
// cleanup loop.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	store := &MemoryStore{
		sessions: make(map[string]*Session),
		logger:   logger,
		done:     make(chan struct{}),
	}
	go store.cleanupExpired()
	return store
}

// Get retrieves a live session by ID.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if s.Expired() {
		_ = m.Delete(ctx, id)
		return nil, ErrNotFound
	}
	return s, nil
}

// Save stores a session.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return nil
}

// Delete removes a session.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Close stops the cleanup loop.
func (m *MemoryStore) Close() {
	m.stopOnce.Do(func() { close(m.done) })
}

func (m *MemoryStore) cleanupExpired() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			now := time.Now()
			for id, s := range m.sessions {
				if now.After(s.ExpiresAt) {
					delete(m.sessions, id)
					m.logger.Debug("Cleaned up expired session", zap.String("session_id", id))
				}
			}
			m.mu.Unlock()
		}
	}
}

// Manager couples a Store with the session cookie.
type Manager struct {
	store      Store
	cookieName string
	maxAge     time.Duration
	secure     bool
}

// NewManager creates a session manager from configuration.
func NewManager(cfg *config.Config, store Store) *Manager {
	return &Manager{
		store:      store,
		cookieName: cfg.Session.CookieName,
		maxAge:     cfg.Session.MaxAge,
		secure:     cfg.Session.Secure,
	}
}

// Load resolves the request's session, creating a fresh anonymous one
// when the cookie is absent or the stored session has expired.
func (mgr *Manager) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(mgr.cookieName)
	if err == nil {
		if s, err := mgr.store.Get(r.Context(), cookie.Value); err == nil {
			return s
		}
	}
	return NewSession(mgr.maxAge)
}

// Save persists the session and refreshes its cookie.
func (mgr *Manager) Save(w http.ResponseWriter, r *http.Request, s *Session) error {
	if err := mgr.store.Save(r.Context(), s); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     mgr.cookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   mgr.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.ExpiresAt,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
	return nil
}

// Destroy removes the session and expires its cookie.
func (mgr *Manager) Destroy(w http.ResponseWriter, r *http.Request, s *Session) error {
	if err := mgr.store.Delete(r.Context(), s.ID); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     mgr.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   mgr.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	return nil
}

type contextKey struct{}

// NewContext returns a context carrying the session.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext extracts the session placed by the session middleware.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
