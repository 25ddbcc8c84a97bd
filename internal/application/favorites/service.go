// Package favorites coordinates the like/favorite flow between the
// session and the backend. The flow is confirm-first, never
// optimistic: a recipe's liked flag only flips after the backend
// acknowledges the toggle.
package favorites

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/tastevine/web/internal/domain/user"
	"github.com/tastevine/web/internal/infrastructure/session"
	apperrors "github.com/tastevine/web/pkg/errors"
)

// ErrPending is returned when a toggle for the same recipe is already
// in flight for this session. Callers drop the request silently.
var ErrPending = errors.New("like request already pending")

// Backend is the slice of the API client the service needs.
type Backend interface {
	ToggleLike(ctx context.Context, token, recipeID string) error
	GetMe(ctx context.Context, token string) (user.User, error)
}

// Result reports the confirmed state after a successful toggle.
type Result struct {
	Liked   bool
	Message string
}

// Service reconciles likes against the backend.
type Service struct {
	backend Backend
	logger  *zap.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewService creates a favorites service.
func NewService(backend Backend, logger *zap.Logger) *Service {
	return &Service{
		backend: backend,
		logger:  logger,
		pending: make(map[string]struct{}),
	}
}

// Toggle flips the like state of one recipe for the session's user.
// currentlyLiked is the state shown to the user when they clicked; the
// returned Result carries the confirmed new state. Guests get a
// login-required error without any backend call, and concurrent
// toggles of the same recipe return ErrPending.
func (s *Service) Toggle(ctx context.Context, sess *session.Session, recipeID string, currentlyLiked bool) (Result, error) {
	if !sess.IsAuthenticated() {
		return Result{}, apperrors.NewLoginRequiredError("save favorites")
	}

	key := sess.ID + ":" + recipeID
	s.mu.Lock()
	if _, inFlight := s.pending[key]; inFlight {
		s.mu.Unlock()
		return Result{}, ErrPending
	}
	s.pending[key] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, key)
		s.mu.Unlock()
	}()

	if err := s.backend.ToggleLike(ctx, sess.Token, recipeID); err != nil {
		return Result{}, err
	}

	result := Result{Liked: !currentlyLiked}
	if currentlyLiked {
		result.Message = "Recipe removed from favorites"
	} else {
		result.Message = "Recipe added to favorites"
	}

	s.refreshFavoriteCount(ctx, sess)

	return result, nil
}

// refreshFavoriteCount re-fetches the profile so the cached
// totalFavorites tracks the toggle. Best effort: a failure here never
// disturbs the confirmed toggle.
func (s *Service) refreshFavoriteCount(ctx context.Context, sess *session.Session) {
	me, err := s.backend.GetMe(ctx, sess.Token)
	if err != nil {
		s.logger.Warn("Profile refresh after like failed", zap.Error(err))
		return
	}
	sess.SetFavoriteCount(me.TotalFavorites)
}
