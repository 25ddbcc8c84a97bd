// Package reviews coordinates review submission: local validation,
// the backend write, and the refresh of the data the page shows.
package reviews

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tastevine/web/internal/domain/recipe"
	apperrors "github.com/tastevine/web/pkg/errors"
)

// MaxCommentLength bounds the review comment.
const MaxCommentLength = 1000

// Backend is the slice of the API client the service needs.
type Backend interface {
	SubmitReview(ctx context.Context, token, recipeID string, rating int, comment string) error
	GetReviews(ctx context.Context, recipeID string) ([]recipe.Review, error)
	GetRecipe(ctx context.Context, token, recipeID string) (recipe.Recipe, error)
}

// Input is a review as entered by the user. The comment is trimmed
// before validation, so whitespace-only comments are rejected.
type Input struct {
	Rating  int    `validate:"required,gte=1,lte=5"`
	Comment string `validate:"required,max=1000"`
}

// Result carries the refreshed page data after a successful submit.
// Either field is nil when its best-effort refresh failed; the caller
// keeps showing the data it already has.
type Result struct {
	Reviews []recipe.Review
	Recipe  *recipe.Recipe
}

// Service submits reviews and refreshes the affected recipe data.
type Service struct {
	backend  Backend
	validate *validator.Validate
	logger   *zap.Logger
}

// NewService creates a reviews service.
func NewService(backend Backend, logger *zap.Logger) *Service {
	return &Service{
		backend:  backend,
		validate: validator.New(),
		logger:   logger,
	}
}

// Validate checks an input without touching the backend. It returns a
// validation error with a user-facing message, or nil.
func (s *Service) Validate(in Input) error {
	in.Comment = strings.TrimSpace(in.Comment)

	if err := s.validate.Struct(in); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			switch fieldErr.Field() {
			case "Rating":
				return apperrors.New(apperrors.CodeValidationFailed, "Please select a rating between 1 and 5", "")
			case "Comment":
				if fieldErr.Tag() == "max" {
					return apperrors.New(apperrors.CodeValidationFailed, "Comment must be 1000 characters or fewer", "")
				}
				return apperrors.New(apperrors.CodeValidationFailed, "Please write a comment", "")
			}
		}
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

// Submit validates the input, posts the review, and refreshes the
// reviews list and the recipe's aggregate rating. Validation and
// backend failures return an error and the caller keeps the user's
// inputs; refresh failures are logged and absorbed.
func (s *Service) Submit(ctx context.Context, token, recipeID string, in Input) (Result, error) {
	if token == "" {
		return Result{}, apperrors.NewLoginRequiredError("leave a review")
	}
	if err := s.Validate(in); err != nil {
		return Result{}, err
	}

	comment := strings.TrimSpace(in.Comment)
	if err := s.backend.SubmitReview(ctx, token, recipeID, in.Rating, comment); err != nil {
		return Result{}, err
	}

	// Two independent refreshes: one failing never blocks the other.
	var result Result
	reviews, err := s.backend.GetReviews(ctx, recipeID)
	if err != nil {
		s.logger.Warn("Review list refresh failed", zap.String("recipe_id", recipeID), zap.Error(err))
	} else {
		result.Reviews = reviews
	}

	fresh, err := s.backend.GetRecipe(ctx, token, recipeID)
	if err != nil {
		s.logger.Warn("Recipe refresh failed", zap.String("recipe_id", recipeID), zap.Error(err))
	} else {
		result.Recipe = &fresh
	}

	return result, nil
}
