package reviews

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tastevine/web/internal/domain/recipe"
	apperrors "github.com/tastevine/web/pkg/errors"
)

type fakeBackend struct {
	submitErr   error
	submitCalls int
	gotRating   int
	gotComment  string

	reviews    []recipe.Review
	reviewsErr error

	recipe    recipe.Recipe
	recipeErr error
}

func (f *fakeBackend) SubmitReview(_ context.Context, _, _ string, rating int, comment string) error {
	f.submitCalls++
	f.gotRating = rating
	f.gotComment = comment
	return f.submitErr
}

func (f *fakeBackend) GetReviews(_ context.Context, _ string) ([]recipe.Review, error) {
	return f.reviews, f.reviewsErr
}

func (f *fakeBackend) GetRecipe(_ context.Context, _, _ string) (recipe.Recipe, error) {
	return f.recipe, f.recipeErr
}

func newService(t *testing.T, backend *fakeBackend) *Service {
	t.Helper()
	return NewService(backend, zaptest.NewLogger(t))
}

func TestSubmitRejectsMissingRating(t *testing.T) {
	backend := &fakeBackend{}
	svc := newService(t, backend)

	_, err := svc.Submit(context.Background(), "tok", "r1", Input{Rating: 0, Comment: "great"})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeValidationFailed))
	assert.Equal(t, "Please select a rating between 1 and 5", apperrors.Message(err, ""))
	assert.Zero(t, backend.submitCalls, "no backend call on validation failure")
}

func TestSubmitRejectsOutOfRangeRating(t *testing.T) {
	svc := newService(t, &fakeBackend{})

	for _, rating := range []int{-1, 6} {
		_, err := svc.Submit(context.Background(), "tok", "r1", Input{Rating: rating, Comment: "great"})
		assert.True(t, apperrors.Is(err, apperrors.CodeValidationFailed), "rating %d", rating)
	}
}

func TestSubmitRejectsBlankComment(t *testing.T) {
	backend := &fakeBackend{}
	svc := newService(t, backend)

	for _, comment := range []string{"", "   ", "\n\t"} {
		_, err := svc.Submit(context.Background(), "tok", "r1", Input{Rating: 4, Comment: comment})
		require.Error(t, err)
		assert.Equal(t, "Please write a comment", apperrors.Message(err, ""))
	}
	assert.Zero(t, backend.submitCalls)
}

func TestSubmitRejectsOverlongComment(t *testing.T) {
	svc := newService(t, &fakeBackend{})

	_, err := svc.Submit(context.Background(), "tok", "r1", Input{Rating: 4, Comment: strings.Repeat("a", MaxCommentLength+1)})

	require.Error(t, err)
	assert.Equal(t, "Comment must be 1000 characters or fewer", apperrors.Message(err, ""))
}

func TestSubmitAcceptsBoundaryLengthComment(t *testing.T) {
	backend := &fakeBackend{}
	svc := newService(t, backend)

	_, err := svc.Submit(context.Background(), "tok", "r1", Input{Rating: 5, Comment: strings.Repeat("a", MaxCommentLength)})

	require.NoError(t, err)
	assert.Equal(t, 1, backend.submitCalls)
}

func TestSubmitTrimsCommentBeforeSending(t *testing.T) {
	backend := &fakeBackend{}
	svc := newService(t, backend)

	_, err := svc.Submit(context.Background(), "tok", "r1", Input{Rating: 3, Comment: "  tasty  "})

	require.NoError(t, err)
	assert.Equal(t, "tasty", backend.gotComment)
	assert.Equal(t, 3, backend.gotRating)
}

func TestSubmitRequiresLogin(t *testing.T) {
	backend := &fakeBackend{}
	svc := newService(t, backend)

	_, err := svc.Submit(context.Background(), "", "r1", Input{Rating: 4, Comment: "great"})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeLoginRequired))
	assert.Zero(t, backend.submitCalls)
}

func TestSubmitSurfacesBackendMessage(t *testing.T) {
	backend := &fakeBackend{submitErr: apperrors.NewBackendError(400, "You already reviewed this recipe")}
	svc := newService(t, backend)

	_, err := svc.Submit(context.Background(), "tok", "r1", Input{Rating: 4, Comment: "great"})

	require.Error(t, err)
	assert.Equal(t, "You already reviewed this recipe", apperrors.Message(err, "fallback"))
}

func TestSubmitRefreshesReviewsAndRecipe(t *testing.T) {
	backend := &fakeBackend{
		reviews: []recipe.Review{{ID: "rev1", Rating: 4, Comment: "great"}},
		recipe:  recipe.Recipe{ID: "r1", Rating: 4.5, ReviewCount: 2},
	}
	svc := newService(t, backend)

	result, err := svc.Submit(context.Background(), "tok", "r1", Input{Rating: 4, Comment: "great"})

	require.NoError(t, err)
	require.Len(t, result.Reviews, 1)
	require.NotNil(t, result.Recipe)
	assert.InDelta(t, 4.5, result.Recipe.Rating, 0.001)
}

func TestRefreshFailuresDoNotFailSubmit(t *testing.T) {
	backend := &fakeBackend{
		reviewsErr: apperrors.NewBackendError(500, "down"),
		recipeErr:  apperrors.NewBackendError(500, "down"),
	}
	svc := newService(t, backend)

	result, err := svc.Submit(context.Background(), "tok", "r1", Input{Rating: 4, Comment: "great"})

	require.NoError(t, err, "submit already succeeded; refresh failures are absorbed")
	assert.Nil(t, result.Reviews)
	assert.Nil(t, result.Recipe)
}

func TestOneRefreshFailingDoesNotBlockTheOther(t *testing.T) {
	backend := &fakeBackend{
		reviewsErr: apperrors.NewBackendError(500, "down"),
		recipe:     recipe.Recipe{ID: "r1", Rating: 4.0},
	}
	svc := newService(t, backend)

	result, err := svc.Submit(context.Background(), "tok", "r1", Input{Rating: 4, Comment: "great"})

	require.NoError(t, err)
	assert.Nil(t, result.Reviews)
	require.NotNil(t, result.Recipe)
}
