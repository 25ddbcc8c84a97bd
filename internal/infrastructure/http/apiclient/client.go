// Package apiclient wraps the backend REST API. All persistence and
// business logic live behind it; this client only builds requests,
// attaches bearer tokens and narrows response shapes.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tastevine/web/internal/domain/recipe"
	"github.com/tastevine/web/internal/domain/user"
	"github.com/tastevine/web/internal/infrastructure/config"
	apperrors "github.com/tastevine/web/pkg/errors"
)

// Client handles communication with the backend API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a new API client instance
func New(cfg *config.Config, logger *zap.Logger) *Client {
	timeout := cfg.Backend.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.Backend.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Authentication

// AuthResponse represents a login/signup response
type AuthResponse struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

// Login authenticates a user against the backend
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	payload := map[string]string{"email": email, "password": password}

	body, err := c.do(ctx, http.MethodPost, "/api/auth/login", "", payload)
	if err != nil {
		return nil, err
	}
	return decodeAuthResponse(body)
}

// Signup registers a new account
func (c *Client) Signup(ctx context.Context, fullName, email, password string) (*AuthResponse, error) {
	payload := map[string]string{"fullName": fullName, "email": email, "password": password}

	body, err := c.do(ctx, http.MethodPost, "/api/auth/signup", "", payload)
	if err != nil {
		return nil, err
	}
	return decodeAuthResponse(body)
}

// decodeAuthResponse tolerates both {token, user:{...}} and the flat
// variant where user fields sit at the top level next to the token.
func decodeAuthResponse(body []byte) (*AuthResponse, error) {
	var resp AuthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.Wrap(err, "Unexpected response from server")
	}
	if resp.User.Email == "" {
		var flat user.User
		if err := json.Unmarshal(body, &flat); err == nil {
			resp.User = flat
		}
	}
	resp.User = user.Normalize(resp.User)
	return &resp, nil
}

// GetMe fetches the current user's profile, including totalFavorites.
func (c *Client) GetMe(ctx context.Context, token string) (user.User, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/users/me", token, nil)
	if err != nil {
		return user.User{}, err
	}

	var u user.User
	if err := json.Unmarshal(body, &u); err != nil {
		return user.User{}, apperrors.Wrap(err, "Unexpected response from server")
	}
	return user.Normalize(u), nil
}

// Recipes

// ListOptions narrow a recipe-list request.
type ListOptions struct {
	Category string
	Limit    int
	Sort     string
}

// GetRecipes fetches the recipe list. The token is optional; when
// present the backend personalizes the liked flag.
func (c *Client) GetRecipes(ctx context.Context, token string, opts ListOptions) ([]recipe.Recipe, error) {
	path := "/api/recipes"
	q := url.Values{}
	if opts.Category != "" {
		q.Set("category", opts.Category)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Sort != "" {
		q.Set("sort", opts.Sort)
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	body, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	return recipe.DecodeList(body)
}

// GetRecipe fetches a single recipe by ID
func (c *Client) GetRecipe(ctx context.Context, token, recipeID string) (recipe.Recipe, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/recipes/"+url.PathEscape(recipeID), token, nil)
	if err != nil {
		return recipe.Recipe{}, err
	}
	return recipe.DecodeOne(body)
}

// CreateRecipeRequest is the submit-recipe payload. Server-assigned
// fields (id, rating, author, timestamps) are omitted.
type CreateRecipeRequest struct {
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description" validate:"required"`
	Image        string   `json:"image,omitempty"`
	Images       []string `json:"images,omitempty"`
	PrepTime     int      `json:"prepTime" validate:"gte=0"`
	Difficulty   string   `json:"difficulty" validate:"oneof=easy medium hard"`
	Category     string   `json:"category" validate:"required"`
	Cuisine      string   `json:"cuisine,omitempty"`
	Diet         string   `json:"diet,omitempty"`
	Serves       int      `json:"serves" validate:"gte=1"`
	Calories     float64  `json:"calories,omitempty" validate:"gte=0"`
	Ingredients  []string `json:"ingredients" validate:"min=1,dive,required"`
	Instructions []string `json:"instructions" validate:"min=1,dive,required"`
}

// CreateRecipe submits a new recipe (authenticated)
func (c *Client) CreateRecipe(ctx context.Context, token string, req CreateRecipeRequest) (recipe.Recipe, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/recipes", token, req)
	if err != nil {
		return recipe.Recipe{}, err
	}
	return recipe.DecodeOne(body)
}

// ToggleLike flips the like state of a recipe for the current user.
// The backend owns the toggle semantics; no request body is sent.
func (c *Client) ToggleLike(ctx context.Context, token, recipeID string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/recipes/"+url.PathEscape(recipeID)+"/like", token, nil)
	return err
}

// Reviews

// GetReviews lists the reviews of one recipe
func (c *Client) GetReviews(ctx context.Context, recipeID string) ([]recipe.Review, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/reviews/"+url.PathEscape(recipeID), "", nil)
	if err != nil {
		return nil, err
	}
	return recipe.DecodeReviews(body)
}

// SubmitReview posts a rating and comment for one recipe (authenticated)
func (c *Client) SubmitReview(ctx context.Context, token, recipeID string, rating int, comment string) error {
	payload := map[string]any{"rating": rating, "comment": comment}
	_, err := c.do(ctx, http.MethodPost, "/api/reviews/"+url.PathEscape(recipeID), token, payload)
	return err
}

// VerifyConnection checks whether the backend is reachable
func (c *Client) VerifyConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Backend connection check failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < 500
}

// Helper methods

// do executes one backend request and returns the raw body. Non-2xx
// responses become AppErrors carrying the backend's message field when
// the error body is decodable, else a generic fallback.
func (c *Client) do(ctx context.Context, method, path, token string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, apperrors.Wrap(err, "Failed to encode request")
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to build request")
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("Backend request",
		zap.String("method", method),
		zap.String("path", path),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeBackendTimeout, "Could not reach the server", "").WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, "Failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := errorMessage(body)
		c.logger.Warn("Backend error response",
			zap.Int("status", resp.StatusCode),
			zap.String("path", path),
			zap.String("message", message),
		)
		return nil, apperrors.NewBackendError(resp.StatusCode, message)
	}

	return body, nil
}

// errorMessage extracts the message field from an error body.
func errorMessage(body []byte) string {
	var errBody struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errBody); err == nil && errBody.Message != "" {
		return errBody.Message
	}
	return "Something went wrong. Please try again."
}

// URL returns the absolute URL for a backend path, mirroring how the
// base URL and endpoint are joined for every request.
func (c *Client) URL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}
