package webserver

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tastevine/web/internal/application/reviews"
	"github.com/tastevine/web/internal/catalog"
	"github.com/tastevine/web/internal/domain/recipe"
	"github.com/tastevine/web/internal/infrastructure/http/apiclient"
	"github.com/tastevine/web/internal/infrastructure/session"
	apperrors "github.com/tastevine/web/pkg/errors"
)

// Page handlers

func (s *WebServer) handleHome(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	featured, err := s.apiClient.GetRecipes(r.Context(), sess.Token, apiclient.ListOptions{Limit: 6})
	if err != nil {
		// The home page still renders without the featured strip.
		s.logger.Warn("Failed to load featured recipes", zap.Error(err))
		featured = nil
	}

	s.renderTemplate(w, "home", map[string]any{
		"Title":    "Welcome to " + s.config.App.Name,
		"Session":  sess,
		"Featured": featured,
	})
}

// Authentication handlers

func (s *WebServer) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess.IsAuthenticated() {
		http.Redirect(w, r, "/recipes", http.StatusSeeOther)
		return
	}

	s.renderTemplate(w, "login", map[string]any{
		"Title":    "Log in - " + s.config.App.Name,
		"Session":  sess,
		"Redirect": r.URL.Query().Get("redirect"),
	})
}

func (s *WebServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	resp, err := s.apiClient.Login(r.Context(), email, password)
	if err != nil {
		s.renderTemplate(w, "login", map[string]any{
			"Title":   "Log in - " + s.config.App.Name,
			"Session": sess,
			"Error":   apperrors.Message(err, "Login failed. Please try again."),
			"Email":   email,
		})
		return
	}

	sess.Login(resp.User, resp.Token)
	if err := s.sessions.Save(w, r, sess); err != nil {
		s.renderError(w, sess, "Failed to start session", err)
		return
	}

	redirect := r.FormValue("redirect")
	if redirect == "" || !strings.HasPrefix(redirect, "/") {
		redirect = "/recipes"
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

func (s *WebServer) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess.IsAuthenticated() {
		http.Redirect(w, r, "/recipes", http.StatusSeeOther)
		return
	}

	s.renderTemplate(w, "register", map[string]any{
		"Title":   "Sign up - " + s.config.App.Name,
		"Session": sess,
	})
}

func (s *WebServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	fullName := strings.TrimSpace(r.FormValue("fullName"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	resp, err := s.apiClient.Signup(r.Context(), fullName, email, password)
	if err != nil {
		s.renderTemplate(w, "register", map[string]any{
			"Title":    "Sign up - " + s.config.App.Name,
			"Session":  sess,
			"Error":    apperrors.Message(err, "Registration failed. Please try again."),
			"FullName": fullName,
			"Email":    email,
		})
		return
	}

	sess.Login(resp.User, resp.Token)
	if err := s.sessions.Save(w, r, sess); err != nil {
		s.renderError(w, sess, "Failed to start session", err)
		return
	}
	http.Redirect(w, r, "/recipes", http.StatusSeeOther)
}

func (s *WebServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	sess.Logout()
	if err := s.sessions.Destroy(w, r, sess); err != nil {
		s.logger.Error("Failed to destroy session", zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Catalog handlers

// parseFilter reads the catalog predicates from query or form values.
func parseFilter(get func(string) string) catalog.Filter {
	return catalog.Filter{
		Search:       strings.TrimSpace(get("search")),
		Ingredient:   strings.TrimSpace(get("ingredient")),
		Category:     get("category"),
		Difficulty:   get("difficulty"),
		Cuisine:      get("cuisine"),
		Diet:         get("diet"),
		TimeRange:    get("time"),
		CalorieRange: get("calories"),
		Sort:         get("sort"),
	}
}

// parsePrevFilter decodes the filter state the page was rendered with,
// carried in the prev parameter as an encoded query string.
func parsePrevFilter(encoded string) catalog.Filter {
	values, err := url.ParseQuery(encoded)
	if err != nil {
		return catalog.Filter{}
	}
	return parseFilter(values.Get)
}

// filterQuery encodes a filter back into a query string, used for
// pagination links and the prev parameter.
func filterQuery(f catalog.Filter) string {
	q := url.Values{}
	set := func(key, val string) {
		if val != "" && val != catalog.SelectionAll {
			q.Set(key, val)
		}
	}
	set("search", f.Search)
	set("ingredient", f.Ingredient)
	set("category", f.Category)
	set("difficulty", f.Difficulty)
	set("cuisine", f.Cuisine)
	set("diet", f.Diet)
	set("time", f.TimeRange)
	set("calories", f.CalorieRange)
	set("sort", f.Sort)
	return q.Encode()
}

// loadCatalogPage fetches the full recipe list and runs the
// filter/sort/paginate pipeline for one request.
func (s *WebServer) loadCatalogPage(r *http.Request) (catalog.Page, catalog.Filter, error) {
	sess := session.FromContext(r.Context())
	query := r.URL.Query()

	filter := parseFilter(query.Get)
	pageIndex, _ := strconv.Atoi(query.Get("page"))

	// A changed filter always lands on the first page.
	if prev := query.Get("prev"); prev != "" {
		pageIndex = catalog.ResetPage(parsePrevFilter(prev), filter, pageIndex)
	}

	recipes, err := s.apiClient.GetRecipes(r.Context(), sess.Token, apiclient.ListOptions{})
	if err != nil {
		return catalog.Page{}, filter, err
	}

	filtered := catalog.Apply(recipes, filter)
	return catalog.Paginate(filtered, pageIndex, s.config.Catalog.PageSize), filter, nil
}

func (s *WebServer) handleRecipeList(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	page, filter, err := s.loadCatalogPage(r)
	if err != nil {
		s.renderError(w, sess, "Failed to load recipes", err)
		return
	}

	s.renderTemplate(w, "recipes", map[string]any{
		"Title":       "Recipes - " + s.config.App.Name,
		"Session":     sess,
		"Page":        page,
		"Filter":      filter,
		"FilterQuery": filterQuery(filter),
	})
}

// handleRecipeGridPartial re-renders just the recipe grid for in-page
// filter and pagination updates.
func (s *WebServer) handleRecipeGridPartial(w http.ResponseWriter, r *http.Request) {
	page, filter, err := s.loadCatalogPage(r)
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		s.renderPartial(w, "partials/notice", map[string]any{
			"Kind":    "error",
			"Message": apperrors.Message(err, "Failed to load recipes."),
		})
		return
	}

	s.renderPartial(w, "partials/recipe-grid", map[string]any{
		"Session":     session.FromContext(r.Context()),
		"Page":        page,
		"Filter":      filter,
		"FilterQuery": filterQuery(filter),
	})
}

func (s *WebServer) handleRecipeDetail(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	recipeID := chi.URLParam(r, "id")

	rec, err := s.apiClient.GetRecipe(r.Context(), sess.Token, recipeID)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeNotFound) {
			w.WriteHeader(http.StatusNotFound)
			s.renderTemplate(w, "error", map[string]any{
				"Title":   "Not found - " + s.config.App.Name,
				"Session": sess,
				"Message": "That recipe does not exist.",
			})
			return
		}
		s.renderError(w, sess, "Failed to load recipe", err)
		return
	}

	reviewList, err := s.apiClient.GetReviews(r.Context(), recipeID)
	if err != nil {
		// The page renders without reviews rather than failing outright.
		s.logger.Warn("Failed to load reviews", zap.String("recipe_id", recipeID), zap.Error(err))
		reviewList = nil
	}

	s.renderTemplate(w, "recipe-detail", map[string]any{
		"Title":   rec.Title + " - " + s.config.App.Name,
		"Session": sess,
		"Recipe":  rec,
		"Reviews": reviewList,
		"Similar": s.loadSimilarRecipes(r.Context(), sess.Token, rec),
	})
}

// loadSimilarRecipes fetches up to three other recipes from the same
// category. Best effort: a failure just leaves the section empty.
func (s *WebServer) loadSimilarRecipes(ctx context.Context, token string, rec recipe.Recipe) []recipe.Recipe {
	list, err := s.apiClient.GetRecipes(ctx, token, apiclient.ListOptions{Category: rec.Category, Limit: 4})
	if err != nil {
		s.logger.Warn("Failed to load similar recipes", zap.String("recipe_id", rec.ID), zap.Error(err))
		return nil
	}

	similar := make([]recipe.Recipe, 0, 3)
	for _, other := range list {
		if other.ID == rec.ID {
			continue
		}
		similar = append(similar, other)
		if len(similar) == 3 {
			break
		}
	}
	return similar
}

// Recipe submission handlers

func (s *WebServer) handleNewRecipePage(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, "recipe-new", map[string]any{
		"Title":   "Share a recipe - " + s.config.App.Name,
		"Session": session.FromContext(r.Context()),
	})
}

func (s *WebServer) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	req := apiclient.CreateRecipeRequest{
		Title:        strings.TrimSpace(r.FormValue("title")),
		Description:  strings.TrimSpace(r.FormValue("description")),
		Image:        strings.TrimSpace(r.FormValue("image")),
		Difficulty:   r.FormValue("difficulty"),
		Category:     r.FormValue("category"),
		Cuisine:      r.FormValue("cuisine"),
		Diet:         r.FormValue("diet"),
		Ingredients:  splitLines(r.FormValue("ingredients")),
		Instructions: splitLines(r.FormValue("instructions")),
	}
	req.PrepTime, _ = strconv.Atoi(r.FormValue("prepTime"))
	req.Serves, _ = strconv.Atoi(r.FormValue("serves"))
	req.Calories, _ = strconv.ParseFloat(r.FormValue("calories"), 64)
	if req.Serves < 1 {
		req.Serves = 1
	}

	created, err := s.apiClient.CreateRecipe(r.Context(), sess.Token, req)
	if err != nil {
		s.renderTemplate(w, "recipe-new", map[string]any{
			"Title":   "Share a recipe - " + s.config.App.Name,
			"Session": sess,
			"Error":   apperrors.Message(err, "Failed to submit recipe. Please try again."),
			"Form":    req,
		})
		return
	}

	http.Redirect(w, r, "/recipes/"+url.PathEscape(created.ID), http.StatusSeeOther)
}

// splitLines turns a textarea value into one entry per non-blank line.
func splitLines(value string) []string {
	var out []string
	for _, line := range strings.Split(value, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Like and review partials

func (s *WebServer) handleLikePartial(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	recipeID := chi.URLParam(r, "id")
	currentlyLiked := r.FormValue("liked") == "true"

	result, err := s.favorites.Toggle(r.Context(), sess, recipeID, currentlyLiked)
	if err != nil {
		s.renderLikeError(w, r, recipeID, currentlyLiked, err)
		return
	}

	if err := s.sessions.Save(w, r, sess); err != nil {
		s.logger.Error("Failed to save session after like", zap.Error(err))
	}

	s.renderPartial(w, "partials/like-button", map[string]any{
		"RecipeID": recipeID,
		"Liked":    result.Liked,
		"Message":  result.Message,
	})
}

func (s *WebServer) renderLikeError(w http.ResponseWriter, r *http.Request, recipeID string, liked bool, err error) {
	if apperrors.Is(err, apperrors.CodeLoginRequired) {
		w.WriteHeader(http.StatusUnauthorized)
		s.renderPartial(w, "partials/notice", map[string]any{
			"Kind":    "error",
			"Message": "Please log in to save favorites.",
		})
	} else {
		// The button re-renders in its pre-click state; a pending
		// duplicate is dropped the same way.
		s.logger.Warn("Like toggle failed",
			zap.String("recipe_id", recipeID),
			zap.Error(err),
		)
		s.renderPartial(w, "partials/like-button", map[string]any{
			"RecipeID": recipeID,
			"Liked":    liked,
			"Error":    apperrors.Message(err, "Could not update favorites."),
		})
	}
}

func (s *WebServer) handleReviewPartial(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	recipeID := chi.URLParam(r, "id")

	rating, _ := strconv.Atoi(r.FormValue("rating"))
	comment := r.FormValue("comment")
	input := reviews.Input{Rating: rating, Comment: comment}

	result, err := s.reviews.Submit(r.Context(), sess.Token, recipeID, input)
	if err != nil {
		// Failed submits keep the user's rating and comment in the form.
		status := http.StatusBadRequest
		if apperrors.Is(err, apperrors.CodeLoginRequired) {
			status = http.StatusUnauthorized
		}
		w.WriteHeader(status)
		s.renderPartial(w, "partials/review-form", map[string]any{
			"RecipeID": recipeID,
			"Rating":   rating,
			"Comment":  comment,
			"Error":    apperrors.Message(err, "Failed to submit review."),
		})
		return
	}

	data := map[string]any{
		"RecipeID": recipeID,
		"Reviews":  result.Reviews,
		"Success":  "Thanks for your review!",
	}
	if result.Recipe != nil {
		data["Recipe"] = result.Recipe
	}
	s.renderPartial(w, "partials/reviews", data)
}
