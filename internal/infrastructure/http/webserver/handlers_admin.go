package webserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tastevine/web/internal/infrastructure/http/apiclient"
	"github.com/tastevine/web/internal/infrastructure/session"
	apperrors "github.com/tastevine/web/pkg/errors"
)

// Admin screens. The backend makes the final call on authorization;
// a 403 from any admin endpoint sends the user back to login, matching
// the requireAdmin gate.

func (s *WebServer) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	dashboard, err := s.apiClient.GetDashboard(r.Context(), sess.Token)
	if err != nil {
		s.renderAdminError(w, r, sess, "Failed to load dashboard", err)
		return
	}

	s.renderTemplate(w, "admin/dashboard", map[string]any{
		"Title":     "Admin - " + s.config.App.Name,
		"Session":   sess,
		"Dashboard": dashboard,
	})
}

// adminListOptions reads the shared admin listing controls from the
// query string.
func adminListOptions(r *http.Request) apiclient.AdminListOptions {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	return apiclient.AdminListOptions{
		Page:     page,
		Search:   query.Get("search"),
		Role:     query.Get("role"),
		Category: query.Get("category"),
		Rating:   query.Get("rating"),
	}
}

func (s *WebServer) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	opts := adminListOptions(r)

	list, err := s.apiClient.ListUsers(r.Context(), sess.Token, opts)
	if err != nil {
		s.renderAdminError(w, r, sess, "Failed to load users", err)
		return
	}

	s.renderTemplate(w, "admin/users", map[string]any{
		"Title":      "Manage users - " + s.config.App.Name,
		"Session":    sess,
		"Users":      list.Users,
		"TotalPages": list.TotalPages,
		"Options":    opts,
	})
}

func (s *WebServer) handleAdminUserStatus(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	userID := chi.URLParam(r, "id")
	active := r.FormValue("active") == "true"

	if err := s.apiClient.SetUserStatus(r.Context(), sess.Token, userID, active); err != nil {
		s.renderAdminError(w, r, sess, "Failed to update user status", err)
		return
	}

	s.logger.Info("Admin changed user status",
		zap.String("user_id", userID),
		zap.Bool("active", active),
	)
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

func (s *WebServer) handleAdminUserPromote(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	userID := chi.URLParam(r, "id")

	if err := s.apiClient.PromoteUser(r.Context(), sess.Token, userID); err != nil {
		s.renderAdminError(w, r, sess, "Failed to promote user", err)
		return
	}

	s.logger.Info("Admin promoted user", zap.String("user_id", userID))
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

func (s *WebServer) handleAdminRecipes(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	opts := adminListOptions(r)

	list, err := s.apiClient.ListAdminRecipes(r.Context(), sess.Token, opts)
	if err != nil {
		s.renderAdminError(w, r, sess, "Failed to load recipes", err)
		return
	}

	s.renderTemplate(w, "admin/recipes", map[string]any{
		"Title":      "Manage recipes - " + s.config.App.Name,
		"Session":    sess,
		"Recipes":    list.Recipes,
		"TotalPages": list.TotalPages,
		"Options":    opts,
	})
}

func (s *WebServer) handleAdminRecipeDelete(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	recipeID := chi.URLParam(r, "id")

	if err := s.apiClient.DeleteRecipe(r.Context(), sess.Token, recipeID); err != nil {
		s.renderAdminError(w, r, sess, "Failed to delete recipe", err)
		return
	}

	s.logger.Info("Admin deleted recipe", zap.String("recipe_id", recipeID))
	http.Redirect(w, r, "/admin/recipes", http.StatusSeeOther)
}

func (s *WebServer) handleAdminReviews(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	opts := adminListOptions(r)

	list, err := s.apiClient.ListAdminReviews(r.Context(), sess.Token, opts)
	if err != nil {
		s.renderAdminError(w, r, sess, "Failed to load reviews", err)
		return
	}

	s.renderTemplate(w, "admin/reviews", map[string]any{
		"Title":      "Manage reviews - " + s.config.App.Name,
		"Session":    sess,
		"Reviews":    list.Reviews,
		"TotalPages": list.TotalPages,
		"Options":    opts,
	})
}

func (s *WebServer) handleAdminReviewDelete(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	reviewID := chi.URLParam(r, "id")

	if err := s.apiClient.DeleteReview(r.Context(), sess.Token, reviewID); err != nil {
		s.renderAdminError(w, r, sess, "Failed to delete review", err)
		return
	}

	s.logger.Info("Admin deleted review", zap.String("review_id", reviewID))
	http.Redirect(w, r, "/admin/reviews", http.StatusSeeOther)
}

// renderAdminError redirects to login when the backend rejects the
// token, else renders the error page.
func (s *WebServer) renderAdminError(w http.ResponseWriter, r *http.Request, sess *session.Session, message string, err error) {
	if apperrors.Is(err, apperrors.CodeForbidden) || apperrors.Is(err, apperrors.CodeUnauthorized) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	s.renderError(w, sess, message, err)
}
