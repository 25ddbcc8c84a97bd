package webserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tastevine/web/internal/application/favorites"
	"github.com/tastevine/web/internal/application/reviews"
	"github.com/tastevine/web/internal/infrastructure/config"
	"github.com/tastevine/web/internal/infrastructure/http/apiclient"
	"github.com/tastevine/web/internal/infrastructure/session"
)

// fakeBackend is a minimal stand-in for the backend REST API.
type fakeBackend struct {
	mux        *http.ServeMux
	likeCalls  int
	adminUser  bool
	recipeDocs []map[string]any
}

func newFakeBackend(recipeCount int) *fakeBackend {
	b := &fakeBackend{mux: http.NewServeMux()}

	for i := 0; i < recipeCount; i++ {
		b.recipeDocs = append(b.recipeDocs, map[string]any{
			"_id":           fmt.Sprintf("r%d", i+1),
			"title":         fmt.Sprintf("Recipe %d", i+1),
			"description":   "A test recipe",
			"category":      "dinner",
			"difficulty":    "easy",
			"prepTime":      20,
			"calories":      300,
			"averageRating": 4.0,
			"ingredients":   []string{"salt"},
			"instructions":  []string{"cook"},
		})
	}

	b.mux.HandleFunc("GET /api/recipes", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(b.recipeDocs)
	})
	b.mux.HandleFunc("GET /api/recipes/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(b.recipeDocs[0])
	})
	b.mux.HandleFunc("POST /api/recipes/{id}/like", func(w http.ResponseWriter, r *http.Request) {
		b.likeCalls++
		w.WriteHeader(http.StatusOK)
	})
	b.mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		role := "user"
		if b.adminUser {
			role = "admin"
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token": "test-token",
			"user": map[string]any{
				"email":          "ada@example.com",
				"fullName":       "Ada Lovelace",
				"role":           role,
				"totalFavorites": 2,
			},
		})
	})
	b.mux.HandleFunc("GET /api/users/me", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"email":          "ada@example.com",
			"fullName":       "Ada Lovelace",
			"totalFavorites": 3,
		})
	})
	b.mux.HandleFunc("GET /api/reviews/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"_id": "rev1", "rating": 5, "comment": "Lovely", "user": map[string]any{"fullName": "Ada Lovelace"}},
		})
	})
	b.mux.HandleFunc("POST /api/reviews/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	b.mux.HandleFunc("GET /api/admin/dashboard/stats", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"stats": map[string]any{"totalUsers": 42, "totalRecipes": 13, "totalReviews": 7},
		})
	})
	b.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return b
}

func newTestServer(t *testing.T, backend *fakeBackend) *WebServer {
	t.Helper()

	backendSrv := httptest.NewServer(backend.mux)
	t.Cleanup(backendSrv.Close)

	cfg := &config.Config{}
	cfg.App.Name = "Tastevine"
	cfg.App.Environment = "development"
	cfg.Backend.BaseURL = backendSrv.URL
	cfg.Backend.Timeout = 5 * time.Second
	cfg.Session.CookieName = "tastevine-session"
	cfg.Session.MaxAge = time.Hour
	cfg.Catalog.PageSize = 6

	logger := zaptest.NewLogger(t)
	client := apiclient.New(cfg, logger)

	store := session.NewMemoryStore(logger)
	t.Cleanup(store.Close)
	sessions := session.NewManager(cfg, store)

	ws, err := NewWebServer(cfg, logger, client, sessions,
		favorites.NewService(client, logger),
		reviews.NewService(client, logger),
	)
	require.NoError(t, err)
	return ws
}

func get(ws *WebServer, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	ws.Handler().ServeHTTP(w, r)
	return w
}

func postForm(ws *WebServer, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	ws.Handler().ServeHTTP(w, r)
	return w
}

// login runs the login form flow and returns the session cookie.
func login(t *testing.T, ws *WebServer) *http.Cookie {
	t.Helper()
	w := postForm(ws, "/login", url.Values{
		"email":    {"ada@example.com"},
		"password": {"secret"},
	}, nil)
	require.Equal(t, http.StatusSeeOther, w.Code)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestHomePageRenders(t *testing.T) {
	ws := newTestServer(t, newFakeBackend(3))

	w := get(ws, "/", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Cook something worth sharing")
	assert.Contains(t, w.Body.String(), "Recipe 1")
}

func TestRecipeListPaginates(t *testing.T) {
	ws := newTestServer(t, newFakeBackend(13))

	w := get(ws, "/recipes", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Showing 1-6 of 13")

	w = get(ws, "/recipes?page=2", nil)
	assert.Contains(t, w.Body.String(), "Showing 13-13 of 13")
}

func TestFilterChangeResetsPage(t *testing.T) {
	ws := newTestServer(t, newFakeBackend(13))

	// Same filter as before: the page index is honored.
	w := get(ws, "/recipes?category=dinner&page=1&prev="+url.QueryEscape("category=dinner"), nil)
	assert.Contains(t, w.Body.String(), "Showing 7-12 of 13")

	// Changed filter: back to the first page.
	w = get(ws, "/recipes?category=dinner&page=1&prev="+url.QueryEscape("category=breakfast"), nil)
	assert.Contains(t, w.Body.String(), "Showing 1-6 of 13")
}

func TestRecipeListFiltersOut(t *testing.T) {
	ws := newTestServer(t, newFakeBackend(5))

	w := get(ws, "/recipes?category=breakfast", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No recipes match your filters")
}

func TestRecipeDetailShowsReviews(t *testing.T) {
	ws := newTestServer(t, newFakeBackend(1))

	w := get(ws, "/recipes/r1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Recipe 1")
	assert.Contains(t, w.Body.String(), "Lovely")
}

func TestRecipeDetailListsSimilarRecipes(t *testing.T) {
	ws := newTestServer(t, newFakeBackend(5))

	w := get(ws, "/recipes/r1", nil)
	body := w.Body.String()

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body, "Similar recipes")
	assert.Contains(t, body, "Recipe 2")
	assert.Contains(t, body, "Recipe 4")
	assert.NotContains(t, body, "Recipe 5", "capped at three")
	assert.NotContains(t, body, `<a href="/recipes/r1">`, "never suggests itself")
}

func TestRecipeDetailOmitsSimilarWhenAlone(t *testing.T) {
	ws := newTestServer(t, newFakeBackend(1))

	w := get(ws, "/recipes/r1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Similar recipes")
}

func TestLoginSetsSessionAndShowsUser(t *testing.T) {
	ws := newTestServer(t, newFakeBackend(1))

	cookie := login(t, ws)
	w := get(ws, "/recipes", cookie)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ada Lovelace")
}

func TestLogoutClearsSession(t *testing.T) {
	ws := newTestServer(t, newFakeBackend(1))
	cookie := login(t, ws)

	w := postForm(ws, "/logout", url.Values{}, cookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	w = get(ws, "/recipes", cookie)
	assert.NotContains(t, w.Body.String(), "Ada Lovelace")
}

func TestSubmitRecipeRequiresLogin(t *testing.T) {
	ws := newTestServer(t, newFakeBackend(1))

	w := get(ws, "/submit-recipe", nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/login")
}

func TestLikeRequiresLogin(t *testing.T) {
	backend := newFakeBackend(1)
	ws := newTestServer(t, backend)

	w := postForm(ws, "/partials/recipes/r1/like", url.Values{"liked": {"false"}}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Please log in")
	assert.Zero(t, backend.likeCalls, "guests never hit the backend")
}

func TestLikeConfirmsAndRendersNewState(t *testing.T) {
	backend := newFakeBackend(1)
	ws := newTestServer(t, backend)
	cookie := login(t, ws)

	w := postForm(ws, "/partials/recipes/r1/like", url.Values{"liked": {"false"}}, cookie)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Saved")
	assert.Contains(t, w.Body.String(), "Recipe added to favorites")
	assert.Equal(t, 1, backend.likeCalls)
}

func TestReviewValidationPreservesInputs(t *testing.T) {
	ws := newTestServer(t, newFakeBackend(1))
	cookie := login(t, ws)

	w := postForm(ws, "/partials/recipes/r1/reviews", url.Values{
		"rating":  {"0"},
		"comment": {"almost done typing this"},
	}, cookie)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please select a rating")
	assert.Contains(t, w.Body.String(), "almost done typing this")
}

func TestReviewSubmitRendersRefreshedList(t *testing.T) {
	ws := newTestServer(t, newFakeBackend(1))
	cookie := login(t, ws)

	w := postForm(ws, "/partials/recipes/r1/reviews", url.Values{
		"rating":  {"5"},
		"comment": {"Wonderful"},
	}, cookie)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Thanks for your review!")
	assert.Contains(t, w.Body.String(), "Lovely")
}

func TestAdminRedirectsNonAdmins(t *testing.T) {
	ws := newTestServer(t, newFakeBackend(1))
	cookie := login(t, ws)

	w := get(ws, "/admin/", cookie)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestAdminDashboardRendersForAdmins(t *testing.T) {
	backend := newFakeBackend(1)
	backend.adminUser = true
	ws := newTestServer(t, backend)
	cookie := login(t, ws)

	w := get(ws, "/admin/", cookie)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "42")
}

func TestHealthReportsBackendState(t *testing.T) {
	ws := newTestServer(t, newFakeBackend(0))

	w := get(ws, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	ws := newTestServer(t, newFakeBackend(0))

	get(ws, "/", nil)
	w := get(ws, "/metrics", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tastevine_web_requests_total")
}
