// Package webserver provides the web frontend HTTP server. Every page
// is rendered server-side from backend API data; partial endpoints
// re-render fragments for in-page updates.
package webserver

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/tastevine/web/internal/application/favorites"
	"github.com/tastevine/web/internal/application/reviews"
	"github.com/tastevine/web/internal/infrastructure/config"
	"github.com/tastevine/web/internal/infrastructure/http/apiclient"
	"github.com/tastevine/web/internal/infrastructure/session"
)

//go:embed templates/*
var templatesFS embed.FS

// WebServer represents the web frontend HTTP server
type WebServer struct {
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
	router    *chi.Mux
	apiClient *apiclient.Client
	sessions  *session.Manager
	favorites *favorites.Service
	reviews   *reviews.Service
	templates *template.Template
	metrics   *metrics
}

// NewWebServer creates a new web frontend server instance
func NewWebServer(
	cfg *config.Config,
	log *zap.Logger,
	client *apiclient.Client,
	sessions *session.Manager,
	favoritesService *favorites.Service,
	reviewsService *reviews.Service,
) (*WebServer, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	server := &WebServer{
		config:    cfg,
		logger:    log,
		apiClient: client,
		sessions:  sessions,
		favorites: favoritesService,
		reviews:   reviewsService,
		templates: templates,
		metrics:   newMetrics(),
	}

	server.router = server.setupRoutes()
	server.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return server, nil
}

// setupRoutes configures the web frontend routes
func (s *WebServer) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(s.requestLogMiddleware)
	r.Use(s.metrics.middleware)
	r.Use(s.securityHeadersMiddleware)
	r.Use(s.sessionMiddleware)

	// Operational endpoints
	r.Get("/health", s.handleHealthCheck)
	r.Handle("/metrics", s.metrics.handler())

	// Public pages
	r.Get("/", s.handleHome)
	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Get("/register", s.handleRegisterPage)
	r.Post("/register", s.handleRegister)
	r.Post("/logout", s.handleLogout)
	r.Get("/recipes", s.handleRecipeList)
	r.Get("/recipes/{id}", s.handleRecipeDetail)

	// Protected pages
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/submit-recipe", s.handleNewRecipePage)
		r.Post("/submit-recipe", s.handleCreateRecipe)
	})

	// Partial endpoints (return HTML fragments)
	r.Route("/partials", func(r chi.Router) {
		r.Get("/recipes", s.handleRecipeGridPartial)
		r.Post("/recipes/{id}/like", s.handleLikePartial)
		r.Post("/recipes/{id}/reviews", s.handleReviewPartial)
	})

	// Admin pages
	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/", s.handleAdminDashboard)
		r.Get("/users", s.handleAdminUsers)
		r.Post("/users/{id}/status", s.handleAdminUserStatus)
		r.Post("/users/{id}/promote", s.handleAdminUserPromote)
		r.Get("/recipes", s.handleAdminRecipes)
		r.Post("/recipes/{id}/delete", s.handleAdminRecipeDelete)
		r.Get("/reviews", s.handleAdminReviews)
		r.Post("/reviews/{id}/delete", s.handleAdminReviewDelete)
	})

	return r
}

// Start starts the web frontend HTTP server
func (s *WebServer) Start() error {
	s.logger.Info("Starting web frontend server",
		zap.String("address", s.server.Addr),
		zap.String("backend", s.apiClient.URL("")),
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the web server
func (s *WebServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down web frontend server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *WebServer) Handler() http.Handler {
	return s.router
}

// parseTemplates parses all HTML templates from the embedded filesystem.
// Template names are their paths relative to templates/, without the
// .html suffix, so partials/recipe-grid addresses a nested file.
func parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"truncate": func(s string, n int) string {
			if len(s) <= n {
				return s
			}
			return s[:n] + "..."
		},
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		"urlQuery": func(s string) string {
			return url.QueryEscape(s)
		},
		"stars": func(rating float64) string {
			full := int(rating + 0.5)
			if full > 5 {
				full = 5
			}
			return strings.Repeat("★", full) + strings.Repeat("☆", 5-full)
		},
		"list": func(items ...string) []string {
			return items
		},
		"dict": func(pairs ...any) map[string]any {
			m := make(map[string]any, len(pairs)/2)
			for i := 0; i+1 < len(pairs); i += 2 {
				if key, ok := pairs[i].(string); ok {
					m[key] = pairs[i+1]
				}
			}
			return m
		},
		"float64": func(i int) float64 { return float64(i) },
		"add":     func(a, b int) int { return a + b },
		"sub":     func(a, b int) int { return a - b },
		"seq": func(start, end int) []int {
			var result []int
			for i := start; i <= end; i++ {
				result = append(result, i)
			}
			return result
		},
	}

	tmpl := template.New("").Funcs(funcMap)

	err := fs.WalkDir(templatesFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		content, err := templatesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", path, err)
		}

		name := strings.TrimPrefix(path, "templates/")
		name = strings.TrimSuffix(name, ".html")

		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tmpl, nil
}

// Middleware

func (s *WebServer) requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *WebServer) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if s.config.IsProduction() {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// sessionMiddleware resolves the browser session and drops stale
// logins: a session whose bearer token has expired is logged out
// before the handler runs, token and user cleared together.
func (s *WebServer) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.sessions.Load(r)

		if sess.IsAuthenticated() && sess.TokenExpired() {
			s.logger.Debug("Clearing session with expired token", zap.String("session_id", sess.ID))
			sess.Logout()
			if err := s.sessions.Save(w, r, sess); err != nil {
				s.logger.Error("Failed to save session", zap.Error(err))
			}
		}

		ctx := session.NewContext(r.Context(), sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *WebServer) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if !sess.IsAuthenticated() {
			if isPartialRequest(r) {
				w.WriteHeader(http.StatusUnauthorized)
				s.renderPartial(w, "partials/notice", map[string]any{
					"Kind":    "error",
					"Message": "Please log in to continue.",
				})
				return
			}
			http.Redirect(w, r, "/login?redirect="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin gates the admin screens. Non-admins are sent to the
// login page rather than shown a forbidden error.
func (s *WebServer) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if !sess.IsAdmin() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// isPartialRequest reports whether the request came from an in-page
// fragment swap rather than a full navigation.
func isPartialRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// Operational handlers

func (s *WebServer) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	backendUp := s.apiClient.VerifyConnection(r.Context())

	status := "healthy"
	statusCode := http.StatusOK
	if !backendUp {
		status = "degraded"
		statusCode = http.StatusPartialContent
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"backend":   backendUp,
		"timestamp": time.Now(),
	})
}

// Render helpers

func (s *WebServer) renderTemplate(w http.ResponseWriter, name string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if data == nil {
		data = map[string]any{}
	}
	if data["Title"] == nil {
		data["Title"] = s.config.App.Name
	}

	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("Failed to execute template",
			zap.String("template", name),
			zap.Error(err),
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (s *WebServer) renderPartial(w http.ResponseWriter, name string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("Failed to execute partial",
			zap.String("template", name),
			zap.Error(err),
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (s *WebServer) renderError(w http.ResponseWriter, sess *session.Session, message string, err error) {
	s.logger.Error(message, zap.Error(err))
	w.WriteHeader(http.StatusInternalServerError)
	s.renderTemplate(w, "error", map[string]any{
		"Title":   "Error - " + s.config.App.Name,
		"Message": message,
		"Session": sess,
	})
}
