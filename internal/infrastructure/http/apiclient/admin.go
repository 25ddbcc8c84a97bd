package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "github.com/tastevine/web/pkg/errors"
)

// Admin endpoints. Every call is bearer-authenticated; the backend
// answers 403 for non-admin tokens, which handlers turn into a
// redirect to login.

// DashboardStats are the headline counters on the admin dashboard
type DashboardStats struct {
	TotalUsers          int `json:"totalUsers"`
	TotalRecipes        int `json:"totalRecipes"`
	TotalReviews        int `json:"totalReviews"`
	ActiveUsers         int `json:"activeUsers"`
	NewUsersThisMonth   int `json:"newUsersThisMonth"`
	NewRecipesThisMonth int `json:"newRecipesThisMonth"`
	NewReviewsThisMonth int `json:"newReviewsThisMonth"`
}

// TopRecipe is a dashboard highlight entry
type TopRecipe struct {
	ID            string   `json:"_id"`
	Title         string   `json:"title"`
	AverageRating float64  `json:"averageRating"`
	ReviewCount   int      `json:"reviewCount"`
	Images        []string `json:"images"`
}

// RecentUser is a dashboard recent-signup entry
type RecentUser struct {
	ID        string    `json:"_id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	IsActive  bool      `json:"isActive"`
}

// Dashboard is the admin dashboard payload
type Dashboard struct {
	Stats       DashboardStats `json:"stats"`
	TopRecipes  []TopRecipe    `json:"topRecipes"`
	RecentUsers []RecentUser   `json:"recentUsers"`
}

// GetDashboard fetches the admin dashboard stats
func (c *Client) GetDashboard(ctx context.Context, token string) (*Dashboard, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/admin/dashboard/stats", token, nil)
	if err != nil {
		return nil, err
	}

	var dashboard Dashboard
	if err := json.Unmarshal(body, &dashboard); err != nil {
		return nil, apperrors.Wrap(err, "Unexpected response from server")
	}
	return &dashboard, nil
}

// AdminUser is a user row in the admin user list
type AdminUser struct {
	ID          string    `json:"_id"`
	FullName    string    `json:"fullName"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	RecipeCount int       `json:"recipeCount"`
	ReviewCount int       `json:"reviewCount"`
}

// AdminUserList is a paginated user listing
type AdminUserList struct {
	Users      []AdminUser `json:"users"`
	TotalPages int         `json:"totalPages"`
}

// AdminListOptions narrow an admin listing request. Page is 1-based,
// matching the backend's admin pagination.
type AdminListOptions struct {
	Page     int
	Limit    int
	Search   string
	Role     string
	Category string
	Rating   string
}

func (o AdminListOptions) query() string {
	q := url.Values{}
	page := o.Page
	if page < 1 {
		page = 1
	}
	limit := o.Limit
	if limit < 1 {
		limit = 10
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Role != "" {
		q.Set("role", o.Role)
	}
	if o.Category != "" {
		q.Set("category", o.Category)
	}
	if o.Rating != "" {
		q.Set("rating", o.Rating)
	}
	return q.Encode()
}

// ListUsers fetches a page of users for the admin screen
func (c *Client) ListUsers(ctx context.Context, token string, opts AdminListOptions) (*AdminUserList, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/admin/users?"+opts.query(), token, nil)
	if err != nil {
		return nil, err
	}

	var list AdminUserList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, apperrors.Wrap(err, "Unexpected response from server")
	}
	return &list, nil
}

// SetUserStatus activates or deactivates a user account
func (c *Client) SetUserStatus(ctx context.Context, token, userID string, active bool) error {
	payload := map[string]bool{"isActive": active}
	_, err := c.do(ctx, http.MethodPut, "/api/admin/users/"+url.PathEscape(userID)+"/status", token, payload)
	return err
}

// PromoteUser grants the admin role to a user
func (c *Client) PromoteUser(ctx context.Context, token, userID string) error {
	_, err := c.do(ctx, http.MethodPut, "/api/admin/users/"+url.PathEscape(userID)+"/admin", token, nil)
	return err
}

// AdminRecipe is a recipe row in the admin recipe list
type AdminRecipe struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Images    []string  `json:"images"`
	CreatedAt time.Time `json:"createdAt"`
	User      struct {
		FullName string `json:"fullName"`
	} `json:"user"`
}

// AdminRecipeList is a paginated recipe listing
type AdminRecipeList struct {
	Recipes    []AdminRecipe `json:"recipes"`
	TotalPages int           `json:"totalPages"`
}

// ListAdminRecipes fetches a page of recipes for moderation
func (c *Client) ListAdminRecipes(ctx context.Context, token string, opts AdminListOptions) (*AdminRecipeList, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/admin/recipes?"+opts.query(), token, nil)
	if err != nil {
		return nil, err
	}

	var list AdminRecipeList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, apperrors.Wrap(err, "Unexpected response from server")
	}
	return &list, nil
}

// DeleteRecipe removes a recipe
func (c *Client) DeleteRecipe(ctx context.Context, token, recipeID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/admin/recipes/"+url.PathEscape(recipeID), token, nil)
	return err
}

// AdminReview is a review row in the admin review list
type AdminReview struct {
	ID      string `json:"_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
	User    struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	} `json:"user"`
	Recipe struct {
		ID    string `json:"_id"`
		Title string `json:"title"`
	} `json:"recipe"`
	CreatedAt time.Time `json:"createdAt"`
}

// AdminReviewList is a paginated review listing
type AdminReviewList struct {
	Reviews    []AdminReview `json:"reviews"`
	TotalPages int           `json:"totalPages"`
}

// ListAdminReviews fetches a page of reviews for moderation
func (c *Client) ListAdminReviews(ctx context.Context, token string, opts AdminListOptions) (*AdminReviewList, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/admin/reviews?"+opts.query(), token, nil)
	if err != nil {
		return nil, err
	}

	var list AdminReviewList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, apperrors.Wrap(err, "Unexpected response from server")
	}
	return &list, nil
}

// DeleteReview removes a review
func (c *Client) DeleteReview(ctx context.Context, token, reviewID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/admin/reviews/"+url.PathEscape(reviewID), token, nil)
	return err
}
