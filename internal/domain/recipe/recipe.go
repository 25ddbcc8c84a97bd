// Package recipe holds the canonical client-side recipe model. The
// backend API is duck-typed; everything downstream of this package sees
// exactly one shape, produced by the normalizer.
package recipe

import "time"

// Difficulty levels accepted from the backend.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Fallbacks applied during normalization.
const (
	DefaultTitle       = "Untitled"
	DefaultDescription = "No description provided."
	DefaultCategory    = "other"
	DefaultCuisine     = "modern"
	DefaultDiet        = "none"
)

// Author references the user who created a recipe or review.
type Author struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Recipe is the canonical client-side recipe shape. Invariants:
// ID is resolvable (possibly empty, never missing), Rating is a finite
// number in [0,5], Ingredients and Instructions are never nil.
type Recipe struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Image        string    `json:"image"`
	Images       []string  `json:"images,omitempty"`
	PrepTime     int       `json:"prepTime"`
	Difficulty   string    `json:"difficulty"`
	Category     string    `json:"category"`
	Cuisine      string    `json:"cuisine"`
	Diet         string    `json:"diet"`
	Serves       int       `json:"serves"`
	Calories     float64   `json:"calories"`
	Rating       float64   `json:"rating"`
	ReviewCount  int       `json:"reviewCount"`
	Ingredients  []string  `json:"ingredients"`
	Instructions []string  `json:"instructions"`
	Liked        bool      `json:"liked"`
	Author       Author    `json:"author"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Review is a rating plus comment left by a user on one recipe.
type Review struct {
	ID           string    `json:"id"`
	RecipeID     string    `json:"recipeId"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	User         Author    `json:"user"`
	HelpfulCount int       `json:"helpfulCount"`
	CreatedAt    time.Time `json:"createdAt"`
}
