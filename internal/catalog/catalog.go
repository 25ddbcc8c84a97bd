// Package catalog implements the recipe listing pipeline: filtering,
// sorting and pagination over the in-memory recipe list fetched from
// the backend. Everything here is pure and synchronous.
package catalog

import (
	"math"
	"sort"
	"strings"

	"github.com/tastevine/web/internal/domain/recipe"
)

// DefaultPageSize is the number of recipe cards per catalog page.
const DefaultPageSize = 6

// Filter selection values meaning "no restriction".
const (
	SelectionAll = "all"
)

// Prep-time buckets. A recipe exactly at a boundary belongs to the
// lower bucket (prepTime 15 matches "0-15", not "15-30").
const (
	TimeUnder15 = "0-15"
	Time15To30  = "15-30"
	Time30To60  = "30-60"
	TimeOver60  = "60+"
)

// Calorie buckets, same boundary rule as the time buckets.
const (
	CaloriesUnder200 = "0-200"
	Calories200To400 = "200-400"
	Calories400To600 = "400-600"
	CaloriesOver600  = "600+"
)

// Sort orders. Empty means source order.
const (
	SortPopular = "popular"
	SortNewest  = "newest"
	SortRating  = "rating"
	SortTime    = "time"
)

// Filter bundles the independent catalog predicates. The zero value
// restricts nothing; predicates combine with AND semantics.
type Filter struct {
	Search       string
	Ingredient   string
	Category     string
	Difficulty   string
	Cuisine      string
	Diet         string
	TimeRange    string
	CalorieRange string
	Sort         string
}

// IsZero reports whether no predicate is active. The sort order is not
// a predicate; it never excludes a recipe.
func (f Filter) IsZero() bool {
	return f.Search == "" &&
		f.Ingredient == "" &&
		inactive(f.Category) &&
		inactive(f.Difficulty) &&
		inactive(f.Cuisine) &&
		inactive(f.Diet) &&
		inactive(f.TimeRange) &&
		inactive(f.CalorieRange)
}

// Clear returns the identity filter: every predicate back to its
// default. The caller also resets the page index to 0.
func (f Filter) Clear() Filter {
	return Filter{}
}

// Matches reports whether a recipe passes every active predicate.
func (f Filter) Matches(r recipe.Recipe) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.Title), q) &&
			!strings.Contains(strings.ToLower(r.Description), q) {
			return false
		}
	}

	if f.Ingredient != "" {
		q := strings.ToLower(f.Ingredient)
		found := false
		for _, ing := range r.Ingredients {
			if strings.Contains(strings.ToLower(ing), q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if !inactive(f.Category) && r.Category != f.Category {
		return false
	}
	if !inactive(f.Difficulty) && r.Difficulty != f.Difficulty {
		return false
	}
	if !inactive(f.Cuisine) && r.Cuisine != f.Cuisine {
		return false
	}
	if !inactive(f.Diet) && r.Diet != f.Diet {
		return false
	}

	if !inactive(f.TimeRange) && !matchesTime(f.TimeRange, r.PrepTime) {
		return false
	}
	if !inactive(f.CalorieRange) && !matchesCalories(f.CalorieRange, r.Calories) {
		return false
	}

	return true
}

func matchesTime(bucket string, prepTime int) bool {
	switch bucket {
	case TimeUnder15:
		return prepTime <= 15
	case Time15To30:
		return prepTime > 15 && prepTime <= 30
	case Time30To60:
		return prepTime > 30 && prepTime <= 60
	case TimeOver60:
		return prepTime > 60
	}
	return true
}

func matchesCalories(bucket string, calories float64) bool {
	switch bucket {
	case CaloriesUnder200:
		return calories <= 200
	case Calories200To400:
		return calories > 200 && calories <= 400
	case Calories400To600:
		return calories > 400 && calories <= 600
	case CaloriesOver600:
		return calories > 600
	}
	return true
}

func inactive(selection string) bool {
	return selection == "" || selection == SelectionAll
}

// Apply runs a single filtering pass over the source list and then
// sorts the survivors. The source slice is never mutated.
func Apply(recipes []recipe.Recipe, f Filter) []recipe.Recipe {
	filtered := make([]recipe.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if f.Matches(r) {
			filtered = append(filtered, r)
		}
	}

	switch f.Sort {
	case SortPopular:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].ReviewCount > filtered[j].ReviewCount
		})
	case SortNewest:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		})
	case SortRating:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Rating > filtered[j].Rating
		})
	case SortTime:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].PrepTime < filtered[j].PrepTime
		})
	}

	return filtered
}

// Page is one visible slice of the filtered list.
type Page struct {
	Items      []recipe.Recipe
	Index      int
	TotalPages int
	TotalItems int
	// Start and End are 1-based display positions ("Showing 7-12 of 13").
	Start int
	End   int
}

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool { return p.Index > 0 }

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool { return p.Index < p.TotalPages-1 }

// Paginate slices the filtered list into the requested zero-based page.
// An out-of-range index yields an empty page rather than an error; the
// handlers avoid that state by resetting the index on filter changes.
func Paginate(filtered []recipe.Recipe, index, pageSize int) Page {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if index < 0 {
		index = 0
	}

	total := len(filtered)
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	start := index * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	page := Page{
		Items:      filtered[start:end],
		Index:      index,
		TotalPages: totalPages,
		TotalItems: total,
	}
	if total > 0 && start < total {
		page.Start = start + 1
		page.End = end
	}
	return page
}

// ResetPage returns the page index to use after a filter transition:
// any change to the predicate set snaps back to the first page so an
// out-of-range empty page is never shown.
func ResetPage(prev, next Filter, index int) int {
	if prev != next {
		return 0
	}
	return index
}
