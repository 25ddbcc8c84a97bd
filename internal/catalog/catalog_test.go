package catalog

import (
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastevine/web/internal/domain/recipe"
)

func sampleRecipes() []recipe.Recipe {
	return []recipe.Recipe{
		{ID: "1", Title: "Avocado Toast", Description: "quick breakfast", Category: "breakfast",
			Difficulty: "easy", Cuisine: "modern", Diet: "vegetarian", PrepTime: 10, Calories: 150,
			Ingredients: []string{"avocado", "bread"}},
		{ID: "2", Title: "Beef Stew", Description: "hearty dinner", Category: "dinner",
			Difficulty: "hard", Cuisine: "french", Diet: "none", PrepTime: 45, Calories: 700,
			Ingredients: []string{"beef", "carrot"}},
		{ID: "3", Title: "Pancakes", Description: "sweet breakfast stack", Category: "breakfast",
			Difficulty: "medium", Cuisine: "american", Diet: "vegetarian", PrepTime: 15, Calories: 400,
			Ingredients: []string{"flour", "milk", "egg"}},
	}
}

func TestFilterSearchMatchesTitleOrDescription(t *testing.T) {
	recipes := sampleRecipes()

	got := Apply(recipes, Filter{Search: "TOAST"})
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	got = Apply(recipes, Filter{Search: "hearty"})
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)

	got = Apply(recipes, Filter{Search: "breakfast"})
	assert.Len(t, got, 2, "description matches count too")
}

func TestFilterIngredientSubstring(t *testing.T) {
	got := Apply(sampleRecipes(), Filter{Ingredient: "car"})
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}

func TestFilterPredicatesAreANDed(t *testing.T) {
	got := Apply(sampleRecipes(), Filter{Category: "breakfast", Difficulty: "easy"})
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	got = Apply(sampleRecipes(), Filter{Category: "breakfast", Difficulty: "hard"})
	assert.Empty(t, got)
}

func TestFilterAllMeansNoRestriction(t *testing.T) {
	got := Apply(sampleRecipes(), Filter{Category: SelectionAll, Difficulty: SelectionAll})
	assert.Len(t, got, 3)
}

func TestTimeBucketBoundaries(t *testing.T) {
	at15 := recipe.Recipe{PrepTime: 15}
	at16 := recipe.Recipe{PrepTime: 16}

	assert.True(t, Filter{TimeRange: TimeUnder15}.Matches(at15), "boundary belongs to lower bucket")
	assert.False(t, Filter{TimeRange: Time15To30}.Matches(at15))
	assert.True(t, Filter{TimeRange: Time15To30}.Matches(at16))
	assert.False(t, Filter{TimeRange: TimeUnder15}.Matches(at16))

	assert.True(t, Filter{TimeRange: Time30To60}.Matches(recipe.Recipe{PrepTime: 60}))
	assert.True(t, Filter{TimeRange: TimeOver60}.Matches(recipe.Recipe{PrepTime: 61}))
}

func TestCalorieBucketBoundaries(t *testing.T) {
	assert.True(t, Filter{CalorieRange: CaloriesUnder200}.Matches(recipe.Recipe{Calories: 200}))
	assert.True(t, Filter{CalorieRange: Calories200To400}.Matches(recipe.Recipe{Calories: 201}))
	assert.True(t, Filter{CalorieRange: Calories400To600}.Matches(recipe.Recipe{Calories: 600}))
	assert.True(t, Filter{CalorieRange: CaloriesOver600}.Matches(recipe.Recipe{Calories: 601}))
}

func TestEndToEndCategoryFilter(t *testing.T) {
	recipes := []recipe.Recipe{
		{ID: "1", PrepTime: 10, Category: "breakfast", Calories: 150},
		{ID: "2", PrepTime: 45, Category: "dinner", Calories: 700},
	}

	filtered := Apply(recipes, Filter{Category: "breakfast"})
	require.Len(t, filtered, 1)
	assert.Equal(t, 10, filtered[0].PrepTime)

	page := Paginate(filtered, 0, DefaultPageSize)
	assert.Equal(t, 1, page.TotalPages)
}

func TestPaginateTotals(t *testing.T) {
	recipes := make([]recipe.Recipe, 13)
	for i := range recipes {
		recipes[i] = recipe.Recipe{ID: fmt.Sprintf("%d", i)}
	}

	page := Paginate(recipes, 0, 6)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 6)
	assert.Equal(t, 1, page.Start)
	assert.Equal(t, 6, page.End)
	assert.False(t, page.HasPrev())
	assert.True(t, page.HasNext())

	page = Paginate(recipes, 2, 6)
	assert.Len(t, page.Items, 1, "last page holds the remainder")
	assert.Equal(t, 13, page.Start)
	assert.Equal(t, 13, page.End)
	assert.True(t, page.HasPrev())
	assert.False(t, page.HasNext())
}

func TestPaginateOutOfRange(t *testing.T) {
	page := Paginate(sampleRecipes(), 9, 6)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.TotalPages)

	page = Paginate(nil, 0, 6)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.TotalPages)
	assert.Equal(t, 0, page.Start)
}

func TestClearRestoresUnfilteredFirstPage(t *testing.T) {
	active := Filter{
		Search:       "stew",
		Ingredient:   "beef",
		Category:     "dinner",
		Difficulty:   "hard",
		Cuisine:      "french",
		Diet:         "none",
		TimeRange:    Time30To60,
		CalorieRange: CaloriesOver600,
	}
	require.False(t, active.IsZero())

	cleared := active.Clear()
	assert.True(t, cleared.IsZero())
	assert.Len(t, Apply(sampleRecipes(), cleared), 3)
	assert.Equal(t, 0, ResetPage(active, cleared, 2))
}

func TestResetPageOnFilterChange(t *testing.T) {
	prev := Filter{Category: "breakfast"}
	assert.Equal(t, 0, ResetPage(prev, Filter{Category: "dinner"}, 2))
	assert.Equal(t, 2, ResetPage(prev, prev, 2), "unchanged filter keeps the page")
}

func TestSortOrders(t *testing.T) {
	now := time.Now()
	recipes := []recipe.Recipe{
		{ID: "a", Rating: 3, ReviewCount: 10, PrepTime: 30, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "b", Rating: 5, ReviewCount: 2, PrepTime: 10, CreatedAt: now},
		{ID: "c", Rating: 4, ReviewCount: 7, PrepTime: 20, CreatedAt: now.Add(-time.Hour)},
	}

	ids := func(rs []recipe.Recipe) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.ID
		}
		return out
	}

	assert.Equal(t, []string{"a", "c", "b"}, ids(Apply(recipes, Filter{Sort: SortPopular})))
	assert.Equal(t, []string{"b", "c", "a"}, ids(Apply(recipes, Filter{Sort: SortNewest})))
	assert.Equal(t, []string{"b", "c", "a"}, ids(Apply(recipes, Filter{Sort: SortRating})))
	assert.Equal(t, []string{"b", "c", "a"}, ids(Apply(recipes, Filter{Sort: SortTime})))
	assert.Equal(t, []string{"a", "b", "c"}, ids(Apply(recipes, Filter{})), "no sort keeps source order")
}

func TestApplyDoesNotMutateSource(t *testing.T) {
	gofakeit.Seed(11)
	recipes := make([]recipe.Recipe, 8)
	for i := range recipes {
		recipes[i] = recipe.Recipe{
			ID:       gofakeit.UUID(),
			Title:    gofakeit.Dinner(),
			Rating:   gofakeit.Float64Range(0, 5),
			PrepTime: gofakeit.Number(5, 90),
		}
	}
	first := recipes[0].ID

	Apply(recipes, Filter{Sort: SortRating})
	assert.Equal(t, first, recipes[0].ID)
}
