package recipe

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Normalize maps an arbitrary server-supplied object onto the canonical
// Recipe shape. It never panics: missing fields, alternate field names
// and wrong types all resolve to the documented fallbacks.
func Normalize(raw map[string]any) Recipe {
	r := Recipe{
		ID:          firstString(raw, "_id", "id"),
		Title:       stringOr(raw, "title", DefaultTitle),
		Description: stringOr(raw, "description", DefaultDescription),
		Image:       imageURL(raw["image"]),
		Images:      stringSlice(raw["images"]),
		PrepTime:    int(numberOr(0, raw["prepTime"], raw["time"])),
		Difficulty:  stringOr(raw, "difficulty", DifficultyEasy),
		Category:    stringOr(raw, "category", DefaultCategory),
		Cuisine:     stringOr(raw, "cuisine", DefaultCuisine),
		Diet:        stringOr(raw, "diet", DefaultDiet),
		Serves:      int(numberOr(1, raw["serves"], raw["yield"])),
		Calories:    numberOr(0, raw["calories"]),
		Rating:      normalizeRating(raw),
		ReviewCount: int(numberOr(0, raw["ratingCount"], raw["reviewCount"], raw["reviews"])),
		Ingredients: stringSlice(raw["ingredients"]),
		Liked:       boolValue(raw["liked"]),
	}

	if r.Ingredients == nil {
		r.Ingredients = []string{}
	}
	r.Instructions = stringSlice(raw["instructions"])
	if r.Instructions == nil {
		r.Instructions = []string{}
	}

	if r.Serves < 1 {
		r.Serves = 1
	}
	if r.PrepTime < 0 {
		r.PrepTime = 0
	}
	if r.Calories < 0 {
		r.Calories = 0
	}

	if author, ok := raw["author"].(map[string]any); ok {
		r.Author = Author{
			FullName: stringOr(author, "fullName", ""),
			Email:    stringOr(author, "email", ""),
		}
	}

	if created := firstString(raw, "createdAt"); created != "" {
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			r.CreatedAt = t
		}
	}

	return r
}

// normalizeRating resolves the rating in priority order: non-zero
// averageRating, non-zero rating, mean of a ratings array (entries are
// numbers or objects with a rating field), else 0. A zero in a
// higher-priority field falls through like an absent one. The result is
// always finite and clamped to [0,5].
func normalizeRating(raw map[string]any) float64 {
	rating := numberOr(0, raw["averageRating"], raw["rating"])
	if rating == 0 {
		if entries, ok := raw["ratings"].([]any); ok && len(entries) > 0 {
			var sum float64
			for _, e := range entries {
				if m, ok := e.(map[string]any); ok {
					sum += toNumber(m["rating"])
				} else {
					sum += toNumber(e)
				}
			}
			rating = sum / float64(len(entries))
		}
	}

	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return 0
	}
	return math.Min(5, math.Max(0, rating))
}

// DecodeList decodes a recipe-list response body. The backend answers
// with a bare array, {"recipes": [...]} or {"data": [...]} depending on
// the endpoint; all three narrow to the same slice here.
func DecodeList(body []byte) ([]Recipe, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	var items []any
	switch v := payload.(type) {
	case []any:
		items = v
	case map[string]any:
		if arr, ok := v["recipes"].([]any); ok {
			items = arr
		} else if arr, ok := v["data"].([]any); ok {
			items = arr
		}
	}

	recipes := make([]Recipe, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			recipes = append(recipes, Normalize(m))
		}
	}
	return recipes, nil
}

// DecodeOne decodes a single-recipe response body.
func DecodeOne(body []byte) (Recipe, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return Recipe{}, err
	}
	return Normalize(raw), nil
}

// DecodeReviews decodes a review-list body, tolerating a bare array or
// an object with a reviews field.
func DecodeReviews(body []byte) ([]Review, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	var items []any
	switch v := payload.(type) {
	case []any:
		items = v
	case map[string]any:
		if arr, ok := v["reviews"].([]any); ok {
			items = arr
		}
	}

	reviews := make([]Review, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rev := Review{
			ID:           firstString(m, "_id", "id"),
			RecipeID:     firstString(m, "recipe", "recipeId"),
			Rating:       int(numberOr(0, m["rating"])),
			Comment:      stringOr(m, "comment", ""),
			HelpfulCount: int(numberOr(0, m["helpfulCount"])),
		}
		if user, ok := m["user"].(map[string]any); ok {
			rev.User = Author{
				FullName: stringOr(user, "fullName", ""),
				Email:    stringOr(user, "email", ""),
			}
		}
		if created := firstString(m, "createdAt"); created != "" {
			if t, err := time.Parse(time.RFC3339, created); err == nil {
				rev.CreatedAt = t
			}
		}
		reviews = append(reviews, rev)
	}
	return reviews, nil
}

// imageURL accepts a direct URL string or an object carrying a url
// field; anything else resolves to empty string.
func imageURL(v any) string {
	switch img := v.(type) {
	case string:
		if strings.HasPrefix(img, "http") {
			return img
		}
	case map[string]any:
		if url, ok := img["url"].(string); ok {
			return url
		}
	}
	return ""
}

func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func stringOr(raw map[string]any, key, fallback string) string {
	if s, ok := raw[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// numberOr coerces the first non-zero numeric candidate, walking the
// priority order the backend's alternate field names require. An
// explicit zero falls through to the next candidate, the same way the
// backend's other clients treat these fields.
func numberOr(fallback float64, candidates ...any) float64 {
	for _, c := range candidates {
		if isNumber(c) {
			if n := toNumber(c); !math.IsNaN(n) && n != 0 {
				return n
			}
		}
	}
	return fallback
}

func isNumber(v any) bool {
	switch n := v.(type) {
	case float64, int, int64, json.Number:
		return true
	case string:
		_, err := strconv.ParseFloat(n, 64)
		return err == nil
	}
	return false
}

func toNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	return math.NaN()
}

func stringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func boolValue(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
