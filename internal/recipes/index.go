// Package recipes loads the ingredient dataset and finds the recipe closest to a
// free-text list of ingredients.
package recipes

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"recipechat/internal/models"
)

// ErrNoRecipes is returned when a dataset source holds no recipes.
var ErrNoRecipes = errors.New("no recipes loaded")

// commonIngredients are the words that mark a query without commas as an ingredient list.
var commonIngredients = map[string]struct{}{
	"egg": {}, "onion": {}, "tomato": {}, "chicken": {}, "beef": {}, "rice": {},
	"potato": {}, "carrot": {}, "milk": {}, "cheese": {}, "bread": {}, "butter": {},
	"oil": {}, "salt": {}, "pepper": {}, "sugar": {}, "flour": {}, "garlic": {},
	"ginger": {}, "lemon": {}, "apple": {}, "banana": {}, "orange": {},
}

// IsIngredientsQuery reports whether query reads like a list of ingredients: it has
// a comma, or at least two of its words are common ingredients.
func IsIngredientsQuery(query string) bool {
	if strings.Contains(query, ",") {
		return true
	}
	count := 0
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if _, ok := commonIngredients[word]; ok {
			count++
		}
	}
	return count >= 2
}

type entry struct {
	recipe models.Recipe
	text   string
}

// Index is an immutable, in-memory recipe dataset.
type Index struct {
	entries []entry
}

// NewIndex builds an index over recipes.
func NewIndex(recipes []models.Recipe) *Index {
	idx := &Index{entries: make([]entry, 0, len(recipes))}
	for _, r := range recipes {
		idx.entries = append(idx.entries, entry{recipe: r, text: strings.Join(r.Ingredients, ", ")})
	}
	return idx
}

// LoadFile reads a JSON array of recipes.
func LoadFile(path string) ([]models.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipes %s: %w", path, err)
	}
	var recipes []models.Recipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		return nil, fmt.Errorf("decode recipes: %w", err)
	}
	if len(recipes) == 0 {
		return nil, ErrNoRecipes
	}
	return recipes, nil
}

func (idx *Index) Len() int { return len(idx.entries) }

// BestMatch returns the recipe whose ingredient list scores highest against query.
// A recipe must score above zero to match; ties keep the earliest recipe.
func (idx *Index) BestMatch(query string) (models.Recipe, float64, bool) {
	var (
		best      models.Recipe
		bestScore float64
		found     bool
	)
	for _, e := range idx.entries {
		score := TokenSetRatio(query, e.text)
		if score > bestScore {
			bestScore = score
			best = e.recipe
			found = true
		}
	}
	return best, bestScore, found
}
