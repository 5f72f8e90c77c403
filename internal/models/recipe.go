package models

// Recipe is one entry of the ingredient dataset.
type Recipe struct {
	ID          int64    `json:"id"`
	Cuisine     string   `json:"cuisine"`
	Ingredients []string `json:"ingredients"`
}

// Suggestion is the structured answer of the recipe endpoint.
type Suggestion struct {
	BestCuisine        string   `json:"best_cuisine"`
	MatchedIngredients []string `json:"matched_ingredients"`
	SimilarityScore    float64  `json:"similarity_score"`
	LLMRecipe          string   `json:"llm_recipe"`
}
