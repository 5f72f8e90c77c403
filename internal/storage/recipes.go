package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"recipechat/internal/models"
)

// SaveRecipes upserts recipes by id in a single transaction.
func SaveRecipes(ctx context.Context, db *sql.DB, driver string, recipes []models.Recipe) error {
	var query string
	switch driverName(driver) {
	case "sqlite3":
		query = `INSERT INTO recipes (id, cuisine, ingredients) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET cuisine = excluded.cuisine, ingredients = excluded.ingredients`
	case "mysql":
		query = `INSERT INTO recipes (id, cuisine, ingredients) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE cuisine = VALUES(cuisine), ingredients = VALUES(ingredients)`
	default:
		return fmt.Errorf("unsupported driver: %s", driver)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range recipes {
		ingredients, err := json.Marshal(r.Ingredients)
		if err != nil {
			return fmt.Errorf("encode ingredients of recipe %d: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Cuisine, string(ingredients)); err != nil {
			return fmt.Errorf("save recipe %d: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// LoadRecipes returns every stored recipe ordered by id.
func LoadRecipes(ctx context.Context, db *sql.DB) ([]models.Recipe, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, cuisine, ingredients FROM recipes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query recipes: %w", err)
	}
	defer rows.Close()

	var recipes []models.Recipe
	for rows.Next() {
		var (
			r   models.Recipe
			raw string
		)
		if err := rows.Scan(&r.ID, &r.Cuisine, &raw); err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &r.Ingredients); err != nil {
			return nil, fmt.Errorf("decode ingredients of recipe %d: %w", r.ID, err)
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipes: %w", err)
	}
	return recipes, nil
}
