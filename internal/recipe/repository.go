package recipe

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperengineering/recipes/internal/store"
)

// Repository defines the recipe operations used by the web layer and CLI.
type Repository interface {
	Create(ctx context.Context, in NewRecipe) (int64, error)
	Update(ctx context.Context, id int64, in NewRecipe) (bool, error)
	DeleteByID(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (Recipe, bool, error)
	FindByTitle(ctx context.Context, title string) (Recipe, bool, error)
	List(ctx context.Context, opts ListOptions) ([]Recipe, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// SQLRepository is the Repository backed by a store.DB.
type SQLRepository struct {
	db *store.DB
}

var _ Repository = (*SQLRepository)(nil)

// NewSQLRepository creates a repository over an open database.
func NewSQLRepository(db *store.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

const recipeColumns = "id, title, ingredients, method"

func scanRecipe(s store.Scanner) (Recipe, error) {
	var r Recipe
	err := s.Scan(&r.ID, &r.Title, &r.Ingredients, &r.Method)
	return r, err
}

// Create inserts one recipe and returns its new id.
func (r *SQLRepository) Create(ctx context.Context, in NewRecipe) (int64, error) {
	var id int64
	found, err := r.db.Get(ctx,
		"INSERT INTO recipes (title, ingredients, method) VALUES (?, ?, ?) RETURNING id",
		[]any{in.Title, in.Ingredients, in.Method},
		&id,
	)
	if err != nil {
		return 0, fmt.Errorf("insert recipe: %w", err)
	}
	if !found {
		return 0, fmt.Errorf("insert recipe: no id returned")
	}
	return id, nil
}

// Update replaces the fields of an existing recipe. It reports false when no row has that id.
func (r *SQLRepository) Update(ctx context.Context, id int64, in NewRecipe) (bool, error) {
	res, err := r.db.Run(ctx,
		"UPDATE recipes SET title = ?, ingredients = ?, method = ? WHERE id = ?",
		in.Title, in.Ingredients, in.Method, id,
	)
	if err != nil {
		return false, fmt.Errorf("update recipe %d: %w", id, err)
	}
	return res.RowsAffected > 0, nil
}

// DeleteByID removes the recipe with id. Deleting a missing id succeeds.
func (r *SQLRepository) DeleteByID(ctx context.Context, id int64) error {
	if _, err := r.db.Run(ctx, "DELETE FROM recipes WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete recipe %d: %w", id, err)
	}
	return nil
}

// FindByID looks up one recipe. The bool is false when nothing matched.
func (r *SQLRepository) FindByID(ctx context.Context, id int64) (Recipe, bool, error) {
	return r.findOne(ctx, "SELECT "+recipeColumns+" FROM recipes WHERE id = ?", id)
}

// FindByTitle returns the oldest recipe with exactly this title.
func (r *SQLRepository) FindByTitle(ctx context.Context, title string) (Recipe, bool, error) {
	return r.findOne(ctx, "SELECT "+recipeColumns+" FROM recipes WHERE title = ? ORDER BY id LIMIT 1", title)
}

func (r *SQLRepository) findOne(ctx context.Context, query string, arg any) (Recipe, bool, error) {
	var rec Recipe
	found, err := r.db.Get(ctx, query, []any{arg}, &rec.ID, &rec.Title, &rec.Ingredients, &rec.Method)
	if err != nil {
		return Recipe{}, false, fmt.Errorf("find recipe: %w", err)
	}
	return rec, found, nil
}

// List returns recipes newest first.
func (r *SQLRepository) List(ctx context.Context, opts ListOptions) ([]Recipe, error) {
	query := "SELECT " + recipeColumns + " FROM recipes"
	var args []any

	if q := strings.TrimSpace(opts.Query); q != "" {
		query += ` WHERE LOWER(title) LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(strings.ToLower(q))+"%")
	}
	query += " ORDER BY id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	recipes := []Recipe{}
	err := r.db.Select(ctx, query, args, func(s store.Scanner) error {
		rec, err := scanRecipe(s)
		if err != nil {
			return err
		}
		recipes = append(recipes, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// Count returns the number of stored recipes.
func (r *SQLRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if _, err := r.db.Get(ctx, "SELECT COUNT(*) FROM recipes", nil, &n); err != nil {
		return 0, fmt.Errorf("count recipes: %w", err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Ping reports whether the database is reachable.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
