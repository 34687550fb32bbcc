package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/contract-bot/internal/database"
	"gitlab.com/yelinaung/contract-bot/internal/models"
)

// CategoryRepository handles contract category and type operations.
type CategoryRepository struct {
	db database.PGXDB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db database.PGXDB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetAll retrieves all categories.
func (r *CategoryRepository) GetAll(ctx context.Context) ([]models.Category, error) {
	return r.queryCategories(ctx, `SELECT id, name FROM contract_categories ORDER BY name`)
}

// GetWithActiveContracts retrieves categories that have at least one active contract.
func (r *CategoryRepository) GetWithActiveContracts(ctx context.Context) ([]models.Category, error) {
	return r.queryCategories(ctx, `
		SELECT DISTINCT cat.id, cat.name
		FROM contracts c
		JOIN contract_types t ON t.id = c.contract_type
		JOIN contract_categories cat ON cat.id = t.category_id
		WHERE c.is_active
		ORDER BY cat.name
	`)
}

func (r *CategoryRepository) queryCategories(ctx context.Context, query string) ([]models.Category, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// GetByID retrieves a category by ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id int) (*models.Category, error) {
	var cat models.Category
	err := r.db.QueryRow(ctx, `SELECT id, name FROM contract_categories WHERE id = $1`, id).
		Scan(&cat.ID, &cat.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", notFound(err))
	}
	return &cat, nil
}

// Create adds a new category. An existing category with the same name is
// returned instead of failing.
func (r *CategoryRepository) Create(ctx context.Context, name string) (*models.Category, error) {
	var cat models.Category
	err := r.db.QueryRow(ctx, `
		INSERT INTO contract_categories (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name
	`, name).Scan(&cat.ID, &cat.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &cat, nil
}

// GetTypes retrieves the contract types of one category.
func (r *CategoryRepository) GetTypes(ctx context.Context, categoryID int) ([]models.ContractType, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, category_id FROM contract_types
		WHERE category_id = $1
		ORDER BY name
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contract types: %w", err)
	}
	defer rows.Close()

	var types []models.ContractType
	for rows.Next() {
		var ct models.ContractType
		if err := rows.Scan(&ct.ID, &ct.Name, &ct.CategoryID); err != nil {
			return nil, fmt.Errorf("failed to scan contract type: %w", err)
		}
		types = append(types, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contract types: %w", err)
	}
	return types, nil
}

// CreateType adds a contract type to a category. An existing type with the
// same name in that category is returned instead of failing.
func (r *CategoryRepository) CreateType(ctx context.Context, categoryID int, name string) (*models.ContractType, error) {
	var ct models.ContractType
	err := r.db.QueryRow(ctx, `
		INSERT INTO contract_types (name, category_id) VALUES ($1, $2)
		ON CONFLICT (category_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, category_id
	`, name, categoryID).Scan(&ct.ID, &ct.Name, &ct.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to create contract type: %w", err)
	}
	return &ct, nil
}
