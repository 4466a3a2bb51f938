package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/gestor/backoffice/internal/finance/domain"
	"github.com/gestor/backoffice/pkg/database"
	"github.com/gestor/backoffice/pkg/errors"
)

const categoryColumns = `id, name, description, type, created_at, updated_at`

// CategoryRepository handles financial category persistence
type CategoryRepository struct {
	db *database.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *database.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create creates a new category
func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	c.ID = uuid.New().String()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt

	query := `
		INSERT INTO financial_categories (id, name, description, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query,
		c.ID, c.Name, c.Description, c.Kind, c.CreatedAt, c.UpdatedAt,
	)
	return database.MapError(err)
}

// GetByID gets a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	var c domain.Category
	query := `SELECT ` + categoryColumns + ` FROM financial_categories WHERE id = $1`

	if err := r.db.Querier(ctx).GetContext(ctx, &c, query, id); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("category")
		}
		return nil, err
	}
	return &c, nil
}

// List lists categories ordered by name, optionally restricted to one kind
func (r *CategoryRepository) List(ctx context.Context, kind domain.Kind) ([]*domain.Category, error) {
	var categories []*domain.Category

	query := `SELECT ` + categoryColumns + ` FROM financial_categories`
	args := []interface{}{}
	if kind != "" {
		query += ` WHERE type = $1`
		args = append(args, kind)
	}
	query += ` ORDER BY name, type`

	if err := r.db.Querier(ctx).SelectContext(ctx, &categories, query, args...); err != nil {
		return nil, err
	}
	return categories, nil
}

// FindByNameAndKind returns the oldest category with the given natural key
func (r *CategoryRepository) FindByNameAndKind(ctx context.Context, name string, kind domain.Kind) (*domain.Category, error) {
	var c domain.Category
	query := `
		SELECT ` + categoryColumns + `
		FROM financial_categories
		WHERE name = $1 AND type = $2
		ORDER BY created_at, id
		LIMIT 1
	`

	if err := r.db.Querier(ctx).GetContext(ctx, &c, query, name, kind); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("category")
		}
		return nil, err
	}
	return &c, nil
}

// GetOrCreate returns the category named name of the given kind, creating it
// with defaultDescription when absent. Concurrent callers asking for the same
// key are serialized on a transaction-scoped advisory lock, so the pair never
// gets two rows even though the schema does not forbid it.
func (r *CategoryRepository) GetOrCreate(ctx context.Context, name string, kind domain.Kind, defaultDescription string) (*domain.Category, error) {
	var category *domain.Category

	err := r.db.Transaction(ctx, func(ctx context.Context) error {
		if err := r.db.AdvisoryXactLock(ctx, categoryLockKey(name, kind)); err != nil {
			return err
		}

		existing, err := r.FindByNameAndKind(ctx, name, kind)
		if err == nil {
			category = existing
			return nil
		}
		if !errors.Is(err, errors.ErrNotFound) {
			return err
		}

		c := &domain.Category{Name: name, Kind: kind}
		if defaultDescription != "" {
			c.Description = &defaultDescription
		}
		if err := r.Create(ctx, c); err != nil {
			return err
		}
		category = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	return category, nil
}

func categoryLockKey(name string, kind domain.Kind) string {
	return "financial_category:" + string(kind) + ":" + name
}
