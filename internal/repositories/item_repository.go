package repositories

import (
	"context"

	"backoffice-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ItemRepository struct {
	DB *pgxpool.Pool
}

func NewItemRepository(db *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{DB: db}
}

func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO items(name, sku, description, unit_price, tax_rate_percent, is_active)
         VALUES($1, $2, $3, $4, $5, true)
         RETURNING id, is_active, created_at, updated_at`,
		item.Name, item.SKU, item.Description, item.UnitPrice, item.TaxRatePercent,
	).Scan(&item.ID, &item.IsActive, &item.CreatedAt, &item.UpdatedAt)
}

func (r *ItemRepository) Get(ctx context.Context, id int) (*models.Item, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, name, COALESCE(sku, ''), COALESCE(description, ''),
		        unit_price, tax_rate_percent, is_active, created_at, updated_at
         FROM items WHERE id=$1`, id)

	var item models.Item
	err := row.Scan(&item.ID, &item.Name, &item.SKU, &item.Description,
		&item.UnitPrice, &item.TaxRatePercent, &item.IsActive, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns all active catalog items ordered by name
func (r *ItemRepository) List(ctx context.Context) ([]models.Item, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name, COALESCE(sku, ''), COALESCE(description, ''),
		        unit_price, tax_rate_percent, is_active, created_at, updated_at
         FROM items WHERE is_active = true ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var item models.Item
		err := rows.Scan(&item.ID, &item.Name, &item.SKU, &item.Description,
			&item.UnitPrice, &item.TaxRatePercent, &item.IsActive, &item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE items SET name=$1, sku=$2, description=$3, unit_price=$4, tax_rate_percent=$5, is_active=$6, updated_at=CURRENT_TIMESTAMP
         WHERE id=$7`,
		item.Name, item.SKU, item.Description, item.UnitPrice, item.TaxRatePercent, item.IsActive, item.ID)
	return err
}

// Deactivate soft-deletes an item so past invoice lines keep their reference
func (r *ItemRepository) Deactivate(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE items SET is_active=false, updated_at=CURRENT_TIMESTAMP WHERE id=$1`, id)
	return err
}
