package repositories

import (
	"context"

	"backoffice-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CustomerRepository struct {
	DB *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{DB: db}
}

func (r *CustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO customers(name, phone, email, address, credit_limit, is_active)
         VALUES($1, $2, $3, $4, $5, true)
         RETURNING id, is_active, created_at, updated_at`,
		c.Name, c.Phone, c.Email, c.Address, c.CreditLimit,
	).Scan(&c.ID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
}

func (r *CustomerRepository) Get(ctx context.Context, id int) (*models.Customer, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, name, COALESCE(phone, ''), COALESCE(email, ''), COALESCE(address, ''),
		        credit_limit, is_active, created_at, updated_at
         FROM customers WHERE id=$1`, id)

	var c models.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address,
		&c.CreditLimit, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all active customers ordered by name
func (r *CustomerRepository) List(ctx context.Context) ([]models.Customer, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name, COALESCE(phone, ''), COALESCE(email, ''), COALESCE(address, ''),
		        credit_limit, is_active, created_at, updated_at
         FROM customers WHERE is_active = true ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		var c models.Customer
		err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address,
			&c.CreditLimit, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *CustomerRepository) Update(ctx context.Context, c *models.Customer) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE customers SET name=$1, phone=$2, email=$3, address=$4, credit_limit=$5, updated_at=CURRENT_TIMESTAMP
         WHERE id=$6`,
		c.Name, c.Phone, c.Email, c.Address, c.CreditLimit, c.ID)
	return err
}

// Deactivate soft-deletes a customer; ledger history is never removed
func (r *CustomerRepository) Deactivate(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE customers SET is_active=false, updated_at=CURRENT_TIMESTAMP WHERE id=$1`, id)
	return err
}
