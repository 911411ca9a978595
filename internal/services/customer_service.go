package services

import (
	"context"
	"errors"

	"backoffice-backend/internal/cache"
	"backoffice-backend/internal/models"
	"backoffice-backend/internal/repositories"
)

type CustomerService struct {
	Repo *repositories.CustomerRepository
}

func NewCustomerService(repo *repositories.CustomerRepository) *CustomerService {
	return &CustomerService{Repo: repo}
}

func (s *CustomerService) CreateCustomer(ctx context.Context, req *models.CreateCustomerRequest) (*models.Customer, error) {
	if req.Name == "" {
		return nil, errors.New("customer name is required")
	}
	if req.CreditLimit.Sign() < 0 {
		return nil, errors.New("credit limit cannot be negative")
	}

	customer := &models.Customer{
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
		CreditLimit: req.CreditLimit,
	}
	if err := s.Repo.Create(ctx, customer); err != nil {
		return nil, err
	}
	cache.InvalidateCustomerCaches(ctx)
	return customer, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, id int) (*models.Customer, error) {
	return s.Repo.Get(ctx, id)
}

func (s *CustomerService) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	return s.Repo.List(ctx)
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, id int, req *models.UpdateCustomerRequest) (*models.Customer, error) {
	if req.CreditLimit.Sign() < 0 {
		return nil, errors.New("credit limit cannot be negative")
	}

	customer, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	customer.Name = req.Name
	customer.Phone = req.Phone
	customer.Email = req.Email
	customer.Address = req.Address
	customer.CreditLimit = req.CreditLimit

	if err := s.Repo.Update(ctx, customer); err != nil {
		return nil, err
	}
	cache.InvalidateCustomerCaches(ctx)
	cache.InvalidateBalance(ctx, id) // credit limit feeds the balance payload
	return customer, nil
}

// DeactivateCustomer soft-deletes; invoices and ledger history stay intact
func (s *CustomerService) DeactivateCustomer(ctx context.Context, id int) error {
	if err := s.Repo.Deactivate(ctx, id); err != nil {
		return err
	}
	cache.InvalidateCustomerCaches(ctx)
	return nil
}
