package services

import (
	"context"
	"errors"

	"backoffice-backend/internal/models"
	"backoffice-backend/internal/repositories"
)

type ItemService struct {
	Repo *repositories.ItemRepository
}

func NewItemService(repo *repositories.ItemRepository) *ItemService {
	return &ItemService{Repo: repo}
}

func (s *ItemService) CreateItem(ctx context.Context, req *models.CreateItemRequest) (*models.Item, error) {
	if req.Name == "" {
		return nil, errors.New("item name is required")
	}
	if req.UnitPrice.Sign() < 0 {
		return nil, errors.New("unit price cannot be negative")
	}
	if req.TaxRatePercent.Sign() < 0 {
		return nil, errors.New("tax rate cannot be negative")
	}

	item := &models.Item{
		Name:           req.Name,
		SKU:            req.SKU,
		Description:    req.Description,
		UnitPrice:      req.UnitPrice,
		TaxRatePercent: req.TaxRatePercent,
	}
	if err := s.Repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ItemService) GetItem(ctx context.Context, id int) (*models.Item, error) {
	return s.Repo.Get(ctx, id)
}

func (s *ItemService) ListItems(ctx context.Context) ([]models.Item, error) {
	return s.Repo.List(ctx)
}

func (s *ItemService) UpdateItem(ctx context.Context, id int, req *models.UpdateItemRequest) (*models.Item, error) {
	if req.UnitPrice.Sign() < 0 {
		return nil, errors.New("unit price cannot be negative")
	}
	if req.TaxRatePercent.Sign() < 0 {
		return nil, errors.New("tax rate cannot be negative")
	}

	item, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Name = req.Name
	item.SKU = req.SKU
	item.Description = req.Description
	item.UnitPrice = req.UnitPrice
	item.TaxRatePercent = req.TaxRatePercent
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	if err := s.Repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ItemService) DeactivateItem(ctx context.Context, id int) error {
	return s.Repo.Deactivate(ctx, id)
}
