package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/lmstore/backend/internal/logging"
	"github.com/lmstore/backend/internal/models"
	"github.com/lmstore/backend/internal/repo"
)

// ProductIndexer keeps the search index in sync with the catalog. Index
// updates are best-effort; the store is the source of truth.
type ProductIndexer interface {
	IndexProduct(ctx context.Context, product *models.Product) error
	RemoveProduct(ctx context.Context, id uint) error
}

type CatalogService struct {
	Repo    *repo.GormRepo
	Indexer ProductIndexer
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product not found", ErrNotFound)
		}
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) ListActive(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, true, offset, limit)
}

func (s *CatalogService) ListArchived(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, false, offset, limit)
}

func (s *CatalogService) Create(ctx context.Context, product *models.Product) error {
	if product.Name == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if product.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if product.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}
	product.IsActive = true

	if err := s.Repo.CreateProduct(ctx, product); err != nil {
		return err
	}
	s.reindex(ctx, product)
	return nil
}

type PatchProduct struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	ImageURL    *string  `json:"image_url"`
}

func (s *CatalogService) Patch(ctx context.Context, id uint, patch PatchProduct) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Price != nil {
		if *patch.Price < 0 {
			return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
		}
		product.Price = *patch.Price
	}
	if patch.ImageURL != nil {
		product.ImageURL = *patch.ImageURL
	}

	if err := s.Repo.SaveProduct(ctx, product); err != nil {
		return nil, err
	}
	s.reindex(ctx, product)
	return product, nil
}

// Deactivate archives a product. Historical orders keep their snapshots;
// the row is never hard-deleted.
func (s *CatalogService) Deactivate(ctx context.Context, id uint) error {
	if err := s.Repo.SetProductActive(ctx, id, false); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product not found", ErrNotFound)
		}
		return err
	}
	s.removeFromIndex(ctx, id)
	return nil
}

func (s *CatalogService) Restore(ctx context.Context, id uint) error {
	if err := s.Repo.SetProductActive(ctx, id, true); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product not found", ErrNotFound)
		}
		return err
	}
	if product, err := s.Repo.GetProduct(ctx, id); err == nil {
		s.reindex(ctx, product)
	}
	return nil
}

// UpdateStock sets stock to an absolute value. Negative stock is never
// allowed, admin override or not.
func (s *CatalogService) UpdateStock(ctx context.Context, id uint, stock int) error {
	if stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}
	if err := s.Repo.SetProductStock(ctx, id, stock); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product not found", ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *CatalogService) reindex(ctx context.Context, product *models.Product) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.IndexProduct(ctx, product); err != nil {
		logging.FromContext(ctx).Warn("index product", "product_id", product.ID, "error", err)
	}
}

func (s *CatalogService) removeFromIndex(ctx context.Context, id uint) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.RemoveProduct(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("remove product from index", "product_id", id, "error", err)
	}
}
