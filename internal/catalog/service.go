package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/adriansoto/stockpilot-backend/pkg/db/models"
	pkgerrors "github.com/adriansoto/stockpilot-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes the read-only catalog contract the ledger core depends on.
type Service interface {
	Get(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	GetActive(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	LowStock(ctx context.Context) ([]LowStockRow, error)
}

type service struct {
	repo Repository
}

// NewService wires a catalog service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

// GetActive loads a product and rejects inactive ones, for paths that must
// not trade discontinued items.
func (s *service) GetActive(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "product %s is inactive", product.SKU)
	}
	return product, nil
}

func (s *service) LowStock(ctx context.Context) ([]LowStockRow, error) {
	rows, err := s.repo.ListBelowReorderMin(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock")
	}
	return rows, nil
}
