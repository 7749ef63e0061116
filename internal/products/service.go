package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/cafepos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
	"github.com/angelmondragon/cafepos/pkg/pagination"
	"github.com/angelmondragon/cafepos/pkg/sale"
)

// Service exposes catalog lookups for the till.
type Service interface {
	Search(ctx context.Context, input SearchInput) (*SearchResult, error)
	Get(ctx context.Context, id uuid.UUID) (*sale.Product, error)
}

type repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Search(ctx context.Context, query searchQuery) ([]models.Product, string, error)
}

type service struct {
	repo repository
}

// NewService builds a catalog service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Search(ctx context.Context, input SearchInput) (*SearchResult, error) {
	cursor, err := pagination.ParseKeyCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, next, err := s.repo.Search(ctx, searchQuery{
		Query:  input.Query,
		Limit:  input.Pagination.Limit,
		Cursor: cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}

	items := make([]sale.Product, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.ToDomain())
	}
	return &SearchResult{Items: items, NextCursor: next}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*sale.Product, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	product := row.ToDomain()
	return &product, nil
}
