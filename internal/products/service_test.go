package products

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/cafepos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
	"github.com/angelmondragon/cafepos/pkg/pagination"
)

func paginationParams(limit int, cursor string) pagination.Params {
	return pagination.Params{Limit: limit, Cursor: cursor}
}

type stubRepo struct {
	product   *models.Product
	findErr   error
	searchErr error
	lastQuery searchQuery
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.product, nil
}

func (s *stubRepo) Search(ctx context.Context, query searchQuery) ([]models.Product, string, error) {
	s.lastQuery = query
	if s.searchErr != nil {
		return nil, "", s.searchErr
	}
	if s.product == nil {
		return nil, "", nil
	}
	return []models.Product{*s.product}, "", nil
}

func TestServiceGetMapsNotFound(t *testing.T) {
	svc, err := NewService(&stubRepo{findErr: gorm.ErrRecordNotFound})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.Get(context.Background(), uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	svc, _ = NewService(&stubRepo{findErr: errors.New("db down")})
	if _, err := svc.Get(context.Background(), uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestServiceSearchRejectsBadCursor(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := NewService(repo)
	_, err := svc.Search(context.Background(), SearchInput{Query: "latte", Pagination: paginationParams(5, "%%%")})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceSearchMapsRows(t *testing.T) {
	product := &models.Product{ID: uuid.New(), SKU: "COF-LAT", Name: "Latte", UnitPrice: 450, IsActive: true}
	repo := &stubRepo{product: product}
	svc, _ := NewService(repo)

	page, err := svc.Search(context.Background(), SearchInput{Query: "lat", Pagination: paginationParams(5, "")})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != product.ID || page.Items[0].UnitPrice != 450 {
		t.Fatalf("unexpected page %+v", page)
	}
	if repo.lastQuery.Query != "lat" || repo.lastQuery.Limit != 5 || repo.lastQuery.Cursor != nil {
		t.Fatalf("unexpected query forwarded %+v", repo.lastQuery)
	}
}
