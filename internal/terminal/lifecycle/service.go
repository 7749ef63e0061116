package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/cafepos/internal/terminal/gateway"
	"github.com/angelmondragon/cafepos/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
	"github.com/angelmondragon/cafepos/pkg/sale"
)

const defaultResumeLimit = 20

type saleGateway interface {
	CreateSale(ctx context.Context, req sale.CreateSaleRequest) (*sale.Sale, error)
	GetSale(ctx context.Context, saleID uuid.UUID) (*sale.Sale, error)
	ListSales(ctx context.Context, params gateway.ListParams) (*sale.SalePage, error)
	CompleteSale(ctx context.Context, saleID uuid.UUID) (*sale.Sale, error)
	VoidSale(ctx context.Context, saleID uuid.UUID, req sale.VoidSaleRequest) (*sale.Sale, error)
}

// Service moves sales through draft, completed and voided. Transition rules are
// checked locally; the balance gate for completion is the server's call.
type Service interface {
	CreateSale(ctx context.Context, customerID *uuid.UUID) (*sale.Sale, error)
	ResumeSale(ctx context.Context, saleID uuid.UUID) (*sale.Sale, error)
	ListDrafts(ctx context.Context, limit int, cursor string) (*sale.SalePage, error)
	CompleteSale(ctx context.Context, current *sale.Sale) (*sale.Sale, error)
	VoidSale(ctx context.Context, current *sale.Sale, reason string) (*sale.Sale, error)
}

type service struct {
	gw saleGateway
}

func NewService(gw saleGateway) (Service, error) {
	if gw == nil {
		return nil, fmt.Errorf("sale gateway required")
	}
	return &service{gw: gw}, nil
}

func (s *service) CreateSale(ctx context.Context, customerID *uuid.UUID) (*sale.Sale, error) {
	return s.gw.CreateSale(ctx, sale.CreateSaleRequest{CustomerID: customerID})
}

// ResumeSale always reloads from the server; no local copy is trusted.
func (s *service) ResumeSale(ctx context.Context, saleID uuid.UUID) (*sale.Sale, error) {
	if saleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id is required")
	}
	return s.gw.GetSale(ctx, saleID)
}

func (s *service) ListDrafts(ctx context.Context, limit int, cursor string) (*sale.SalePage, error) {
	if limit <= 0 {
		limit = defaultResumeLimit
	}
	status := enums.SaleStatusDraft
	return s.gw.ListSales(ctx, gateway.ListParams{Status: &status, Limit: limit, Cursor: cursor})
}

// CompleteSale asks the server to finalize. A rejection (e.g. an outstanding balance)
// is returned as-is and never retried.
func (s *service) CompleteSale(ctx context.Context, current *sale.Sale) (*sale.Sale, error) {
	if current == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale is required")
	}
	if err := sale.CheckTransition(current.Status, enums.SaleStatusCompleted); err != nil {
		return nil, err
	}
	return s.gw.CompleteSale(ctx, current.ID)
}

func (s *service) VoidSale(ctx context.Context, current *sale.Sale, reason string) (*sale.Sale, error) {
	if current == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale is required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "void reason is required")
	}
	if err := sale.CheckTransition(current.Status, enums.SaleStatusVoided); err != nil {
		return nil, err
	}
	return s.gw.VoidSale(ctx, current.ID, sale.VoidSaleRequest{Reason: reason})
}
