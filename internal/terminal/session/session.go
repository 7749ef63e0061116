// Package session holds the till's current sale and payment summary. Mutations run one
// at a time and replace the snapshot only when the server accepted them.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/cafepos/internal/terminal/cart"
	"github.com/angelmondragon/cafepos/internal/terminal/discount"
	"github.com/angelmondragon/cafepos/internal/terminal/ledger"
	"github.com/angelmondragon/cafepos/internal/terminal/lifecycle"
	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
	"github.com/angelmondragon/cafepos/pkg/logger"
	"github.com/angelmondragon/cafepos/pkg/money"
	"github.com/angelmondragon/cafepos/pkg/sale"
)

type Params struct {
	Cart      cart.Service
	Discount  discount.Service
	Ledger    ledger.Service
	Lifecycle lifecycle.Service
	Logger    *logger.Logger
}

type Session struct {
	cart      cart.Service
	discount  discount.Service
	ledger    ledger.Service
	lifecycle lifecycle.Service
	logg      *logger.Logger

	busy sync.Mutex

	mu      sync.RWMutex
	current *sale.Sale
	summary *sale.PaymentSummary
}

func New(params Params) (*Session, error) {
	switch {
	case params.Cart == nil:
		return nil, fmt.Errorf("cart service required")
	case params.Discount == nil:
		return nil, fmt.Errorf("discount service required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("ledger service required")
	case params.Lifecycle == nil:
		return nil, fmt.Errorf("lifecycle service required")
	}
	return &Session{
		cart:      params.Cart,
		discount:  params.Discount,
		ledger:    params.Ledger,
		lifecycle: params.Lifecycle,
		logg:      params.Logger,
	}, nil
}

// Snapshot returns copies of the current sale and summary. Either may be nil.
func (s *Session) Snapshot() (*sale.Sale, *sale.PaymentSummary) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone(), s.summary.Clone()
}

// NewSale starts a draft sale and makes it current.
func (s *Session) NewSale(ctx context.Context, customerID *uuid.UUID) (*sale.Sale, error) {
	return s.run(ctx, false, func(_ *sale.Sale) (*sale.Sale, error) {
		return s.lifecycle.CreateSale(ctx, customerID)
	})
}

// Resume loads an existing sale and its payment summary from the server.
func (s *Session) Resume(ctx context.Context, saleID uuid.UUID) (*sale.Sale, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	loaded, err := s.lifecycle.ResumeSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	summary, err := s.ledger.GetSummary(ctx, loaded.ID)
	if err != nil {
		return nil, err
	}
	s.replace(loaded, summary)
	return loaded.Clone(), nil
}

func (s *Session) AddItem(ctx context.Context, productID uuid.UUID, quantity int) (*sale.Sale, error) {
	return s.run(ctx, true, func(current *sale.Sale) (*sale.Sale, error) {
		return s.cart.AddItem(ctx, current, productID, quantity)
	})
}

func (s *Session) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (*sale.Sale, error) {
	return s.run(ctx, true, func(current *sale.Sale) (*sale.Sale, error) {
		return s.cart.UpdateItemQuantity(ctx, current, itemID, quantity)
	})
}

func (s *Session) UpdateItemDiscount(ctx context.Context, itemID uuid.UUID, amount money.Cents) (*sale.Sale, error) {
	return s.run(ctx, true, func(current *sale.Sale) (*sale.Sale, error) {
		return s.cart.UpdateItemDiscount(ctx, current, itemID, amount)
	})
}

func (s *Session) RemoveItem(ctx context.Context, itemID uuid.UUID) (*sale.Sale, error) {
	return s.run(ctx, true, func(current *sale.Sale) (*sale.Sale, error) {
		return s.cart.RemoveItem(ctx, current, itemID)
	})
}

func (s *Session) ApplyDiscount(ctx context.Context, amount money.Cents) (*sale.Sale, error) {
	return s.run(ctx, true, func(current *sale.Sale) (*sale.Sale, error) {
		return s.discount.ApplyDiscount(ctx, current, amount)
	})
}

func (s *Session) ApplyDiscountText(ctx context.Context, text string) (*sale.Sale, error) {
	return s.run(ctx, true, func(current *sale.Sale) (*sale.Sale, error) {
		return s.discount.ApplyDiscountText(ctx, current, text)
	})
}

func (s *Session) Complete(ctx context.Context) (*sale.Sale, error) {
	return s.run(ctx, true, func(current *sale.Sale) (*sale.Sale, error) {
		return s.lifecycle.CompleteSale(ctx, current)
	})
}

func (s *Session) Void(ctx context.Context, reason string) (*sale.Sale, error) {
	return s.run(ctx, true, func(current *sale.Sale) (*sale.Sale, error) {
		return s.lifecycle.VoidSale(ctx, current, reason)
	})
}

// AddPayment tenders against the current sale. When the payment lands but the summary
// refresh fails, the result is returned with the error and the summary is left as it
// was; call RefreshSummary before taking another tender.
func (s *Session) AddPayment(ctx context.Context, tender ledger.Tender) (*ledger.Result, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	current, summary := s.Snapshot()
	if current == nil {
		return nil, errNoSale()
	}
	if err := sale.RequireDraft(current); err != nil {
		return nil, err
	}
	if summary == nil {
		if summary, err = s.ledger.GetSummary(ctx, current.ID); err != nil {
			return nil, err
		}
	}
	before := *summary

	result, err := s.ledger.AddPayment(ctx, before, tender)
	if err != nil {
		if result != nil && result.Payment != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithSaleID(ctx, current.ID.String()), "payment recorded but summary refresh failed")
		}
		return result, err
	}
	s.mu.Lock()
	s.summary = result.Summary.Clone()
	s.mu.Unlock()
	return result, nil
}

// RefreshSummary re-reads the payment summary of the current sale.
func (s *Session) RefreshSummary(ctx context.Context) (*sale.PaymentSummary, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	current, _ := s.Snapshot()
	if current == nil {
		return nil, errNoSale()
	}
	summary, err := s.ledger.GetSummary(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.summary = summary.Clone()
	s.mu.Unlock()
	return summary, nil
}

// Clear forgets the current sale, e.g. after it was completed or voided.
func (s *Session) Clear() {
	s.mu.Lock()
	s.current = nil
	s.summary = nil
	s.mu.Unlock()
}

// run executes one sale mutation. needSale guards operations on the current sale.
// A new sale id resets the summary.
func (s *Session) run(ctx context.Context, needSale bool, fn func(current *sale.Sale) (*sale.Sale, error)) (*sale.Sale, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	current, _ := s.Snapshot()
	if needSale && current == nil {
		return nil, errNoSale()
	}

	updated, err := fn(current)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "server returned no sale")
	}

	s.mu.Lock()
	refresh := s.current != nil && s.current.ID == updated.ID && s.summary != nil
	s.current = updated.Clone()
	s.summary = nil
	s.mu.Unlock()

	if refresh {
		s.refreshAfterEdit(ctx, updated.ID)
	}
	return updated, nil
}

// refreshAfterEdit re-reads the summary once the sale changed. On failure the summary
// stays unknown and the next tender fetches it first.
func (s *Session) refreshAfterEdit(ctx context.Context, saleID uuid.UUID) {
	summary, err := s.ledger.GetSummary(ctx, saleID)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithSaleID(ctx, saleID.String()), "summary refresh after sale edit failed")
		}
		return
	}
	s.mu.Lock()
	if s.current != nil && s.current.ID == saleID {
		s.summary = summary.Clone()
	}
	s.mu.Unlock()
}

func (s *Session) replace(current *sale.Sale, summary *sale.PaymentSummary) {
	s.mu.Lock()
	s.current = current.Clone()
	s.summary = summary.Clone()
	s.mu.Unlock()
}

func (s *Session) acquire() (func(), error) {
	if !s.busy.TryLock() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "mutation in progress")
	}
	return s.busy.Unlock, nil
}

func errNoSale() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "no current sale; start or resume one first")
}
