// Package search runs product lookups for the till as a single in-flight task:
// every new query cancels the pending or running one.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/cafepos/pkg/sale"
)

const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultLimit    = 20
)

// ErrSuperseded is returned to a search that was replaced by a newer one.
var ErrSuperseded = errors.New("search superseded by a newer query")

type productSearcher interface {
	SearchProducts(ctx context.Context, query string, limit int, cursor string) (*sale.ProductPage, error)
}

type Searcher struct {
	gw       productSearcher
	debounce time.Duration
	limit    int

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelCauseFunc
}

// NewSearcher builds a searcher. A zero debounce sends immediately; non-positive limits use DefaultLimit.
func NewSearcher(gw productSearcher, debounce time.Duration, limit int) (*Searcher, error) {
	if gw == nil {
		return nil, fmt.Errorf("product search gateway required")
	}
	if debounce < 0 {
		debounce = DefaultDebounce
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Searcher{gw: gw, debounce: debounce, limit: limit}, nil
}

// Search waits out the debounce window and queries the server. Blank queries cancel
// any pending search and return no results without a request.
func (s *Searcher) Search(ctx context.Context, query string) ([]sale.Product, error) {
	runCtx, cancel := context.WithCancelCause(ctx)
	gen := s.replace(cancel)
	defer s.release(gen, cancel)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	if err := s.wait(runCtx); err != nil {
		return nil, outcome(runCtx, err)
	}

	page, err := s.gw.SearchProducts(runCtx, query, s.limit, "")
	if err != nil {
		return nil, outcome(runCtx, err)
	}
	if superseded(runCtx) {
		return nil, ErrSuperseded
	}
	if page == nil {
		return nil, nil
	}
	return page.Items, nil
}

// Cancel stops the pending or running search, if any.
func (s *Searcher) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel(ErrSuperseded)
		s.cancel = nil
	}
}

func (s *Searcher) replace(cancel context.CancelCauseFunc) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel(ErrSuperseded)
	}
	s.gen++
	s.cancel = cancel
	return s.gen
}

func (s *Searcher) release(gen uint64, cancel context.CancelCauseFunc) {
	s.mu.Lock()
	if s.gen == gen {
		s.cancel = nil
	}
	s.mu.Unlock()
	cancel(nil)
}

func (s *Searcher) wait(ctx context.Context) error {
	if s.debounce == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.debounce)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func superseded(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrSuperseded)
}

func outcome(ctx context.Context, err error) error {
	if superseded(ctx) {
		return ErrSuperseded
	}
	return err
}
