package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/cafepos/internal/terminal/gateway/gatewaytest"
	"github.com/angelmondragon/cafepos/pkg/sale"
)

func TestSearchReturnsProducts(t *testing.T) {
	gw := &gatewaytest.Fake{
		SearchProductsFn: func(ctx context.Context, query string, limit int, cursor string) (*sale.ProductPage, error) {
			if query != "latte" || limit != 5 || cursor != "" {
				t.Fatalf("unexpected search %q %d %q", query, limit, cursor)
			}
			return &sale.ProductPage{Items: []sale.Product{{SKU: "LAT-12", Name: "Latte", UnitPrice: 450}}}, nil
		},
	}
	s, err := NewSearcher(gw, 0, 5)
	if err != nil {
		t.Fatalf("new searcher: %v", err)
	}

	got, err := s.Search(context.Background(), "  latte ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].SKU != "LAT-12" {
		t.Fatalf("unexpected results %+v", got)
	}
}

func TestBlankQueryMakesNoRequest(t *testing.T) {
	gw := &gatewaytest.Fake{}
	s, err := NewSearcher(gw, 0, 0)
	if err != nil {
		t.Fatalf("new searcher: %v", err)
	}

	got, err := s.Search(context.Background(), "   ")
	if err != nil || got != nil {
		t.Fatalf("expected empty result, got %+v %v", got, err)
	}
	if calls := gw.Calls(); len(calls) != 0 {
		t.Fatalf("expected no requests, got %v", calls)
	}
}

func TestNewSearchSupersedesInFlightRequest(t *testing.T) {
	started := make(chan struct{})
	gw := &gatewaytest.Fake{
		SearchProductsFn: func(ctx context.Context, query string, limit int, cursor string) (*sale.ProductPage, error) {
			if query == "lat" {
				close(started)
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return &sale.ProductPage{Items: []sale.Product{{Name: "Latte"}}}, nil
		},
	}
	s, err := NewSearcher(gw, 0, 0)
	if err != nil {
		t.Fatalf("new searcher: %v", err)
	}

	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Search(context.Background(), "lat")
		firstErr <- err
	}()
	<-started

	got, err := s.Search(context.Background(), "latte")
	if err != nil {
		t.Fatalf("second search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected results %+v", got)
	}

	select {
	case err := <-firstErr:
		if !errors.Is(err, ErrSuperseded) {
			t.Fatalf("expected ErrSuperseded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first search never returned")
	}
}

func TestCancelStopsDebouncedSearchWithoutRequest(t *testing.T) {
	gw := &gatewaytest.Fake{}
	s, err := NewSearcher(gw, time.Hour, 0)
	if err != nil {
		t.Fatalf("new searcher: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Search(context.Background(), "mocha")
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !s.pending() {
		if time.Now().After(deadline) {
			t.Fatal("search never became pending")
		}
		time.Sleep(time.Millisecond)
	}
	s.Cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrSuperseded) {
			t.Fatalf("expected ErrSuperseded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("debounced search never returned")
	}
	if calls := gw.Calls(); len(calls) != 0 {
		t.Fatalf("expected no requests, got %v", calls)
	}
}

func TestCallerCancellationIsNotSupersession(t *testing.T) {
	gw := &gatewaytest.Fake{}
	s, err := NewSearcher(gw, time.Hour, 0)
	if err != nil {
		t.Fatalf("new searcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Search(ctx, "tea")
	if !errors.Is(err, context.Canceled) || errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if s.pending() {
		t.Fatal("finished search should not stay pending")
	}
}

func (s *Searcher) pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}
