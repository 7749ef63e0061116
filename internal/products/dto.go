package products

import (
	"github.com/angelmondragon/cafepos/pkg/pagination"
	"github.com/angelmondragon/cafepos/pkg/sale"
)

// SearchInput captures the catalog query typed at the till.
type SearchInput struct {
	Query      string
	Pagination pagination.Params
}

// SearchResult is a page of active products ordered by name.
type SearchResult = sale.ProductPage
