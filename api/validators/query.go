package validators

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
	"github.com/angelmondragon/cafepos/pkg/pagination"
)

// ParsePageQuery reads the limit and cursor query parameters. Limit defaults to
// pagination.DefaultLimit and must not exceed pagination.MaxLimit.
func ParsePageQuery(r *http.Request) (pagination.Params, error) {
	q := r.URL.Query()
	params := pagination.Params{
		Limit:  pagination.DefaultLimit,
		Cursor: strings.TrimSpace(q.Get("cursor")),
	}

	raw := strings.TrimSpace(q.Get("limit"))
	if raw == "" {
		return params, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return params, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").
			WithDetails(map[string]any{"field": "limit"})
	}
	if limit < 1 || limit > pagination.MaxLimit {
		return params, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").
			WithDetails(map[string]any{"field": "limit", "min": 1, "max": pagination.MaxLimit})
	}
	params.Limit = limit
	return params, nil
}

// SearchTerm trims a free-text query parameter and cuts it to maxRunes characters.
func SearchTerm(r *http.Request, key string, maxRunes int) string {
	term := strings.TrimSpace(r.URL.Query().Get(key))
	if maxRunes <= 0 || utf8.RuneCountInString(term) <= maxRunes {
		return term
	}
	return string([]rune(term)[:maxRunes])
}
