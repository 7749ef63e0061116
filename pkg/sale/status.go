package sale

import (
	"fmt"

	"github.com/angelmondragon/cafepos/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
)

// transitions is the whole lifecycle: draft sales complete or void, completed sales void.
var transitions = map[enums.SaleStatus][]enums.SaleStatus{
	enums.SaleStatusDraft:     {enums.SaleStatusCompleted, enums.SaleStatusVoided},
	enums.SaleStatusCompleted: {enums.SaleStatusVoided},
}

// CanTransition reports whether a sale may move between the two statuses.
func CanTransition(from, to enums.SaleStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns a state conflict when the move is not allowed.
func CheckTransition(from, to enums.SaleStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("sale cannot move from %s to %s", from, to)).
		WithDetails(map[string]any{"from": from, "to": to})
}

// RequireDraft rejects cart and discount edits on anything but a draft sale.
func RequireDraft(s *Sale) error {
	if s == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale is required")
	}
	if s.Status != enums.SaleStatusDraft {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("sale is %s; only draft sales can be edited", s.Status)).
			WithDetails(map[string]any{"status": s.Status})
	}
	return nil
}
