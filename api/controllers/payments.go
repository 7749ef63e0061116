package controllers

import (
	"net/http"

	"github.com/angelmondragon/cafepos/api/responses"
	"github.com/angelmondragon/cafepos/api/validators"
	paymentsvc "github.com/angelmondragon/cafepos/internal/payments"
	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
	"github.com/angelmondragon/cafepos/pkg/logger"
	"github.com/angelmondragon/cafepos/pkg/sale"
)

// PaymentAdd records one tender; the response carries any cash change due.
func PaymentAdd(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		if _, ok := requireCashier(w, r, logg); !ok {
			return
		}
		saleID, ok := parseSaleID(w, r, logg)
		if !ok {
			return
		}

		var body sale.AddPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.AddPayment(r.Context(), saleID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, payment)
	}
}

func PaymentSummary(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		if _, ok := requireCashier(w, r, logg); !ok {
			return
		}
		saleID, ok := parseSaleID(w, r, logg)
		if !ok {
			return
		}

		summary, err := svc.GetSummary(r.Context(), saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
