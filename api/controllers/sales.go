package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/cafepos/api/middleware"
	"github.com/angelmondragon/cafepos/api/responses"
	"github.com/angelmondragon/cafepos/api/validators"
	salessvc "github.com/angelmondragon/cafepos/internal/sales"
	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
	"github.com/angelmondragon/cafepos/pkg/logger"
	"github.com/angelmondragon/cafepos/pkg/sale"
)

const (
	saleIDParam = "saleID"
	itemIDParam = "itemID"
)

func SaleCreate(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cashierID, ok := requireSales(w, r, svc, logg)
		if !ok {
			return
		}

		var body sale.CreateSaleRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		out, err := svc.CreateSale(r.Context(), cashierID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, out)
	}
}

// SaleList returns the cashier's own sales, newest first, for resuming.
func SaleList(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cashierID, ok := requireSales(w, r, svc, logg)
		if !ok {
			return
		}

		status, err := validators.ParseSaleStatusQuery(r, "status")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePageQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListSales(r.Context(), salessvc.ListInput{
			CashierID:  cashierID,
			Status:     status,
			Pagination: params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func SaleGet(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireSales(w, r, svc, logg); !ok {
			return
		}
		saleID, ok := parseSaleID(w, r, logg)
		if !ok {
			return
		}
		out, err := svc.GetSale(r.Context(), saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func SaleAddItem(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireSales(w, r, svc, logg); !ok {
			return
		}
		saleID, ok := parseSaleID(w, r, logg)
		if !ok {
			return
		}

		var body sale.AddItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := svc.AddItem(r.Context(), saleID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func SaleUpdateItem(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireSales(w, r, svc, logg); !ok {
			return
		}
		saleID, ok := parseSaleID(w, r, logg)
		if !ok {
			return
		}
		itemID, err := validators.ParseUUIDParam(r, itemIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body sale.UpdateItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := svc.UpdateItem(r.Context(), saleID, itemID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func SaleRemoveItem(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireSales(w, r, svc, logg); !ok {
			return
		}
		saleID, ok := parseSaleID(w, r, logg)
		if !ok {
			return
		}
		itemID, err := validators.ParseUUIDParam(r, itemIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := svc.RemoveItem(r.Context(), saleID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func SaleApplyDiscount(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireSales(w, r, svc, logg); !ok {
			return
		}
		saleID, ok := parseSaleID(w, r, logg)
		if !ok {
			return
		}

		var body sale.ApplyDiscountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := svc.ApplyDiscount(r.Context(), saleID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func SaleComplete(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireSales(w, r, svc, logg); !ok {
			return
		}
		saleID, ok := parseSaleID(w, r, logg)
		if !ok {
			return
		}

		out, err := svc.CompleteSale(r.Context(), saleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func SaleVoid(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cashierID, ok := requireSales(w, r, svc, logg)
		if !ok {
			return
		}
		saleID, ok := parseSaleID(w, r, logg)
		if !ok {
			return
		}

		var body sale.VoidSaleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := svc.VoidSale(r.Context(), cashierID, saleID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// requireSales guards against a missing service and returns the authenticated cashier.
func requireSales(w http.ResponseWriter, r *http.Request, svc salessvc.Service, logg *logger.Logger) (uuid.UUID, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
		return uuid.Nil, false
	}
	return requireCashier(w, r, logg)
}

func requireCashier(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	cashierID := middleware.CashierIDFromContext(r.Context())
	if cashierID == uuid.Nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "cashier context missing"))
		return uuid.Nil, false
	}
	return cashierID, true
}

func parseSaleID(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	saleID, err := validators.ParseUUIDParam(r, saleIDParam)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, false
	}
	return saleID, true
}
