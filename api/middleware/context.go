package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxCashierID   contextKey = "cashier_id"
	ctxCashierCode contextKey = "cashier_code"
	ctxRequestID   contextKey = "request_id"
)

// CashierIDFromContext returns the authenticated cashier, or uuid.Nil.
func CashierIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxCashierID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func CashierCodeFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCashierCode).(string); ok {
		return v
	}
	return ""
}

// WithCashier injects the authenticated cashier into the context.
func WithCashier(ctx context.Context, cashierID uuid.UUID, code string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxCashierID, cashierID)
	return context.WithValue(ctx, ctxCashierCode, code)
}
