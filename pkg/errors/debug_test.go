package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpCollectsChainAndPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "ux_sales_sale_number",
		TableName:      "sales",
		Message:        "duplicate key value violates unique constraint",
	}
	err := Wrap(CodeDependency, fmt.Errorf("insert sale: %w", pgErr), "create sale")

	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("expected code %s, got %s", CodeDependency, d.Code)
	}
	if d.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", d.Status)
	}
	if d.DB == nil || d.DB.Driver != "pgx" || d.DB.Code != "23505" || d.DB.Constraint != "ux_sales_sale_number" || d.DB.Table != "sales" {
		t.Fatalf("unexpected db detail %+v", d.DB)
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected 3 chain entries, got %d: %v", len(d.Chain), d.Chain)
	}
	if fields := d.Fields(); fields["db_constraint"] != "ux_sales_sale_number" {
		t.Fatalf("expected db fields in log output, got %v", fields)
	}
}

func TestDumpReadsLibPQErrors(t *testing.T) {
	err := fmt.Errorf("save payment: %w", &pq.Error{Code: "23514", Constraint: "payments_amount_check", Table: "payments"})
	d := Dump(err)
	if d.DB == nil || d.DB.Driver != "pq" || d.DB.Code != "23514" || d.DB.Table != "payments" {
		t.Fatalf("unexpected db detail %+v", d.DB)
	}
	if d.Code != "" {
		t.Fatalf("untyped chain should carry no code, got %s", d.Code)
	}
}

func TestDumpWithoutDatabaseError(t *testing.T) {
	d := Dump(New(CodeStateConflict, "sale is not a draft"))
	if d.DB != nil {
		t.Fatalf("expected no db detail, got %+v", d.DB)
	}
	if _, ok := d.Fields()["db_code"]; ok {
		t.Fatal("db fields should be omitted")
	}
}

func TestDumpNil(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || d.Code != "" {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}
