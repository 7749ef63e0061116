package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/angelmondragon/cafepos/pkg/auth"
	"github.com/angelmondragon/cafepos/pkg/config"
	"github.com/angelmondragon/cafepos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
	"github.com/angelmondragon/cafepos/pkg/security"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "cafepos",
	ExpirationMinutes: 30,
}

func TestServiceLoginIssuesCashierToken(t *testing.T) {
	cashier := &models.Cashier{
		ID:          uuid.New(),
		Code:        "C001",
		DisplayName: "Morning Till",
		PINHash:     mustHashPIN(t, "4821"),
		IsActive:    true,
	}
	repo := &stubCashierRepo{cashier: cashier}
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc := buildTestService(t, repo, func() time.Time { return fixed })

	resp, err := svc.Login(context.Background(), LoginRequest{CashierCode: " c001 ", PIN: "4821"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.CashierID != cashier.ID {
		t.Fatalf("expected cashier claim %s, got %s", cashier.ID, claims.CashierID)
	}
	if resp.Cashier == nil || resp.Cashier.Code != "C001" {
		t.Fatalf("unexpected cashier payload %+v", resp.Cashier)
	}
	if repo.lastLogin == nil || !repo.lastLogin.Equal(fixed) {
		t.Fatalf("expected last login to be recorded at %v, got %v", fixed, repo.lastLogin)
	}
	if !resp.ExpiresAt.Equal(fixed.Add(30 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", resp.ExpiresAt)
	}
}

func TestServiceLoginRejectsBadCredentials(t *testing.T) {
	active := &models.Cashier{ID: uuid.New(), Code: "C001", PINHash: mustHashPIN(t, "4821"), IsActive: true}
	inactive := &models.Cashier{ID: uuid.New(), Code: "C002", PINHash: mustHashPIN(t, "4821"), IsActive: false}

	cases := []struct {
		name string
		repo *stubCashierRepo
		req  LoginRequest
		want pkgerrors.Code
	}{
		{"wrong pin", &stubCashierRepo{cashier: active}, LoginRequest{CashierCode: "C001", PIN: "0000"}, pkgerrors.CodeUnauthorized},
		{"inactive", &stubCashierRepo{cashier: inactive}, LoginRequest{CashierCode: "C002", PIN: "4821"}, pkgerrors.CodeUnauthorized},
		{"unknown code", &stubCashierRepo{findErr: gorm.ErrRecordNotFound}, LoginRequest{CashierCode: "C404", PIN: "4821"}, pkgerrors.CodeUnauthorized},
		{"blank code", &stubCashierRepo{cashier: active}, LoginRequest{CashierCode: "  ", PIN: "4821"}, pkgerrors.CodeUnauthorized},
		{"db down", &stubCashierRepo{findErr: errors.New("connection refused")}, LoginRequest{CashierCode: "C001", PIN: "4821"}, pkgerrors.CodeDependency},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := buildTestService(t, tc.repo, nil)
			_, err := svc.Login(context.Background(), tc.req)
			if !pkgerrors.IsCode(err, tc.want) {
				t.Fatalf("expected %s, got %v", tc.want, err)
			}
		})
	}
}

func TestServiceProvisionHashesPIN(t *testing.T) {
	repo := &stubCashierRepo{}
	svc := buildTestService(t, repo, nil)

	dto, err := svc.Provision(context.Background(), ProvisionInput{Code: "c010", DisplayName: "Evening", PIN: "987654"})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if dto.Code != "C010" {
		t.Fatalf("expected normalized code, got %q", dto.Code)
	}
	if repo.created == nil || repo.created.PINHash == "987654" {
		t.Fatalf("expected hashed PIN to be stored")
	}
	ok, err := security.VerifyPIN("987654", repo.created.PINHash)
	if err != nil || !ok {
		t.Fatalf("stored hash should verify: ok=%v err=%v", ok, err)
	}

	if _, err := svc.Provision(context.Background(), ProvisionInput{Code: "C011", DisplayName: "x", PIN: "12"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for short PIN, got %v", err)
	}
}

func buildTestService(t *testing.T, repo *stubCashierRepo, now func() time.Time) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		CashierRepo: repo,
		JWTConfig:   testJWTConfig,
		PINConfig:   testPINConfig,
		Now:         now,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

var testPINConfig = config.PINConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func mustHashPIN(t *testing.T, pin string) string {
	t.Helper()
	hash, err := security.HashPIN(pin, testPINConfig)
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}
	return hash
}

type stubCashierRepo struct {
	cashier   *models.Cashier
	findErr   error
	created   *models.Cashier
	lastLogin *time.Time
}

func (s *stubCashierRepo) Create(ctx context.Context, cashier *models.Cashier) error {
	if cashier.ID == uuid.Nil {
		cashier.ID = uuid.New()
	}
	s.created = cashier
	return nil
}

func (s *stubCashierRepo) FindByCode(ctx context.Context, code string) (*models.Cashier, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.cashier == nil || s.cashier.Code != code {
		return nil, gorm.ErrRecordNotFound
	}
	return s.cashier, nil
}

func (s *stubCashierRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.lastLogin = &at
	return nil
}
