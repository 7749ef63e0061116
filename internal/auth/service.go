package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/angelmondragon/cafepos/pkg/auth"
	"github.com/angelmondragon/cafepos/pkg/config"
	"github.com/angelmondragon/cafepos/pkg/db"
	"github.com/angelmondragon/cafepos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
	"github.com/angelmondragon/cafepos/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller and the provisioning CLI.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Provision(ctx context.Context, input ProvisionInput) (*CashierDTO, error)
}

type cashierRepository interface {
	Create(ctx context.Context, cashier *models.Cashier) error
	FindByCode(ctx context.Context, code string) (*models.Cashier, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type service struct {
	cashiers cashierRepository
	jwtCfg   config.JWTConfig
	pinCfg   config.PINConfig
	now      func() time.Time
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	CashierRepo cashierRepository
	JWTConfig   config.JWTConfig
	PINConfig   config.PINConfig
	Now         func() time.Time
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.CashierRepo == nil {
		return nil, fmt.Errorf("cashier repository is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		cashiers: params.CashierRepo,
		jwtCfg:   params.JWTConfig,
		pinCfg:   params.PINConfig,
		now:      now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	cashier, err := s.authenticate(ctx, req.CashierCode, req.PIN)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.cashiers.UpdateLastLogin(ctx, cashier.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}
	cashier.LastLoginAt = &now

	token, expiresAt, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		CashierID:   cashier.ID,
		CashierCode: cashier.Code,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		Cashier:     FromModel(cashier),
	}, nil
}

func (s *service) Provision(ctx context.Context, input ProvisionInput) (*CashierDTO, error) {
	code := normalizeCode(input.Code)
	name := strings.TrimSpace(input.DisplayName)
	if code == "" || name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cashier code and display name are required")
	}
	hash, err := security.HashPIN(input.PIN, s.pinCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	cashier := &models.Cashier{
		Code:        code,
		DisplayName: name,
		PINHash:     hash,
		IsActive:    true,
	}
	if err := s.cashiers.Create(ctx, cashier); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cashier code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cashier")
	}
	return FromModel(cashier), nil
}

func (s *service) authenticate(ctx context.Context, code, pin string) (*models.Cashier, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	cashier, err := s.cashiers.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup cashier")
	}

	valid, err := security.VerifyPIN(pin, cashier.PINHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify pin")
	}
	if !valid || !cashier.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return cashier, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
