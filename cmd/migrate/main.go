package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/angelmondragon/cafepos/internal/auth"
	"github.com/angelmondragon/cafepos/internal/products"
	"github.com/angelmondragon/cafepos/pkg/config"
	"github.com/angelmondragon/cafepos/pkg/db"
	"github.com/angelmondragon/cafepos/pkg/db/models"
	"github.com/angelmondragon/cafepos/pkg/logger"
	"github.com/angelmondragon/cafepos/pkg/migrate"
	"github.com/angelmondragon/cafepos/pkg/money"
	"github.com/angelmondragon/cafepos/pkg/security"
	"github.com/joho/godotenv"
)

const generatedPINLength = 6

func main() {
	ctx := context.Background()
	// bootstrap logger early (then re-init after config load)
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "command: up|down|status|version|create|validate|cashier|product")
	dir := flag.String("dir", migrate.DefaultDir, "migration source directory for -cmd=create and -cmd=validate")

	name := flag.String("name", "", "migration name (create), cashier display name (cashier) or product name (product)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")

	code := flag.String("code", "", "cashier sign-in code (cashier)")
	pin := flag.String("pin", "", "cashier PIN (cashier); generated when empty")
	sku := flag.String("sku", "", "product SKU (product)")
	price := flag.String("price", "", "product unit price, e.g. 4.50 (product)")

	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.Log.Level),
		WarnStack:   cfg.Log.WarnStack,
		Format:      cfg.Log.Format,
		NoColor:     cfg.Log.NoColor,
	})

	ctx = logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": *dir,
	})

	// Commands that do NOT require DB
	switch *cmd {
	case "create":
		if *name == "" {
			fmt.Fprintln(os.Stderr, "missing -name for create")
			os.Exit(1)
		}
		logg.Info(ctx, "migrate ready")
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create migration: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("created migration:", path)
		return

	case "validate":
		logg.Info(ctx, "migrate ready")
		if err := migrate.ValidateDir(*dir); err != nil {
			fmt.Fprintf(os.Stderr, "migration validation failed: %v\n", err)
			os.Exit(1)
		}
		if err := migrate.ValidateEmbedded(); err != nil {
			fmt.Fprintf(os.Stderr, "migration validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migration validation passed")
		return
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	switch *cmd {
	case "cashier":
		provisionCashier(ctx, cfg, dbClient, *code, *name, *pin)
		return
	case "product":
		createProduct(ctx, dbClient, *sku, *name, *price)
		return
	}

	if cfg.DB.IsSQLite() {
		if *cmd != "up" {
			fmt.Fprintf(os.Stderr, "-cmd=%s is not supported for the sqlite driver\n", *cmd)
			os.Exit(1)
		}
		if err := migrate.ApplySQLiteSchema(ctx, dbClient.DB()); err != nil {
			fmt.Fprintf(os.Stderr, "sqlite schema failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("sqlite schema applied")
		return
	}

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)
	migrator, err := migrate.NewMigrator(sqlDB)
	requireResource(ctx, logg, "migrator", err)

	logg.Info(ctx, "migrate ready")

	command := migrate.Command(*cmd)
	switch command {
	case migrate.CommandUp, migrate.CommandDown, migrate.CommandStatus:
	case migrate.CommandVersion:
		if *version == "" {
			fmt.Fprintln(os.Stderr, "missing -version for version command")
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}
	if err := migrator.Apply(ctx, command, *version); err != nil {
		fmt.Fprintf(os.Stderr, "goose %s failed: %v\n", command, err)
		os.Exit(1)
	}
}

// provisionCashier hashes the PIN and stores the cashier. A generated PIN is printed once.
func provisionCashier(ctx context.Context, cfg *config.Config, dbClient *db.Client, code, name, pin string) {
	if strings.TrimSpace(code) == "" || strings.TrimSpace(name) == "" {
		fmt.Fprintln(os.Stderr, "missing -code or -name for cashier")
		os.Exit(1)
	}
	generated := false
	if pin == "" {
		var err error
		pin, err = security.GeneratePIN(generatedPINLength)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to generate pin: %v\n", err)
			os.Exit(1)
		}
		generated = true
	}

	svc, err := auth.NewService(auth.ServiceParams{
		CashierRepo: auth.NewRepository(dbClient.DB()),
		JWTConfig:   cfg.JWT,
		PINConfig:   cfg.PIN,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build auth service: %v\n", err)
		os.Exit(1)
	}

	cashier, err := svc.Provision(ctx, auth.ProvisionInput{Code: code, DisplayName: name, PIN: pin})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to provision cashier: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("cashier %s (%s) created with id %s\n", cashier.Code, cashier.DisplayName, cashier.ID)
	if generated {
		fmt.Println("generated pin:", pin)
	}
}

func createProduct(ctx context.Context, dbClient *db.Client, sku, name, price string) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	name = strings.TrimSpace(name)
	if sku == "" || name == "" || price == "" {
		fmt.Fprintln(os.Stderr, "missing -sku, -name or -price for product")
		os.Exit(1)
	}
	unitPrice, err := money.ParseToCents(price)
	if err != nil || unitPrice.IsNegative() {
		fmt.Fprintf(os.Stderr, "invalid -price %q\n", price)
		os.Exit(1)
	}

	product := &models.Product{SKU: sku, Name: name, UnitPrice: unitPrice, IsActive: true}
	if err := products.NewRepository(dbClient.DB()).Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			fmt.Fprintf(os.Stderr, "product sku %s already exists\n", sku)
		} else {
			fmt.Fprintf(os.Stderr, "failed to create product: %v\n", err)
		}
		os.Exit(1)
	}
	fmt.Printf("product %s %q created with id %s at %s cents\n", product.SKU, product.Name, product.ID, product.UnitPrice)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
