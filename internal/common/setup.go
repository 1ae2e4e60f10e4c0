package common

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"transfer-hook-vault-go/internal/api"
	"transfer-hook-vault-go/internal/database"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/rent"
	"transfer-hook-vault-go/internal/runtime"
	"transfer-hook-vault-go/internal/store"
	"transfer-hook-vault-go/internal/token"
	"transfer-hook-vault-go/internal/vault"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from VAULT_ENV_FILE (default .env) when present
func init() {
	file := os.Getenv("VAULT_ENV_FILE")
	if file == "" {
		file = ".env"
	}
	if err := godotenv.Load(file); err != nil {
		log.Printf("Note: %s not loaded (%v), using process environment\n", file, err)
	} else {
		log.Printf("Loaded environment variables from %s\n", file)
	}
}

type Services struct {
	DbService  *database.Service
	Runtime    *runtime.Runtime
	Ledger     *api.LedgerService
	Deployment *models.Deployment
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// NewRuntime returns a runtime with the token and vault programs registered
func NewRuntime(st store.LedgerStore, schedule rent.Schedule) *runtime.Runtime {
	rt := runtime.New(st, schedule)
	rt.Register(token.ProgramID, token.NewProcessor())
	rt.Register(vault.ProgramID, vault.NewProcessor())
	return rt
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	zap.L().Info("Loading deployment", zap.String("file", cfg.DeploymentFile))
	deployment, err := LoadDeployment(cfg.DeploymentFile)
	if err != nil {
		return nil, err
	}
	schedule, err := RentSchedule(deployment)
	if err != nil {
		return nil, err
	}

	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	rt := NewRuntime(dbService, schedule)
	ledgerService, err := api.NewLedgerService(rt, dbService, deployment)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	if err := ledgerService.HealthCheck(ctx); err != nil {
		dbService.Close()
		return nil, fmt.Errorf("deployment %s is not bootstrapped (run setup first): %w", cfg.DeploymentFile, err)
	}
	zap.L().Info("Using vault deployment",
		zap.String("mint", deployment.Mint.String()),
		zap.String("admin", deployment.Admin.String()),
		zap.String("mode", deployment.Mode))

	return &Services{
		DbService:  dbService,
		Runtime:    rt,
		Ledger:     ledgerService,
		Deployment: deployment,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service
// Useful for read-only operations like printing addresses
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
