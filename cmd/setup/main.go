package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/api"
	"transfer-hook-vault-go/internal/common"
	"transfer-hook-vault-go/internal/config"
	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/vault"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const lamportsPerSol = 1_000_000_000

// provisionUsers creates one named principal per entry and gives each lamports, tokens and
// whitelist membership.
func provisionUsers(ctx context.Context, service *api.LedgerService, deployment *models.Deployment, names []string, tokens decimal.Decimal) {
	var created, failed int
	for _, name := range names {
		user := models.DeploymentUser{Name: name, Address: address.NewUnique()}

		result, err := service.ProvisionUser(ctx, user.Address, lamportsPerSol, tokens, true)
		if err != nil || !result.Success {
			reason := ""
			if err != nil {
				reason = err.Error()
			} else {
				reason = result.Error
			}
			zap.L().Error("Failed to provision user", zap.String("name", name), zap.String("error", reason))
			failed++
			continue
		}

		deployment.Users = append(deployment.Users, user)
		created++
		zap.L().Info("Provisioned user",
			zap.String("name", name),
			zap.String("address", user.Address.String()))
	}

	if failed > 0 {
		zap.L().Warn("User provisioning completed with some failures",
			zap.Int("created", created),
			zap.Int("failed", failed))
	} else {
		zap.L().Info("User provisioning completed successfully", zap.Int("created", created))
	}
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	mode := flag.String("mode", "record", "Whitelist mode: record or list")
	decimals := flag.Uint("decimals", 9, "Mint decimals")
	adminSol := flag.Uint64("admin-sol", 10, "Lamports (in SOL) airdropped to the administrator")
	usersFlag := flag.String("users", "", "Comma separated user names to provision and whitelist")
	tokensFlag := flag.String("tokens", "100", "Tokens minted to each provisioned user")
	force := flag.Bool("force", false, "Overwrite an existing deployment file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	if _, err := os.Stat(cfg.DeploymentFile); err == nil && !*force {
		zap.L().Fatal("Deployment file already exists, use --force to replace it",
			zap.String("file", cfg.DeploymentFile))
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		zap.L().Fatal("Failed to check deployment file", zap.Error(err))
	}

	tokens, err := decimal.NewFromString(*tokensFlag)
	if err != nil {
		zap.L().Fatal("Invalid token amount", zap.String("tokens", *tokensFlag), zap.Error(err))
	}
	if *decimals > 18 {
		zap.L().Fatal("Decimals must be at most 18", zap.Uint("decimals", *decimals))
	}

	deployment := &models.Deployment{
		Mode:     strings.ToLower(*mode),
		Mint:     address.NewUnique(),
		Admin:    address.NewUnique(),
		Decimals: uint8(*decimals),
	}

	schedule, err := common.RentSchedule(deployment)
	if err != nil {
		zap.L().Fatal("Invalid rent schedule", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	rt := common.NewRuntime(dbService, schedule)
	receipt, err := api.Bootstrap(ctx, rt, deployment, *adminSol*lamportsPerSol)
	if err != nil {
		zap.L().Fatal("Failed to bootstrap vault", zap.Error(err))
	}

	service, err := api.NewLedgerService(rt, dbService, deployment)
	if err != nil {
		zap.L().Fatal("Failed to create ledger service", zap.Error(err))
	}

	if *usersFlag != "" {
		var names []string
		for _, name := range strings.Split(*usersFlag, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		provisionUsers(ctx, service, deployment, names, tokens)
	}

	if err := common.SaveDeployment(cfg.DeploymentFile, deployment); err != nil {
		zap.L().Fatal("Failed to save deployment", zap.Error(err))
	}

	vaultAddr, _ := vault.VaultAddress()
	common.PrintHeader("VAULT DEPLOYMENT", common.DefaultWidth)
	fmt.Printf("Batch:     %s\n", receipt.BatchId)
	fmt.Printf("Mode:      %s\n", deployment.Mode)
	fmt.Printf("Mint:      %s\n", deployment.Mint)
	fmt.Printf("Admin:     %s\n", deployment.Admin)
	fmt.Printf("Vault:     %s\n", vaultAddr)
	fmt.Printf("Holding:   %s\n", vault.HoldingAddress(deployment.Mint))
	fmt.Printf("Users:     %d\n", len(deployment.Users))
	fmt.Printf("Saved to:  %s\n", cfg.DeploymentFile)
	common.PrintSeparator("=", common.DefaultWidth)
}
