/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"fmt"

	"transfer-hook-vault-go/internal/common"
	"transfer-hook-vault-go/internal/config"
	"transfer-hook-vault-go/internal/formance"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if !cfg.Formance.Enabled() {
		logger.Fatal("Formance export requires FORMANCE_STACK_URL, FORMANCE_CLIENT_ID and FORMANCE_CLIENT_SECRET")
	}

	deployment, err := common.LoadDeployment(cfg.DeploymentFile)
	if err != nil {
		logger.Fatal("Failed to load deployment", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	mirror, err := formance.NewService(ctx, cfg.Formance, deployment.Decimals)
	if err != nil {
		logger.Fatal("Failed to connect to Formance", zap.Error(err))
	}

	common.PrintHeader("JOURNAL EXPORT", common.DefaultWidth)
	summary, err := mirror.ExportJournal(ctx, dbService, deployment.Mint.String())
	if err != nil {
		logger.Fatal("Journal export failed", zap.Error(err))
	}

	fmt.Printf("Ledger:   %s\n", cfg.Formance.LedgerName)
	fmt.Printf("Asset:    %s\n", mirror.Asset())
	fmt.Printf("Users:    %d\n", summary.Users)
	fmt.Printf("Posted:   %d\n", summary.Posted)
	fmt.Printf("Existing: %d\n", summary.Existing)
	common.PrintFooter("Export complete", common.DefaultWidth)
}
