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
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"transfer-hook-vault-go/internal/common"
	"transfer-hook-vault-go/internal/config"
	"transfer-hook-vault-go/internal/monitor"

	"go.uber.org/zap"
)

func main() {
	once := flag.Bool("once", false, "Run a single reconciliation pass and exit (non-zero status on drift)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting vault reconciliation monitor")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	m := monitor.New(monitor.Config{
		Ledger:          services.Ledger,
		PollingInterval: cfg.Monitor.PollingInterval,
		Concurrency:     cfg.Monitor.Concurrency,
		HaltOnDrift:     cfg.Monitor.HaltOnDrift,
	})

	if *once {
		if _, err := m.RunOnce(ctx); err != nil {
			zap.L().Error("Reconciliation failed", zap.Error(err))
			services.Close()
			loggerCleanup()
			os.Exit(1)
		}
		return
	}

	if err := m.Start(ctx); err != nil {
		zap.L().Fatal("Failed to start monitor", zap.Error(err))
	}
	zap.L().Info("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		zap.L().Info("Shutdown signal received, stopping monitor...")
	case <-m.Done():
		zap.L().Warn("Monitor halted")
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("Monitor stopped gracefully")
	case <-shutdownCtx.Done():
		zap.L().Warn("Forced shutdown after timeout")
	}
}
