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

package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"transfer-hook-vault-go/internal/address"
	"transfer-hook-vault-go/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrDriftDetected = errors.New("ledger drift detected")

// Ledger is the read side of the ledger service the monitor reconciles
type Ledger interface {
	LedgerUsers(ctx context.Context) ([]address.Address, error)
	ReconcileUser(ctx context.Context, user address.Address) (*models.ReconcileResult, error)
	CheckHolding(ctx context.Context) (*models.HoldingReport, error)
}

// Config contains configuration for Monitor
type Config struct {
	Ledger          Ledger
	PollingInterval time.Duration
	Concurrency     int
	HaltOnDrift     bool
}

// Summary describes one reconciliation pass
type Summary struct {
	StartedAt time.Time
	Users     int
	Drifted   []string
	Holding   *models.HoldingReport
}

func (s *Summary) Healthy() bool {
	return len(s.Drifted) == 0 && s.Holding != nil && s.Holding.Covered
}

// Monitor periodically checks that every ledger entry matches the audit subledger and
// that the custodial holding account covers all entries.
type Monitor struct {
	ledger          Ledger
	pollingInterval time.Duration
	concurrency     int
	haltOnDrift     bool

	// users already reported as drifted, so each drift is announced once
	drifted map[string]time.Time
	mutex   sync.RWMutex
	last    *Summary

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

func New(cfg Config) *Monitor {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Monitor{
		ledger:          cfg.Ledger,
		pollingInterval: cfg.PollingInterval,
		concurrency:     concurrency,
		haltOnDrift:     cfg.HaltOnDrift,
		drifted:         make(map[string]time.Time),
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}

// Start runs one pass synchronously, then keeps polling in the background
func (m *Monitor) Start(ctx context.Context) error {
	zap.L().Info("Starting reconciliation monitor")

	summary, err := m.RunOnce(ctx)
	if err != nil && !errors.Is(err, ErrDriftDetected) {
		return fmt.Errorf("initial reconciliation failed: %w", err)
	}
	if err != nil && m.haltOnDrift {
		return err
	}

	go m.pollLoop(ctx)

	zap.L().Info("Reconciliation monitor started",
		zap.Duration("polling_interval", m.pollingInterval),
		zap.Int("concurrency", m.concurrency),
		zap.Int("users", summary.Users))
	return nil
}

// Stop gracefully stops the monitor
func (m *Monitor) Stop() {
	zap.L().Info("Stopping reconciliation monitor")
	m.stopOnce.Do(func() { close(m.stopChan) })
	<-m.doneChan
	zap.L().Info("Reconciliation monitor stopped")
}

// Done is closed once the poll loop exits
func (m *Monitor) Done() <-chan struct{} {
	return m.doneChan
}

func (m *Monitor) LastSummary() *Summary {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.last
}

func (m *Monitor) pollLoop(ctx context.Context) {
	defer close(m.doneChan)

	ticker := time.NewTicker(m.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, err := m.RunOnce(ctx)
			if errors.Is(err, ErrDriftDetected) && m.haltOnDrift {
				zap.L().Error("Halting monitor on ledger drift")
				return
			}
			if err != nil && !errors.Is(err, ErrDriftDetected) {
				zap.L().Error("Reconciliation pass failed", zap.Error(err))
			}
		case <-m.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// ANSI color helpers for console output.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
)

// RunOnce reconciles every ledger user concurrently and checks the holding account.
// It returns ErrDriftDetected when any check fails.
func (m *Monitor) RunOnce(ctx context.Context) (*Summary, error) {
	summary := &Summary{StartedAt: time.Now().UTC()}

	users, err := m.ledger.LedgerUsers(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list ledger users: %w", err)
	}
	summary.Users = len(users)

	fmt.Printf("\n%s[%s] Reconciling %d ledger entries%s\n",
		colorCyan, summary.StartedAt.Format("15:04:05"), len(users), colorReset)

	results := make([]*models.ReconcileResult, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, user := range users {
		i, user := i, user
		g.Go(func() error {
			result, err := m.ledger.ReconcileUser(gctx, user)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	for _, result := range results {
		if result.InSync {
			m.clearDrift(result.User)
			continue
		}
		summary.Drifted = append(summary.Drifted, result.User)
		if m.markDrift(result.User, summary.StartedAt) {
			fmt.Printf("  %s✗ %s ledger %s journal %s%s\n",
				colorRed, result.User, result.Ledger, result.Journal, colorReset)
		}
	}

	holding, err := m.ledger.CheckHolding(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to check holding account: %w", err)
	}
	summary.Holding = holding

	m.mutex.Lock()
	m.last = summary
	m.mutex.Unlock()

	if !summary.Healthy() {
		fmt.Printf("  %s✗ %d drifted, holding %s, liabilities %s%s\n",
			colorRed, len(summary.Drifted), holding.Holding, holding.Liabilities, colorReset)
		return summary, ErrDriftDetected
	}

	fmt.Printf("  %s✓ %d entries in sync, holding %s covers %s%s\n",
		colorGreen, summary.Users, holding.Holding, holding.Liabilities, colorReset)
	return summary, nil
}

// markDrift records user as drifted and reports whether this is a new drift
func (m *Monitor) markDrift(user string, at time.Time) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, seen := m.drifted[user]; seen {
		return false
	}
	m.drifted[user] = at
	return true
}

func (m *Monitor) clearDrift(user string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.drifted, user)
}
