package formance

import (
	"context"
	"fmt"
	"regexp"
	"slices"

	"transfer-hook-vault-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// Deposits move funds from the user's external wallet into their vault entry.
// The wallet side may overdraft since it only exists on the mirror.
const numscriptDeposit = `vars {
  asset $asset
  number $amount
  account $user
  string $journal_id
  string $reference
}

send [$asset $amount] (
  source = @users:$user:wallet allowing unbounded overdraft
  destination = @vault:users:$user
)

set_tx_meta("event_type", "deposit")
set_tx_meta("journal_id", $journal_id)
set_tx_meta("reference", $reference)
`

// Withdrawals may not overdraft the vault entry, matching the on-ledger rule.
const numscriptWithdrawal = `vars {
  asset $asset
  number $amount
  account $user
  string $journal_id
  string $reference
}

send [$asset $amount] (
  source = @vault:users:$user
  destination = @users:$user:wallet
)

set_tx_meta("event_type", "withdrawal")
set_tx_meta("journal_id", $journal_id)
set_tx_meta("reference", $reference)
`

const historyPageSize = 100

var symbolPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,16}$`)

// JournalSource is the read side of the audit subledger
type JournalSource interface {
	ListJournalUsers(ctx context.Context, asset string) ([]string, error)
	GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error)
}

// ExportSummary counts the outcome of one export pass
type ExportSummary struct {
	Users    int
	Posted   int
	Existing int
}

// ExportJournal replays every subledger entry for mint into the Formance ledger.
// Entries are keyed by journal id so a rerun only posts what is new.
func (s *Service) ExportJournal(ctx context.Context, src JournalSource, mint string) (*ExportSummary, error) {
	users, err := src.ListJournalUsers(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal users: %w", err)
	}

	summary := &ExportSummary{Users: len(users)}
	for _, user := range users {
		entries, err := readHistory(ctx, src, user)
		if err != nil {
			return summary, err
		}
		for _, tx := range entries {
			if tx.Asset != mint {
				continue
			}
			posted, err := s.post(ctx, tx)
			if err != nil {
				return summary, err
			}
			if posted {
				summary.Posted++
			} else {
				summary.Existing++
			}
		}
	}

	zap.L().Info("Journal exported to Formance",
		zap.String("ledger", s.ledger),
		zap.Int("users", summary.Users),
		zap.Int("posted", summary.Posted),
		zap.Int("existing", summary.Existing))
	return summary, nil
}

func (s *Service) post(ctx context.Context, tx models.Transaction) (bool, error) {
	postTx, err := postingFor(tx, s.asset)
	if err != nil {
		return false, err
	}

	_, err = s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger:            s.ledger,
		V2PostTransaction: postTx,
	})
	if err != nil {
		if isConflictError(err) {
			return false, nil
		}
		return false, fmt.Errorf("error mirroring journal entry %s: %w", tx.Id, err)
	}

	zap.L().Debug("Journal entry mirrored",
		zap.String("journal_id", tx.Id),
		zap.String("type", tx.TransactionType),
		zap.String("amount", tx.Amount.String()))
	return true, nil
}

// readHistory pages through a user's entries and returns them oldest first,
// so withdrawals are never posted ahead of the deposits that fund them.
func readHistory(ctx context.Context, src JournalSource, user string) ([]models.Transaction, error) {
	var all []models.Transaction
	for offset := 0; ; offset += historyPageSize {
		page, err := src.GetTransactionHistory(ctx, user, historyPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to read history for %s: %w", user, err)
		}
		all = append(all, page...)
		if len(page) < historyPageSize {
			break
		}
	}
	slices.SortStableFunc(all, func(a, b models.Transaction) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return all, nil
}

// postingFor builds the Formance transaction for one journal entry.
// Journal amounts are signed base units.
func postingFor(tx models.Transaction, asset string) (shared.V2PostTransaction, error) {
	var script string
	switch tx.TransactionType {
	case models.TransactionTypeDeposit:
		script = numscriptDeposit
	case models.TransactionTypeWithdrawal:
		script = numscriptWithdrawal
	default:
		return shared.V2PostTransaction{}, fmt.Errorf("unsupported journal entry type %q", tx.TransactionType)
	}

	amount := tx.Amount.Abs()
	if !amount.Equal(amount.Truncate(0)) {
		return shared.V2PostTransaction{}, fmt.Errorf("journal entry %s is not in base units: %s", tx.Id, tx.Amount)
	}

	postTx := shared.V2PostTransaction{
		Reference: strPtr(tx.Id),
		Script: &shared.V2PostTransactionScript{
			Plain: script,
			Vars: map[string]string{
				"asset":      asset,
				"amount":     amount.BigInt().String(),
				"user":       tx.UserId,
				"journal_id": tx.Id,
				"reference":  tx.Reference,
			},
		},
	}
	if !tx.CreatedAt.IsZero() {
		createdAt := tx.CreatedAt
		postTx.Timestamp = &createdAt
	}
	return postTx, nil
}

// umnAsset returns the Formance UMN notation, e.g. "VAULT/9".
func umnAsset(symbol string, decimals uint8) (string, error) {
	if !symbolPattern.MatchString(symbol) {
		return "", fmt.Errorf("invalid formance asset symbol %q", symbol)
	}
	if decimals == 0 {
		return symbol, nil
	}
	return fmt.Sprintf("%s/%d", symbol, decimals), nil
}

func strPtr(s string) *string { return &s }
