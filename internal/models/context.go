package models

import (
	"context"
	"strconv"
	"time"
)

type batchContextKey struct{}

// BatchContext carries execution metadata for the batch currently being processed
// so ledger writes can reference it without widening every handler signature.
type BatchContext struct {
	BatchId        string    // uuid assigned by the runtime
	OperationIndex int       // position of the executing operation in the batch
	SubmittedAt    time.Time // effective time for ledger entries
}

// ExternalId returns the idempotency key of the executing operation
func (b *BatchContext) ExternalId() string {
	if b == nil {
		return ""
	}
	return b.BatchId + "/" + strconv.Itoa(b.OperationIndex)
}

// WithBatchContext attaches batch metadata to a context.
func WithBatchContext(ctx context.Context, bc *BatchContext) context.Context {
	return context.WithValue(ctx, batchContextKey{}, bc)
}

// GetBatchContext retrieves batch metadata from context, or nil if absent.
func GetBatchContext(ctx context.Context) *BatchContext {
	bc, _ := ctx.Value(batchContextKey{}).(*BatchContext)
	return bc
}
