package services

import (
	"context"
	"strconv"
	"sync"

	"github.com/nilm987521/gofep/internal/protocol/iso8583"
)

// ============================================================================
// Reconciler
// ============================================================================

// Totals is a settlement-window snapshot: how many transactions were seen,
// how they ended and the approved amount in minor units.
type Totals struct {
	Count       uint64 `json:"count"`
	Approved    uint64 `json:"approved"`
	Declined    uint64 `json:"declined"`
	AmountMinor uint64 `json:"amountMinor"`
}

// Reconciler ties finished transactions to the settlement run. The engine
// feeds it every completed financial exchange; settlement itself happens
// outside this repository.
type Reconciler interface {
	// Record feeds one finished transaction into the current window.
	Record(ctx context.Context, e Entry) error

	// Totals snapshots the current window.
	Totals(ctx context.Context) (Totals, error)
}

// NoopReconciler drops every record and reports empty totals.
type NoopReconciler struct{}

func (NoopReconciler) Record(context.Context, Entry) error { return nil }

func (NoopReconciler) Totals(context.Context) (Totals, error) { return Totals{}, nil }

var _ Reconciler = NoopReconciler{}

// ============================================================================
// In-memory reconciler
// ============================================================================

// MemoryReconciler keeps the window totals in process memory. Good enough
// for a single instance; clustered deployments bring their own.
type MemoryReconciler struct {
	mu     sync.Mutex
	totals Totals
}

func NewMemoryReconciler() *MemoryReconciler { return &MemoryReconciler{} }

func (r *MemoryReconciler) Record(_ context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.totals.Count++
	if e.ResponseCode == iso8583.RespApproved {
		r.totals.Approved++
		if n, err := strconv.ParseUint(e.Amount, 10, 64); err == nil {
			r.totals.AmountMinor += n
		}
	} else {
		r.totals.Declined++
	}
	return nil
}

func (r *MemoryReconciler) Totals(context.Context) (Totals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totals, nil
}

var _ Reconciler = (*MemoryReconciler)(nil)
