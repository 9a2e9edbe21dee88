package gateway

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilm987521/gofep/internal/protocol/iso8583"
)

// ============================================================================
// Basic Lifecycle Tests
// ============================================================================

func TestRegistry_CompleteDeliversResponse(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(10, nil)
	call, err := reg.Register("000001", time.Second, originAPI)
	require.NoError(t, err)

	resp := iso8583.NewMessage(iso8583.MTIFinancialResponse)
	resp.SetField(iso8583.FieldTrace, "000001")
	require.True(t, reg.Complete("000001", resp))

	got, err := call.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, iso8583.MTIFinancialResponse, got.MTI())

	stats := reg.Statistics()
	assert.Equal(t, uint64(1), stats.Registered)
	assert.Equal(t, uint64(1), stats.Completed)
	assert.Equal(t, 0, stats.CurrentPending)
}

func TestRegistry_DuplicateKey(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(10, nil)
	_, err := reg.Register("000007", time.Second, originAPI)
	require.NoError(t, err)

	_, err = reg.Register("000007", time.Second, originAPI)
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestRegistry_CapacityOverload(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(2, nil)
	_, err := reg.Register("000001", time.Second, originAPI)
	require.NoError(t, err)
	_, err = reg.Register("000002", time.Second, originAPI)
	require.NoError(t, err)

	_, err = reg.Register("000003", time.Second, originAPI)
	assert.ErrorIs(t, err, ErrOverloaded)

	// Completing one frees a slot.
	require.True(t, reg.Cancel("000001", ErrShutdown))
	_, err = reg.Register("000003", time.Second, originAPI)
	assert.NoError(t, err)
}

func TestRegistry_CompleteUnknownKey(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(10, nil)
	resp := iso8583.NewMessage(iso8583.MTIFinancialResponse)
	assert.False(t, reg.Complete("999999", resp))
}

func TestRegistry_CancelIdempotent(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(10, nil)
	call, err := reg.Register("000004", time.Second, originAPI)
	require.NoError(t, err)

	assert.True(t, reg.Cancel("000004", ErrConnectionDown))
	assert.False(t, reg.Cancel("000004", ErrConnectionDown))

	_, err = call.Wait(context.Background())
	assert.ErrorIs(t, err, ErrConnectionDown)
}

func TestRegistry_CancelAll(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(10, nil)
	calls := make([]*PendingCall, 0, 5)
	for i := 0; i < 5; i++ {
		call, err := reg.Register(string(rune('a'+i)), time.Minute, originAPI)
		require.NoError(t, err)
		calls = append(calls, call)
	}

	assert.Equal(t, 5, reg.CancelAll(ErrShutdown))
	assert.Equal(t, 0, reg.Len())

	for _, call := range calls {
		_, err := call.Wait(context.Background())
		assert.ErrorIs(t, err, ErrShutdown)
	}
}

func TestRegistry_CloseRejectsNewRegistrations(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(10, nil)
	reg.Close(ErrShutdown)

	_, err := reg.Register("000001", time.Second, originAPI)
	assert.ErrorIs(t, err, ErrShutdown)
}

// ============================================================================
// Deadline Tests
// ============================================================================

func TestRegistry_DeadlineFiresWithoutWaiter(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(10, nil)
	call, err := reg.Register("000005", 20*time.Millisecond, originAPI)
	require.NoError(t, err)

	// Nobody waits; the entry must still leave the map.
	assert.Eventually(t, func() bool { return reg.Len() == 0 },
		time.Second, 5*time.Millisecond)

	_, err = call.Wait(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)

	stats := reg.Statistics()
	assert.Equal(t, uint64(1), stats.TimedOut)
}

func TestRegistry_LateResponseDoesNotTouchReusedKey(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(10, nil)
	first, err := reg.Register("000006", 10*time.Millisecond, originAPI)
	require.NoError(t, err)

	_, err = first.Wait(context.Background())
	require.ErrorIs(t, err, ErrTimeout)

	// Same trace registered again; a response now must resolve the new
	// entry only.
	second, err := reg.Register("000006", time.Second, originAPI)
	require.NoError(t, err)

	resp := iso8583.NewMessage(iso8583.MTIFinancialResponse)
	require.True(t, reg.Complete("000006", resp))

	got, err := second.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, iso8583.MTIFinancialResponse, got.MTI())
}

func TestRegistry_WaitContextCancelReleasesEntry(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(10, nil)
	call, err := reg.Register("000008", time.Minute, originAPI)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = call.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// The abandoned entry is gone; a late response is unsolicited.
	assert.Equal(t, 0, reg.Len())
	assert.False(t, reg.Complete("000008", iso8583.NewMessage(iso8583.MTIFinancialResponse)))
}

// ============================================================================
// Exactly-Once Resolution Under Contention
// ============================================================================

func TestRegistry_ExactlyOnceUnderContention(t *testing.T) {
	t.Parallel()

	const keys = 200
	reg := NewRegistry(keys, nil)

	var delivered atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < keys; i++ {
		key := fmt.Sprintf("%06d", i)
		call, err := reg.Register(key, 30*time.Millisecond, originAPI)
		require.NoError(t, err)

		// One waiter per key counts resolutions.
		wg.Add(1)
		go func(c *PendingCall) {
			defer wg.Done()
			_, _ = c.Wait(context.Background())
			delivered.Add(1)
		}(call)

		// Competing resolvers: a completer, a canceller, and the deadline.
		wg.Add(2)
		go func(k string) {
			defer wg.Done()
			reg.Complete(k, iso8583.NewMessage(iso8583.MTIFinancialResponse))
		}(key)
		go func(k string) {
			defer wg.Done()
			reg.Cancel(k, ErrConnectionDown)
		}(key)
	}

	wg.Wait()
	assert.Equal(t, int64(keys), delivered.Load())

	stats := reg.Statistics()
	assert.Equal(t, uint64(keys), stats.Registered)
	assert.Equal(t, uint64(keys), stats.Completed+stats.Cancelled+stats.TimedOut)
	assert.Equal(t, 0, stats.CurrentPending)
}
