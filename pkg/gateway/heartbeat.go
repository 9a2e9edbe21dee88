package gateway

import (
	"context"
	"time"

	"github.com/nilm987521/gofep/internal/logger"
)

// degradeAfterMisses is how many consecutive failed echoes mark the pair
// DEGRADED and recycle the send leg.
const degradeAfterMisses = 2

// heartbeatRunner keeps the session alive with 0800/301 echoes. The
// scheduled task and the write-idle watchdog collapse into one loop: the
// timer aims at heartbeatInterval after the last write, so real traffic
// postpones echoes and a quiet line gets them on schedule.
type heartbeatRunner struct {
	interval time.Duration
	timeout  time.Duration

	// beat performs one echo exchange within the deadline.
	beat func(ctx context.Context) error

	// idle reports time since the last write on the send leg.
	idle func() time.Duration

	// onResult reports every echo outcome with the consecutive miss count,
	// zero on success. The supervisor turns misses into state changes.
	onResult func(ok bool, consecutiveMisses int)
}

// run loops until ctx is done. One runner goroutine exists per connected
// pair; reconnecting replaces it.
func (h *heartbeatRunner) run(ctx context.Context) {
	misses := 0
	timer := time.NewTimer(h.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		// Traffic within the interval makes an echo pointless; aim the
		// timer at the moment the line will have been quiet long enough.
		if idle := h.idle(); idle < h.interval {
			timer.Reset(h.interval - idle)
			continue
		}

		beatCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := h.beat(beatCtx)
		cancel()

		if ctx.Err() != nil {
			return
		}
		if err != nil {
			misses++
			logger.Warn("heartbeat missed", "consecutive", misses, "error", err)
		} else {
			misses = 0
		}
		if h.onResult != nil {
			h.onResult(err == nil, misses)
		}

		timer.Reset(h.interval)
	}
}
