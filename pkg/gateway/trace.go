package gateway

import (
	"fmt"
	"sync/atomic"
)

// traceModulus bounds field 11: six decimal digits.
const traceModulus = 1_000_000

// traceSequence issues system trace audit numbers. Values cycle through
// 000001..999999; the all-zero trace is skipped because several hosts
// reject it. Collisions with still-pending traces after a wrap are the
// caller's problem: the supervisor scans forward past in-flight keys.
type traceSequence struct {
	counter atomic.Uint64
}

// next returns the next six-digit trace.
func (s *traceSequence) next() string {
	for {
		n := s.counter.Add(1) % traceModulus
		if n != 0 {
			return fmt.Sprintf("%06d", n)
		}
	}
}

// seed positions the sequence so the next call returns start+1 mod the
// six-digit space. Used by tests and by operators who want restarts to
// resume away from recently used traces.
func (s *traceSequence) seed(start uint64) {
	s.counter.Store(start)
}
