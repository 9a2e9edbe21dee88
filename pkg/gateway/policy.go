package gateway

import (
	"fmt"
	"strings"
)

// FailurePolicy decides how the pair behaves while one leg is down: whether
// new sends are accepted and whether already-written requests keep waiting
// for their responses.
type FailurePolicy int

const (
	// FailWhenEitherDown treats the pair as down as soon as one leg drops.
	// New sends are rejected and pending calls are cancelled immediately;
	// strictest consistency, no half-open window.
	FailWhenEitherDown FailurePolicy = iota

	// FailWhenBothDown keeps the pair alive while any leg survives. Sends
	// flow while the Send leg is up; responses for already-written requests
	// keep arriving while the Receive leg is up.
	FailWhenBothDown

	// RequireBothForSend rejects new sends unless both legs are up, but
	// keeps pending calls waiting while the Receive leg survives. Avoids
	// writing requests whose responses have nowhere to land.
	RequireBothForSend
)

var failurePolicyNames = map[FailurePolicy]string{
	FailWhenEitherDown: "FAIL_WHEN_EITHER_DOWN",
	FailWhenBothDown:   "FAIL_WHEN_BOTH_DOWN",
	RequireBothForSend: "REQUIRE_BOTH_FOR_SEND",
}

// String returns the configuration spelling of the policy.
func (p FailurePolicy) String() string {
	if name, ok := failurePolicyNames[p]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseFailurePolicy maps a configuration value to a policy. Matching is
// case-insensitive and accepts hyphens for underscores.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for p, name := range failurePolicyNames {
		if norm == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown failure strategy %q", s)
}

// SendAllowed reports whether a new request may be written given the current
// leg states.
func (p FailurePolicy) SendAllowed(send, receive ConnState) bool {
	switch p {
	case FailWhenEitherDown:
		return send == ConnUp && receive == ConnUp
	case FailWhenBothDown:
		return send == ConnUp
	case RequireBothForSend:
		return send == ConnUp && receive == ConnUp
	default:
		return false
	}
}

// KeepPending reports whether already-registered calls should keep waiting
// for responses given the current leg states. When false the supervisor
// cancels them with ErrConnectionDown.
func (p FailurePolicy) KeepPending(send, receive ConnState) bool {
	switch p {
	case FailWhenEitherDown:
		return send == ConnUp && receive == ConnUp
	case FailWhenBothDown, RequireBothForSend:
		return receive == ConnUp
	default:
		return false
	}
}
