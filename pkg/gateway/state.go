package gateway

// ConnState tracks one leg of the channel pair.
type ConnState int

const (
	// ConnDown means the leg has no usable connection.
	ConnDown ConnState = iota

	// ConnUp means the leg holds an established connection.
	ConnUp
)

// String returns the wire-log form of the state.
func (s ConnState) String() string {
	if s == ConnUp {
		return "UP"
	}
	return "DOWN"
}

// PairState is the combined state of the Send and Receive legs. The zero
// value is PairDisconnected.
type PairState int

const (
	// PairDisconnected means neither leg is up.
	PairDisconnected PairState = iota

	// PairSendOnly means only the Send leg is up.
	PairSendOnly

	// PairReceiveOnly means only the Receive leg is up.
	PairReceiveOnly

	// PairBothConnected means both legs are up but sign-on has not
	// completed.
	PairBothConnected

	// PairSignedOn means both legs are up and the 0800/001 exchange
	// succeeded. Financial traffic flows only in this state.
	PairSignedOn

	// PairDegraded means the pair was signed on and lost a leg, or missed
	// two consecutive heartbeats. Recovery returns it to PairSignedOn
	// without a new sign-on when the host did not drop the session.
	PairDegraded

	// PairFailed is terminal: a required leg exhausted its reconnect
	// budget. Only Close leaves this state.
	PairFailed
)

var pairStateNames = map[PairState]string{
	PairDisconnected:  "DISCONNECTED",
	PairSendOnly:      "SEND_ONLY",
	PairReceiveOnly:   "RECEIVE_ONLY",
	PairBothConnected: "BOTH_CONNECTED",
	PairSignedOn:      "SIGNED_ON",
	PairDegraded:      "DEGRADED",
	PairFailed:        "FAILED",
}

// String returns the canonical upper-case name used in logs, metrics labels
// and the admin API.
func (s PairState) String() string {
	if name, ok := pairStateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Connected reports whether at least one leg is up.
func (s PairState) Connected() bool {
	return s != PairDisconnected && s != PairFailed
}

// SignedOn reports whether financial traffic is allowed without a new
// sign-on exchange.
func (s PairState) SignedOn() bool {
	return s == PairSignedOn || s == PairDegraded
}

// combinedState derives the pair state from the two leg states, before the
// sign-on and degradation overlays the supervisor applies on top.
func combinedState(send, receive ConnState) PairState {
	switch {
	case send == ConnUp && receive == ConnUp:
		return PairBothConnected
	case send == ConnUp:
		return PairSendOnly
	case receive == ConnUp:
		return PairReceiveOnly
	default:
		return PairDisconnected
	}
}
