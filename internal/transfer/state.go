package transfer

// Status identifies one state of a transfer's execution state machine. States
// are strictly sequential per transfer: a later status is never observed
// before an earlier one has been emitted.
type Status string

const (
	// StatusIdle is the implicit initial state; it is never emitted.
	StatusIdle Status = "idle"

	// StatusBuilding covers encoding the asset transfer into a batched
	// on-chain call.
	StatusBuilding Status = "building"

	// StatusAwaitingSignature covers constructing the transaction or
	// operation and waiting on the signer.
	StatusAwaitingSignature Status = "awaiting_signature"

	// StatusBroadcasting covers submitting the signed transaction on the
	// standard path.
	StatusBroadcasting Status = "broadcasting"

	// StatusSubmitting covers dispatching the signed operation to the bundler
	// on the gasless path.
	StatusSubmitting Status = "submitting"

	// StatusPolling covers waiting for the bundler to report the operation's
	// receipt. Bounded only by the caller's context.
	StatusPolling Status = "polling"

	// StatusConfirmed is the successful terminal state; the settlement
	// transaction identifier is available.
	StatusConfirmed Status = "confirmed"

	// StatusAwaitingConfirmations is the advisory terminal state of a
	// standard-path transfer against a vault whose threshold exceeds one: the
	// broadcast went out, but finality is unreachable with a single
	// signature.
	StatusAwaitingConfirmations Status = "awaiting_confirmations"

	// StatusFailed is the failing terminal state; the triggering error is
	// carried on the transition and returned to the caller.
	StatusFailed Status = "failed"
)

// Terminal reports whether the status ends the state machine.
func (s Status) Terminal() bool {
	switch s {
	case StatusConfirmed, StatusAwaitingConfirmations, StatusFailed:
		return true
	}
	return false
}

// Transition is one observable step of a transfer's state machine.
type Transition struct {
	Status        Status
	TxHash        string // settlement transaction id, once known
	OperationHash string // bundler operation hash, gasless path only
	Err           error  // set on StatusFailed only
}

// Result summarizes a finished transfer.
type Result struct {
	Status        Status
	TxHash        string // settlement transaction identifier
	OperationHash string // gasless path only
	ExplorerURL   string // explorer link for TxHash, when available
	Finalized     bool   // false for the awaiting-confirmations advisory
}
