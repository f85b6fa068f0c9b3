// Package errors defines the staking core's four-kind error taxonomy (spec
// §7) as sentinel errors plus an Outcome result type, generalizing the
// teacher's narrower stake-specific sentinel set.
package errors

import stderrors "errors"

// Kind classifies why an operation failed and how the block driver should
// respond.
type Kind uint8

const (
	// KindInvalidOp: operation rejected; block continues.
	KindInvalidOp Kind = iota
	// KindPreconditionFailed: operation rejected; block continues.
	KindPreconditionFailed
	// KindInsufficient: intent stays queued; coinbase_stalled flag set.
	KindInsufficient
	// KindFatal: node halts; no block commit.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindInvalidOp:
		return "invalid_op"
	case KindPreconditionFailed:
		return "precondition_failed"
	case KindInsufficient:
		return "insufficient"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// StakingError wraps a taxonomy Kind around an underlying error, letting
// callers use errors.Is/As while the block driver switches on Kind alone.
type StakingError struct {
	Kind Kind
	Err  error
}

func New(kind Kind, err error) *StakingError {
	return &StakingError{Kind: kind, Err: err}
}

func (e *StakingError) Error() string {
	if e == nil || e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *StakingError) Unwrap() error { return e.Err }

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var se *StakingError
	if !stderrors.As(err, &se) {
		return false
	}
	return se.Kind == kind
}

// Sentinel errors for common InvalidOp / PreconditionFailed / Insufficient
// conditions named across spec.md §4 and §7.
var (
	ErrUnknownValidator     = stderrors.New("staking: unknown validator")
	ErrValidatorTombstoned  = stderrors.New("staking: validator tombstoned")
	ErrInvalidAmount        = stderrors.New("staking: invalid amount")
	ErrAccountUnbonding     = stderrors.New("staking: account has a delegation unbonding")
	ErrNoBondedDelegation   = stderrors.New("staking: no bonded delegation")
	ErrNothingAccrued       = stderrors.New("staking: nothing accrued to claim")
	ErrNotYetDue            = stderrors.New("staking: not yet due")
	ErrCommissionOutOfRange = stderrors.New("staking: commission rate out of range")
	ErrInsufficientWeight   = stderrors.New("staking: signer weight below threshold")
	ErrCoinbaseInsufficient = stderrors.New("staking: coinbase balance insufficient")
	ErrSelfDelegationLocked = stderrors.New("staking: self-delegation cannot exit while validator is active")
	ErrModulePaused         = stderrors.New("staking: operation paused by governance")
	ErrStateHashMismatch    = stderrors.New("staking: state hash mismatch")
	ErrArithmeticOverflow   = stderrors.New("staking: arithmetic overflow")
	ErrInvariantViolation   = stderrors.New("staking: invariant violation")
)

// InvalidOp wraps err as a KindInvalidOp StakingError.
func InvalidOp(err error) *StakingError { return New(KindInvalidOp, err) }

// PreconditionFailed wraps err as a KindPreconditionFailed StakingError.
func PreconditionFailed(err error) *StakingError { return New(KindPreconditionFailed, err) }

// Insufficient wraps err as a KindInsufficient StakingError.
func Insufficient(err error) *StakingError { return New(KindInsufficient, err) }

// Fatal wraps err as a KindFatal StakingError. The block driver must halt
// rather than commit when it sees one of these.
func Fatal(err error) *StakingError { return New(KindFatal, err) }
