package core

import "errors"

var (
	// ErrNonceTooLow is returned when a transaction's nonce is below the
	// sender's account nonce. Fatal: an ordered block never contains one.
	ErrNonceTooLow = errors.New("nonce too low")

	// ErrNonceTooHigh is returned when a transaction's nonce is above the
	// sender's account nonce.
	ErrNonceTooHigh = errors.New("nonce too high")

	// ErrInsufficientFunds is returned when the sender cannot cover gas
	// purchase, L1 data fee, and transferred value.
	ErrInsufficientFunds = errors.New("insufficient funds for gas * price + value")

	// ErrFeeCapTooLow is returned when a transaction's fee cap is below the
	// block base fee. Executing it would under-collect the base fee, so the
	// block is rejected.
	ErrFeeCapTooLow = errors.New("fee cap less than block base fee")

	// ErrTipAboveFeeCap is returned when a transaction's priority fee cap
	// exceeds its fee cap.
	ErrTipAboveFeeCap = errors.New("tip cap higher than fee cap")

	// ErrGasLimitReached is returned when the block gas pool cannot cover a
	// transaction's gas limit. A well-formed block never triggers it, so it
	// aborts the block.
	ErrGasLimitReached = errors.New("gas limit reached")

	// ErrMissingExcessBlobGas is returned when the header lacks the excess
	// blob gas field while Ecotone is active.
	ErrMissingExcessBlobGas = errors.New("header is missing excessBlobGas")

	// ErrGasUsedOverflow is returned when the interpreter reports more gas
	// used than the transaction's limit, an accounting invariant violation.
	ErrGasUsedOverflow = errors.New("gas used exceeds gas limit")

	// ErrInternalFailure wraps interpreter errors that signal a broken
	// execution invariant rather than a failed call.
	ErrInternalFailure = errors.New("internal execution failure")
)
