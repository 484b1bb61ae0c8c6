package vm

// Status classifies how a call ended.
type Status uint8

const (
	StatusSuccess Status = iota
	StatusRevert
	StatusHalt
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusRevert:
		return "revert"
	case StatusHalt:
		return "halt"
	default:
		return "unknown"
	}
}

// ExecutionResult is the outcome of one interpreter call. Reverts and halts
// are ordinary results, not errors: the caller decides what they mean for
// the enclosing transaction.
type ExecutionResult struct {
	Status     Status
	GasUsed    uint64
	ReturnData []byte
}

// Failed reports whether the call did not complete successfully.
func (r *ExecutionResult) Failed() bool { return r.Status != StatusSuccess }

// Revert returns the revert payload, nil unless the call reverted.
func (r *ExecutionResult) Revert() []byte {
	if r.Status != StatusRevert {
		return nil
	}
	return r.ReturnData
}
