// Package vm defines the contract between the block executor and the
// instruction-level interpreter. The interpreter itself lives outside this
// module; the executor only depends on the call surface declared here.
package vm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/opstackgo/opexec/chain"
	"github.com/opstackgo/opexec/types"
)

// BlockContext is the immutable per-block environment an interpreter sees.
type BlockContext struct {
	Coinbase    common.Address
	BlockNumber uint64
	Time        uint64
	GasLimit    uint64
	BaseFee     *uint256.Int
	BlobBaseFee *uint256.Int
	Rules       *chain.Rules
}

// StateDB is the mutation surface the interpreter drives during a call. It
// is a subset of the executor's intra-block state; implementations journal
// every write so a failed call can be rolled back.
type StateDB interface {
	Exist(addr common.Address) (bool, error)
	GetBalance(addr common.Address) (uint256.Int, error)
	AddBalance(addr common.Address, amount *uint256.Int) error
	SubBalance(addr common.Address, amount *uint256.Int) error
	GetNonce(addr common.Address) (uint64, error)
	SetNonce(addr common.Address, nonce uint64) error
	GetCode(addr common.Address) ([]byte, error)
	SetCode(addr common.Address, code []byte) error
	GetState(addr common.Address, key *common.Hash, value *uint256.Int) error
	SetState(addr common.Address, key *common.Hash, value uint256.Int) error
	AddLog(log *types.Log)
	Snapshot() int
	RevertToSnapshot(snapshot int)
}

// Interpreter executes one message against state. A non-nil error means the
// interpreter itself broke an invariant and the whole block must be
// abandoned; a failed call is reported through ExecutionResult.Status.
type Interpreter interface {
	Call(ctx *BlockContext, msg types.Message, state StateDB) (*ExecutionResult, error)
}
