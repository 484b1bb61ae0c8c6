// Package core executes OP Stack blocks: it builds the per-block
// environment, applies deposit and ordinary transactions in order under the
// active upgrade rules, prices L1 data availability, and assembles receipts
// and a cumulative state diff.
package core

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/opstackgo/opexec/chain"
	"github.com/opstackgo/opexec/core/vm"
	"github.com/opstackgo/opexec/types"
)

// Predeploys credited during fee settlement.
var (
	// BaseFeeVault receives the EIP-1559 base fee portion of every
	// transaction (the OP Stack redirects the L1 burn).
	BaseFeeVault = common.HexToAddress("0x4200000000000000000000000000000000000019")
	// L1FeeVault receives the L1 data-availability fee.
	L1FeeVault = common.HexToAddress("0x420000000000000000000000000000000000001A")
)

// EIP-4844 blob price parameters, mirrored from L1 Cancun.
const (
	minBlobGasPrice            = 1
	blobGasPriceUpdateFraction = 3338477
)

// BlockEnv is the immutable environment shared by every transaction in a
// block. It is built once from the header and never modified afterwards.
type BlockEnv struct {
	Coinbase    common.Address
	Number      uint64
	Time        uint64
	GasLimit    uint64
	BaseFee     *uint256.Int
	BlobBaseFee *uint256.Int
	Rules       *chain.Rules
}

// NewBlockEnv snapshots the execution environment for one block. The blob
// base fee is derived from the header's excess blob gas; from Ecotone on the
// field is mandatory and its absence aborts the block.
func NewBlockEnv(config *chain.Config, header *types.Header) (*BlockEnv, error) {
	rules := config.Rules(header.NumberU64(), header.Time)

	env := &BlockEnv{
		Coinbase: header.Coinbase,
		Number:   header.NumberU64(),
		Time:     header.Time,
		GasLimit: header.GasLimit,
		BaseFee:  new(uint256.Int),
		Rules:    rules,
	}
	if header.BaseFee != nil {
		baseFee, overflow := uint256.FromBig(header.BaseFee)
		if overflow {
			return nil, fmt.Errorf("header base fee %v overflows uint256", header.BaseFee)
		}
		env.BaseFee = baseFee
	}

	if rules.IsEcotone {
		if header.ExcessBlobGas == nil {
			return nil, fmt.Errorf("%w: block %d is post-Ecotone", ErrMissingExcessBlobGas, env.Number)
		}
		env.BlobBaseFee = blobBaseFee(*header.ExcessBlobGas)
	}
	return env, nil
}

// BlockContext is the interpreter-facing view of the environment.
func (env *BlockEnv) BlockContext() *vm.BlockContext {
	return &vm.BlockContext{
		Coinbase:    env.Coinbase,
		BlockNumber: env.Number,
		Time:        env.Time,
		GasLimit:    env.GasLimit,
		BaseFee:     env.BaseFee,
		BlobBaseFee: env.BlobBaseFee,
		Rules:       env.Rules,
	}
}

// blobBaseFee computes minBlobGasPrice * e^(excessBlobGas / updateFraction)
// using the EIP-4844 fake-exponential approximation.
func blobBaseFee(excessBlobGas uint64) *uint256.Int {
	return fakeExponential(
		uint256.NewInt(minBlobGasPrice),
		uint256.NewInt(excessBlobGas),
		uint256.NewInt(blobGasPriceUpdateFraction),
	)
}

// fakeExponential approximates factor * e^(numerator/denominator) with the
// Taylor expansion mandated by EIP-4844. All inputs are treated read-only.
func fakeExponential(factor, numerator, denominator *uint256.Int) *uint256.Int {
	output := new(uint256.Int)
	accum := new(uint256.Int).Mul(factor, denominator)
	for i := uint64(1); accum.Sign() > 0; i++ {
		output.Add(output, accum)

		accum.Mul(accum, numerator)
		accum.Div(accum, denominator)
		accum.Div(accum, uint256.NewInt(i))
	}
	return output.Div(output, denominator)
}
