package core

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/opstackgo/opexec/core/state"
	"github.com/opstackgo/opexec/core/vm"
	"github.com/opstackgo/opexec/opstack"
	"github.com/opstackgo/opexec/types"
)

// ApplyResult is the outcome of applying one transaction: everything receipt
// assembly needs beyond the logs.
type ApplyResult struct {
	Failed     bool
	GasUsed    uint64
	ReturnData []byte

	// L1 data-availability accounting, nil for deposits.
	L1Fee     *uint256.Int
	L1GasUsed *uint256.Int

	// DepositNonce is the sender nonce consumed by a deposit, recorded from
	// Regolith on.
	DepositNonce *uint64
}

// applyMessage runs one transaction against the intra-block state: fee and
// nonce accounting around a single interpreter call. A non-nil error is
// fatal to the whole block; a failed call is reported in ApplyResult.
func applyMessage(env *BlockEnv, gp *GasPool, ibs *state.IntraBlockState, interp vm.Interpreter,
	l1CostFn opstack.CostFunc, msg *types.Message, costData types.RollupCostData) (*ApplyResult, error) {
	if msg.IsDeposit {
		return applyDeposit(env, gp, ibs, interp, msg)
	}

	stateNonce, err := ibs.GetNonce(msg.From)
	if err != nil {
		return nil, err
	}
	if msg.CheckNonce {
		if stateNonce > msg.Nonce {
			return nil, fmt.Errorf("%w: address %x, tx: %d state: %d", ErrNonceTooLow, msg.From, msg.Nonce, stateNonce)
		}
		if stateNonce < msg.Nonce {
			return nil, fmt.Errorf("%w: address %x, tx: %d state: %d", ErrNonceTooHigh, msg.From, msg.Nonce, stateNonce)
		}
	}

	// The base fee must be fully collectable and the caps consistent, or the
	// vault crediting below would exceed what the sender pays.
	if env.BaseFee.Sign() > 0 && msg.FeeCap.Lt(env.BaseFee) {
		return nil, fmt.Errorf("%w: address %x, feeCap: %s, baseFee: %s",
			ErrFeeCapTooLow, msg.From, msg.FeeCap, env.BaseFee)
	}
	if msg.TipCap.Gt(msg.FeeCap) {
		return nil, fmt.Errorf("%w: address %x, tipCap: %s, feeCap: %s",
			ErrTipAboveFeeCap, msg.From, msg.TipCap, msg.FeeCap)
	}

	if err := gp.SubGas(msg.GasLimit); err != nil {
		return nil, err
	}

	var l1Fee, l1GasUsed *uint256.Int
	if l1CostFn != nil {
		l1Fee, l1GasUsed = l1CostFn(costData)
	}

	// The sender pays for the full gas limit, the L1 data fee, and the
	// transferred value up front; unused gas is refunded after the call.
	gasCost := new(uint256.Int).SetUint64(msg.GasLimit)
	gasCost.Mul(gasCost, msg.GasPrice)
	required := new(uint256.Int).Set(gasCost)
	if l1Fee != nil {
		required.Add(required, l1Fee)
	}
	required.Add(required, msg.Value)

	balance, err := ibs.GetBalance(msg.From)
	if err != nil {
		return nil, err
	}
	if balance.Lt(required) {
		return nil, fmt.Errorf("%w: address %x have %s want %s", ErrInsufficientFunds, msg.From, balance.String(), required.String())
	}

	charged := new(uint256.Int).Set(gasCost)
	if l1Fee != nil {
		charged.Add(charged, l1Fee)
		if err := ibs.AddBalance(L1FeeVault, l1Fee); err != nil {
			return nil, err
		}
	}
	if err := ibs.SubBalance(msg.From, charged); err != nil {
		return nil, err
	}
	if err := ibs.SetNonce(msg.From, stateNonce+1); err != nil {
		return nil, err
	}

	snapshot := ibs.Snapshot()
	result, err := interp.Call(env.BlockContext(), *msg, ibs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalFailure, err)
	}
	if result.GasUsed > msg.GasLimit {
		return nil, fmt.Errorf("%w: used %d, limit %d", ErrGasUsedOverflow, result.GasUsed, msg.GasLimit)
	}
	if result.Failed() {
		ibs.RevertToSnapshot(snapshot)
	}

	gasLeft := msg.GasLimit - result.GasUsed
	refund := new(uint256.Int).SetUint64(gasLeft)
	refund.Mul(refund, msg.GasPrice)
	if err := ibs.AddBalance(msg.From, refund); err != nil {
		return nil, err
	}
	gp.AddGas(gasLeft)

	// Fee settlement: the priority fee goes to the sequencer, the base fee
	// portion to the BaseFeeVault predeploy instead of being burned.
	gasUsed := uint256.NewInt(result.GasUsed)
	tip := new(uint256.Int).Mul(msg.EffectiveGasTip(env.BaseFee), gasUsed)
	if err := ibs.AddBalance(env.Coinbase, tip); err != nil {
		return nil, err
	}
	if env.BaseFee.Sign() > 0 {
		burned := new(uint256.Int).Mul(env.BaseFee, gasUsed)
		if err := ibs.AddBalance(BaseFeeVault, burned); err != nil {
			return nil, err
		}
	}

	return &ApplyResult{
		Failed:     result.Failed(),
		GasUsed:    result.GasUsed,
		ReturnData: result.ReturnData,
		L1Fee:      l1Fee,
		L1GasUsed:  l1GasUsed,
	}, nil
}

// applyDeposit runs a deposit transaction. The mint is credited before the
// inner call and survives any failure of it; from Regolith on the sender
// nonce is consumed and block gas is accounted even when the call fails.
// A failed inner call never invalidates the block.
func applyDeposit(env *BlockEnv, gp *GasPool, ibs *state.IntraBlockState, interp vm.Interpreter, msg *types.Message) (*ApplyResult, error) {
	if msg.Mint != nil && !msg.Mint.IsZero() {
		if err := ibs.AddBalance(msg.From, msg.Mint); err != nil {
			return nil, err
		}
	}

	rules := env.Rules
	res := &ApplyResult{}

	nonce, err := ibs.GetNonce(msg.From)
	if err != nil {
		return nil, err
	}
	if rules.IsRegolith {
		if err := ibs.SetNonce(msg.From, nonce+1); err != nil {
			return nil, err
		}
		res.DepositNonce = &nonce
		if err := gp.SubGas(msg.GasLimit); err != nil {
			return nil, err
		}
	}

	snapshot := ibs.Snapshot()
	result, err := interp.Call(env.BlockContext(), *msg, ibs)
	switch {
	case err != nil:
		// The deposit was forced by L1; whatever went wrong inside the call
		// stays local to it. Mint and nonce consumption stand.
		ibs.RevertToSnapshot(snapshot)
		res.Failed = true
		result = nil
	case result.GasUsed > msg.GasLimit:
		return nil, fmt.Errorf("%w: used %d, limit %d", ErrGasUsedOverflow, result.GasUsed, msg.GasLimit)
	case result.Failed():
		ibs.RevertToSnapshot(snapshot)
		res.Failed = true
	}

	switch {
	case !rules.IsRegolith && msg.IsSystemTx:
		// System deposits predate gas metering entirely.
		res.GasUsed = 0
	case !rules.IsRegolith:
		// Bedrock records every non-system deposit as using its full gas
		// limit, call outcome notwithstanding.
		res.GasUsed = msg.GasLimit
	case res.Failed:
		// Regolith: a failed deposit burns its whole gas limit.
		res.GasUsed = msg.GasLimit
	default:
		res.GasUsed = result.GasUsed
	}
	if !res.Failed {
		res.ReturnData = result.ReturnData
	}

	if rules.IsRegolith {
		gp.AddGas(msg.GasLimit - res.GasUsed)
	}
	return res, nil
}
