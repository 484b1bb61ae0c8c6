package core

import (
	"fmt"

	"github.com/ledgerwatch/log/v3"

	"github.com/opstackgo/opexec/chain"
	"github.com/opstackgo/opexec/core/state"
	"github.com/opstackgo/opexec/core/vm"
	"github.com/opstackgo/opexec/opstack"
	"github.com/opstackgo/opexec/types"
)

// ExecutionOutcome is the complete, deterministic result of one block:
// re-executing the same block from the same state yields an identical
// outcome.
type ExecutionOutcome struct {
	Receipts types.Receipts
	Diff     *state.Diff
	GasUsed  uint64
	Logs     []*types.Log
}

// BlockExecutor applies blocks strictly in transaction order. It holds no
// per-block state and may be reused across blocks; the intra-block state it
// creates per call is never shared.
type BlockExecutor struct {
	config *chain.Config
	interp vm.Interpreter
	logger log.Logger
}

func NewBlockExecutor(config *chain.Config, interp vm.Interpreter, logger log.Logger) *BlockExecutor {
	if logger == nil {
		logger = log.New()
	}
	return &BlockExecutor{config: config, interp: interp, logger: logger}
}

// ExecuteBlock applies every transaction of the block against the given
// state and returns receipts plus the cumulative diff. Any returned error is
// fatal: the block is rejected with no partial outcome and no retry.
func (e *BlockExecutor) ExecuteBlock(reader state.Reader, header *types.Header, txs []types.Transaction) (*ExecutionOutcome, error) {
	env, err := NewBlockEnv(e.config, header)
	if err != nil {
		return nil, err
	}
	ibs := state.New(reader)
	signer := types.LatestSigner(e.config)
	gp := new(GasPool).AddGas(header.GasLimit)

	var (
		receipts types.Receipts
		allLogs  []*types.Log
		cumGas   uint64

		l1Info   *opstack.L1BlockInfo
		l1CostFn opstack.CostFunc
	)
	for i, txn := range txs {
		ibs.SetTxContext(i)

		msg, err := txn.AsMessage(signer, env.BaseFee)
		if err != nil {
			return nil, fmt.Errorf("tx %d (%x): %w", i, txn.Hash(), err)
		}

		// The L1 attributes are read lazily, at the first non-deposit
		// transaction: by then the block's attributes deposit has executed
		// and the predeploy holds this block's values.
		if !msg.IsDeposit && l1CostFn == nil {
			l1Info, err = opstack.ReadL1BlockInfo(ibs, env.Rules)
			if err != nil {
				return nil, fmt.Errorf("block %d: %w", env.Number, err)
			}
			l1CostFn = l1Info.CostFunc(env.Rules)
		}

		res, err := applyMessage(env, gp, ibs, e.interp, l1CostFn, msg, txn.RollupCostData())
		if err != nil {
			return nil, fmt.Errorf("tx %d (%x): %w", i, txn.Hash(), err)
		}

		cumGas += res.GasUsed
		logs := ibs.GetLogs(i, txn.Hash(), env.Number)
		receipts = append(receipts, MakeReceipt(env, l1Info, txn, msg, i, cumGas, res, logs))
		allLogs = append(allLogs, logs...)
	}

	e.logger.Debug("executed block",
		"number", env.Number, "spec", env.Rules.Spec, "txs", len(txs), "gasUsed", cumGas)

	return &ExecutionOutcome{
		Receipts: receipts,
		Diff:     ibs.Finalize(),
		GasUsed:  cumGas,
		Logs:     allLogs,
	}, nil
}

// ExecuteBlock is the one-shot form for callers without a long-lived
// executor.
func ExecuteBlock(config *chain.Config, reader state.Reader, interp vm.Interpreter,
	header *types.Header, txs []types.Transaction) (*ExecutionOutcome, error) {
	return NewBlockExecutor(config, interp, nil).ExecuteBlock(reader, header, txs)
}
