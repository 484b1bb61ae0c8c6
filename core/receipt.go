package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/opstackgo/opexec/opstack"
	"github.com/opstackgo/opexec/types"
)

// depositReceiptVersion marks receipts produced under Canyon deposit
// semantics so they stay interpretable after later upgrades.
const depositReceiptVersion = 1

// MakeReceipt assembles the receipt for one applied transaction. Exactly one
// of the two OP field groups is populated: L1 fee accounting for ordinary
// transactions, nonce and version for deposits.
func MakeReceipt(env *BlockEnv, info *opstack.L1BlockInfo, txn types.Transaction, msg *types.Message,
	txIndex int, cumulativeGasUsed uint64, res *ApplyResult, logs []*types.Log) *types.Receipt {
	receipt := &types.Receipt{
		Type:              txn.Type(),
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: cumulativeGasUsed,
		GasUsed:           res.GasUsed,
		BlobGasUsed:       txn.GetBlobGas(),
		TxHash:            txn.Hash(),
		TransactionIndex:  uint(txIndex),
		BlockNumber:       new(big.Int).SetUint64(env.Number),
		Logs:              logs,
	}
	if res.Failed {
		receipt.Status = types.ReceiptStatusFailed
	}
	if msg.IsContractCreation() {
		nonce := msg.Nonce
		if res.DepositNonce != nil {
			nonce = *res.DepositNonce
		}
		receipt.ContractAddress = crypto.CreateAddress(msg.From, nonce)
	}

	if txn.IsDeposit() {
		receipt.DepositNonce = res.DepositNonce
		if env.Rules.IsCanyon && res.DepositNonce != nil {
			version := uint64(depositReceiptVersion)
			receipt.DepositReceiptVersion = &version
		}
		return receipt
	}

	if res.L1Fee != nil {
		receipt.L1Fee = res.L1Fee.ToBig()
	}
	if res.L1GasUsed != nil {
		receipt.L1GasUsed = res.L1GasUsed.ToBig()
	}
	if info != nil {
		receipt.L1GasPrice = info.BaseFee.ToBig()
		if info.Ecotone {
			baseFeeScalar := uint64(info.BaseFeeScalar)
			blobBaseFeeScalar := uint64(info.BlobBaseFeeScalar)
			receipt.L1BaseFeeScalar = &baseFeeScalar
			receipt.L1BlobBaseFeeScalar = &blobBaseFeeScalar
		} else {
			receipt.FeeScalar = info.FeeScalar()
		}
	}
	return receipt
}
