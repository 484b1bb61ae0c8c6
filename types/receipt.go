package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// Receipt is the persisted outcome of one transaction.
//
// The OP Stack extends the L1 receipt with two mutually exclusive field
// groups: L1 fee accounting for ordinary transactions, and nonce/version
// for deposits. A receipt never carries both.
type Receipt struct {
	Type              byte   `json:"type"`
	Status            uint64 `json:"status"`
	CumulativeGasUsed uint64 `json:"cumulativeGasUsed"`
	Logs              []*Log `json:"logs"`

	TxHash           common.Hash    `json:"transactionHash"`
	ContractAddress  common.Address `json:"contractAddress"`
	GasUsed          uint64         `json:"gasUsed"`
	BlobGasUsed      uint64         `json:"blobGasUsed,omitempty"`
	BlockNumber      *big.Int       `json:"blockNumber"`
	TransactionIndex uint           `json:"transactionIndex"`

	// L1 fee accounting, present only for non-deposit transactions.
	L1GasPrice          *big.Int   `json:"l1GasPrice,omitempty"`
	L1GasUsed           *big.Int   `json:"l1GasUsed,omitempty"`
	L1Fee               *big.Int   `json:"l1Fee,omitempty"`
	FeeScalar           *big.Float `json:"l1FeeScalar,omitempty"`         // pre-Ecotone only
	L1BaseFeeScalar     *uint64    `json:"l1BaseFeeScalar,omitempty"`     // post-Ecotone
	L1BlobBaseFeeScalar *uint64    `json:"l1BlobBaseFeeScalar,omitempty"` // post-Ecotone

	// Deposit fields, present only for deposit transactions.
	DepositNonce *uint64 `json:"depositNonce,omitempty"`
	// DepositReceiptVersion records which deposit-semantics era produced
	// this receipt so it stays interpretable after later upgrades.
	DepositReceiptVersion *uint64 `json:"depositReceiptVersion,omitempty"`
}

func (r *Receipt) Failed() bool {
	return r.Status == ReceiptStatusFailed
}

// Receipts is a list of receipts for one block.
type Receipts []*Receipt

func (rs Receipts) CumulativeGasUsed() uint64 {
	if len(rs) == 0 {
		return 0
	}
	return rs[len(rs)-1].CumulativeGasUsed
}

// MarshalReceipt flattens a receipt into the JSON-RPC field map, including
// the OP Stack extensions. The effective gas price is derived against the
// block base fee the same way the fee was charged during execution.
func MarshalReceipt(receipt *Receipt, txn Transaction, header *Header, signer *Signer) map[string]interface{} {
	var from common.Address
	if signer != nil {
		from, _ = signer.Sender(txn)
	}

	fields := map[string]interface{}{
		"blockNumber":       hexutil.Uint64(receipt.BlockNumber.Uint64()),
		"transactionHash":   receipt.TxHash,
		"transactionIndex":  hexutil.Uint64(receipt.TransactionIndex),
		"from":              from,
		"to":                txn.GetTo(),
		"type":              hexutil.Uint(txn.Type()),
		"status":            hexutil.Uint64(receipt.Status),
		"gasUsed":           hexutil.Uint64(receipt.GasUsed),
		"cumulativeGasUsed": hexutil.Uint64(receipt.CumulativeGasUsed),
		"contractAddress":   nil,
		"logs":              receipt.Logs,
	}
	if receipt.Logs == nil {
		fields["logs"] = []*Log{}
	}
	if receipt.ContractAddress != (common.Address{}) {
		fields["contractAddress"] = receipt.ContractAddress
	}

	if txn.IsDeposit() {
		// Deposits pay no fees; only the nonce/version extension applies.
		fields["effectiveGasPrice"] = hexutil.Uint64(0)
		if receipt.DepositNonce != nil {
			fields["depositNonce"] = hexutil.Uint64(*receipt.DepositNonce)
		}
		if receipt.DepositReceiptVersion != nil {
			fields["depositReceiptVersion"] = hexutil.Uint64(*receipt.DepositReceiptVersion)
		}
		return fields
	}

	var baseFee *uint256.Int
	if header.BaseFee != nil {
		baseFee, _ = uint256.FromBig(header.BaseFee)
	}
	gasPrice := effectiveGasPrice(txn.GetFeeCap(), txn.GetTipCap(), baseFee)
	fields["effectiveGasPrice"] = hexutil.Uint64(gasPrice.Uint64())

	if receipt.L1Fee != nil {
		fields["l1Fee"] = (*hexutil.Big)(receipt.L1Fee)
	}
	if receipt.L1GasUsed != nil {
		fields["l1GasUsed"] = (*hexutil.Big)(receipt.L1GasUsed)
	}
	if receipt.L1GasPrice != nil {
		fields["l1GasPrice"] = (*hexutil.Big)(receipt.L1GasPrice)
	}
	if receipt.FeeScalar != nil {
		fields["l1FeeScalar"] = receipt.FeeScalar.Text('f', 6)
	}
	if receipt.L1BaseFeeScalar != nil {
		fields["l1BaseFeeScalar"] = hexutil.Uint64(*receipt.L1BaseFeeScalar)
	}
	if receipt.L1BlobBaseFeeScalar != nil {
		fields["l1BlobBaseFeeScalar"] = hexutil.Uint64(*receipt.L1BlobBaseFeeScalar)
	}
	return fields
}
