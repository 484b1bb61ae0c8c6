package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Header carries the block fields execution needs. Consensus-only fields
// (difficulty, nonce, uncle hash) are omitted: post-Bedrock they are fixed
// constants and never consulted during execution.
type Header struct {
	ParentHash  common.Hash    `json:"parentHash"`
	Coinbase    common.Address `json:"miner"`
	Root        common.Hash    `json:"stateRoot"`
	TxHash      common.Hash    `json:"transactionsRoot"`
	ReceiptHash common.Hash    `json:"receiptsRoot"`
	Number      *big.Int       `json:"number"`
	GasLimit    uint64         `json:"gasLimit"`
	GasUsed     uint64         `json:"gasUsed"`
	Time        uint64         `json:"timestamp"`
	Extra       []byte         `json:"extraData"`
	BaseFee     *big.Int       `json:"baseFeePerGas"`

	// Post-Ecotone blob fields, mirrored from L1 header rules.
	BlobGasUsed   *uint64 `json:"blobGasUsed,omitempty"`
	ExcessBlobGas *uint64 `json:"excessBlobGas,omitempty"`

	ParentBeaconBlockRoot *common.Hash `json:"parentBeaconBlockRoot,omitempty"`
	WithdrawalsHash       *common.Hash `json:"withdrawalsRoot,omitempty"`
}

func (h *Header) NumberU64() uint64 {
	if h.Number == nil {
		return 0
	}
	return h.Number.Uint64()
}
