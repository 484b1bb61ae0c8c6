package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// Log is an event emitted during execution, positioned within its block.
type Log struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	Data    []byte         `json:"data"`

	BlockNumber uint64      `json:"blockNumber"`
	TxHash      common.Hash `json:"transactionHash"`
	TxIndex     uint        `json:"transactionIndex"`
	Index       uint        `json:"logIndex"`
}
