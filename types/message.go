package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Message is the flattened, variant-free view of a transaction handed to the
// interpreter. It is built once per transaction by AsMessage and read-only
// afterwards.
type Message struct {
	From     common.Address
	To       *common.Address // nil means contract creation
	Nonce    uint64
	Value    *uint256.Int
	GasLimit uint64
	GasPrice *uint256.Int // effective price for this block
	FeeCap   *uint256.Int
	TipCap   *uint256.Int
	Data     []byte

	AccessList AccessList
	BlobHashes []common.Hash

	// Deposit semantics. Mint is credited to From before the call runs and
	// survives any failure of the call itself.
	IsDeposit  bool
	IsSystemTx bool
	Mint       *uint256.Int

	CheckNonce bool
}

// EffectiveGasTip is the priority fee per gas actually received by the
// sequencer for this message.
func (msg *Message) EffectiveGasTip(baseFee *uint256.Int) *uint256.Int {
	if baseFee == nil {
		return msg.TipCap
	}
	if msg.FeeCap.Lt(baseFee) {
		return new(uint256.Int)
	}
	tip := new(uint256.Int).Sub(msg.FeeCap, baseFee)
	if tip.Gt(msg.TipCap) {
		tip.Set(msg.TipCap)
	}
	return tip
}

// IsContractCreation reports whether the message deploys new code.
func (msg *Message) IsContractCreation() bool {
	return msg.To == nil
}
