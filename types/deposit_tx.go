package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// DepositTx is a transaction derived from an L1 event rather than submitted
// by an L2 signer. It carries no signature and no nonce: its position in the
// block and its sender are both dictated by the L1-derived log, and it must
// be replayed at that position even if its inner call fails.
type DepositTx struct {
	CommonTx

	// SourceHash uniquely identifies the L1 origin of the deposit.
	SourceHash common.Hash
	// From is taken from the L1 event; there is no signature to recover.
	From common.Address
	// Mint is credited to From before the inner call runs, unconditionally.
	Mint *uint256.Int
	// IsSystemTransaction marks deposits originated by the protocol itself
	// (e.g. the L1 attributes update at the top of every block).
	IsSystemTransaction bool
}

func (tx *DepositTx) Type() byte { return DepositTxType }

func (tx *DepositTx) IsDeposit() bool { return true }

// GetChainID returns nil: deposits are not replay-protected by chain id.
func (tx *DepositTx) GetChainID() *uint256.Int { return nil }

func (tx *DepositTx) GetFeeCap() *uint256.Int   { return new(uint256.Int) }
func (tx *DepositTx) GetTipCap() *uint256.Int   { return new(uint256.Int) }
func (tx *DepositTx) GetAccessList() AccessList { return nil }

func (tx *DepositTx) GetMint() *uint256.Int {
	if tx.Mint == nil {
		return new(uint256.Int)
	}
	return tx.Mint
}

func (tx *DepositTx) encodePayload() ([]byte, error) {
	return typedEncode(DepositTxType, []interface{}{
		tx.SourceHash, tx.From, tx.To, tx.GetMint().ToBig(), tx.GetValue().ToBig(),
		tx.GasLimit, tx.IsSystemTransaction, tx.Data,
	})
}

func (tx *DepositTx) MarshalBinary() ([]byte, error) { return tx.encodePayload() }

func (tx *DepositTx) Hash() common.Hash {
	return tx.cachedHash(tx.encodePayload)
}

// SigningHash panics: deposits have nothing to sign.
func (tx *DepositTx) SigningHash(chainID *uint256.Int) common.Hash {
	panic("deposit transactions have no signing hash")
}

// RollupCostData is zero for deposits; their data is already on L1, so they
// owe no data-availability fee.
func (tx *DepositTx) RollupCostData() RollupCostData {
	return RollupCostData{}
}

func (tx *DepositTx) AsMessage(signer *Signer, baseFee *uint256.Int) (*Message, error) {
	return &Message{
		From:       tx.From,
		To:         tx.To,
		Value:      tx.GetValue(),
		GasLimit:   tx.GasLimit,
		GasPrice:   new(uint256.Int),
		FeeCap:     new(uint256.Int),
		TipCap:     new(uint256.Int),
		Data:       tx.Data,
		IsDeposit:  true,
		IsSystemTx: tx.IsSystemTransaction,
		Mint:       tx.GetMint(),
		CheckNonce: false,
	}, nil
}
