package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// DynamicFeeTx is an EIP-1559 transaction.
type DynamicFeeTx struct {
	CommonTx
	ChainID    *uint256.Int
	TipCap     *uint256.Int // a.k.a. maxPriorityFeePerGas
	FeeCap     *uint256.Int // a.k.a. maxFeePerGas
	AccessList AccessList
}

func (tx *DynamicFeeTx) Type() byte { return DynamicFeeTxType }

func (tx *DynamicFeeTx) GetChainID() *uint256.Int { return tx.ChainID }
func (tx *DynamicFeeTx) GetFeeCap() *uint256.Int  { return tx.FeeCap }
func (tx *DynamicFeeTx) GetTipCap() *uint256.Int  { return tx.TipCap }
func (tx *DynamicFeeTx) GetAccessList() AccessList {
	return tx.AccessList
}

func (tx *DynamicFeeTx) encodePayload() ([]byte, error) {
	return typedEncode(DynamicFeeTxType, []interface{}{
		tx.ChainID.ToBig(), tx.Nonce, tx.TipCap.ToBig(), tx.FeeCap.ToBig(), tx.GasLimit,
		tx.To, tx.GetValue().ToBig(), tx.Data, tx.AccessList,
		tx.V.ToBig(), tx.R.ToBig(), tx.S.ToBig(),
	})
}

func (tx *DynamicFeeTx) MarshalBinary() ([]byte, error) { return tx.encodePayload() }

func (tx *DynamicFeeTx) Hash() common.Hash {
	return tx.cachedHash(tx.encodePayload)
}

func (tx *DynamicFeeTx) SigningHash(chainID *uint256.Int) common.Hash {
	h, err := prefixedRlpHash(DynamicFeeTxType, []interface{}{
		chainID.ToBig(), tx.Nonce, tx.TipCap.ToBig(), tx.FeeCap.ToBig(), tx.GasLimit,
		tx.To, tx.GetValue().ToBig(), tx.Data, tx.AccessList,
	})
	if err != nil {
		panic(err)
	}
	return h
}

func (tx *DynamicFeeTx) RollupCostData() RollupCostData {
	return tx.cachedCostData(tx.encodePayload)
}

// effectiveGasPrice is the price actually charged per unit of gas under
// EIP-1559: min(feeCap, baseFee+tipCap), or feeCap when no base fee applies.
func effectiveGasPrice(feeCap, tipCap, baseFee *uint256.Int) *uint256.Int {
	if baseFee == nil {
		return feeCap
	}
	price := new(uint256.Int).Add(baseFee, tipCap)
	if price.Gt(feeCap) {
		price.Set(feeCap)
	}
	return price
}

func (tx *DynamicFeeTx) AsMessage(signer *Signer, baseFee *uint256.Int) (*Message, error) {
	from, err := signer.Sender(tx)
	if err != nil {
		return nil, err
	}
	return &Message{
		From:       from,
		To:         tx.To,
		Nonce:      tx.Nonce,
		Value:      tx.GetValue(),
		GasLimit:   tx.GasLimit,
		GasPrice:   effectiveGasPrice(tx.FeeCap, tx.TipCap, baseFee),
		FeeCap:     tx.FeeCap,
		TipCap:     tx.TipCap,
		Data:       tx.Data,
		AccessList: tx.AccessList,
		CheckNonce: true,
	}, nil
}
