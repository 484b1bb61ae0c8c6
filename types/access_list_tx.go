package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// AccessListTx is an EIP-2930 access list transaction.
type AccessListTx struct {
	LegacyTx
	ChainID    *uint256.Int
	AccessList AccessList
}

func (tx *AccessListTx) Type() byte { return AccessListTxType }

func (tx *AccessListTx) GetChainID() *uint256.Int {
	return tx.ChainID
}

func (tx *AccessListTx) GetAccessList() AccessList {
	return tx.AccessList
}

func (tx *AccessListTx) encodePayload() ([]byte, error) {
	return typedEncode(AccessListTxType, []interface{}{
		tx.ChainID.ToBig(), tx.Nonce, tx.GasPrice.ToBig(), tx.GasLimit, tx.To,
		tx.GetValue().ToBig(), tx.Data, tx.AccessList,
		tx.V.ToBig(), tx.R.ToBig(), tx.S.ToBig(),
	})
}

func (tx *AccessListTx) MarshalBinary() ([]byte, error) { return tx.encodePayload() }

func (tx *AccessListTx) Hash() common.Hash {
	return tx.cachedHash(tx.encodePayload)
}

func (tx *AccessListTx) SigningHash(chainID *uint256.Int) common.Hash {
	h, err := prefixedRlpHash(AccessListTxType, []interface{}{
		chainID.ToBig(), tx.Nonce, tx.GasPrice.ToBig(), tx.GasLimit, tx.To,
		tx.GetValue().ToBig(), tx.Data, tx.AccessList,
	})
	if err != nil {
		panic(err)
	}
	return h
}

func (tx *AccessListTx) RollupCostData() RollupCostData {
	return tx.cachedCostData(tx.encodePayload)
}

func (tx *AccessListTx) AsMessage(signer *Signer, baseFee *uint256.Int) (*Message, error) {
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
		GasPrice:   tx.GasPrice,
		FeeCap:     tx.GasPrice,
		TipCap:     tx.GasPrice,
		Data:       tx.Data,
		AccessList: tx.AccessList,
		CheckNonce: true,
	}, nil
}
