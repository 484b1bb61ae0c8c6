package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// GasPerBlob is the fixed gas consumed by each blob (EIP-4844).
const GasPerBlob = 1 << 17

// BlobTx is an EIP-4844 blob-carrying transaction. Only the blob hashes
// travel on L2; the sidecar never enters execution.
type BlobTx struct {
	DynamicFeeTx
	MaxFeePerBlobGas    *uint256.Int
	BlobVersionedHashes []common.Hash
}

func (tx *BlobTx) Type() byte { return BlobTxType }

func (tx *BlobTx) GetBlobGas() uint64 {
	return GasPerBlob * uint64(len(tx.BlobVersionedHashes))
}

func (tx *BlobTx) GetBlobHashes() []common.Hash {
	return tx.BlobVersionedHashes
}

func (tx *BlobTx) encodePayload() ([]byte, error) {
	return typedEncode(BlobTxType, []interface{}{
		tx.ChainID.ToBig(), tx.Nonce, tx.TipCap.ToBig(), tx.FeeCap.ToBig(), tx.GasLimit,
		tx.To, tx.GetValue().ToBig(), tx.Data, tx.AccessList,
		tx.MaxFeePerBlobGas.ToBig(), tx.BlobVersionedHashes,
		tx.V.ToBig(), tx.R.ToBig(), tx.S.ToBig(),
	})
}

func (tx *BlobTx) MarshalBinary() ([]byte, error) { return tx.encodePayload() }

func (tx *BlobTx) Hash() common.Hash {
	return tx.cachedHash(tx.encodePayload)
}

func (tx *BlobTx) SigningHash(chainID *uint256.Int) common.Hash {
	h, err := prefixedRlpHash(BlobTxType, []interface{}{
		chainID.ToBig(), tx.Nonce, tx.TipCap.ToBig(), tx.FeeCap.ToBig(), tx.GasLimit,
		tx.To, tx.GetValue().ToBig(), tx.Data, tx.AccessList,
		tx.MaxFeePerBlobGas.ToBig(), tx.BlobVersionedHashes,
	})
	if err != nil {
		panic(err)
	}
	return h
}

func (tx *BlobTx) RollupCostData() RollupCostData {
	return tx.cachedCostData(tx.encodePayload)
}

func (tx *BlobTx) AsMessage(signer *Signer, baseFee *uint256.Int) (*Message, error) {
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
		BlobHashes: tx.BlobVersionedHashes,
		CheckNonce: true,
	}, nil
}
