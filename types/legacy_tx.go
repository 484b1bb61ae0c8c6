package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// LegacyTx is an original homestead-style transaction. On an OP Stack chain
// it is only ever EIP-155 protected, but unprotected signatures are still
// accepted for sender recovery.
type LegacyTx struct {
	CommonTx
	GasPrice *uint256.Int
}

func NewLegacyTx(nonce uint64, to *common.Address, value *uint256.Int, gasLimit uint64, gasPrice *uint256.Int, data []byte) *LegacyTx {
	return &LegacyTx{
		CommonTx: CommonTx{
			Nonce:    nonce,
			To:       copyAddressPtr(to),
			Value:    value,
			GasLimit: gasLimit,
			Data:     data,
		},
		GasPrice: gasPrice,
	}
}

func (tx *LegacyTx) Type() byte { return LegacyTxType }

// GetChainID derives the chain id from the EIP-155 V value, or nil for an
// unprotected transaction.
func (tx *LegacyTx) GetChainID() *uint256.Int {
	if !tx.Protected() {
		return nil
	}
	return DeriveChainID(&tx.V)
}

func (tx *LegacyTx) Protected() bool {
	return tx.V.GtUint64(28)
}

func (tx *LegacyTx) GetFeeCap() *uint256.Int   { return tx.GasPrice }
func (tx *LegacyTx) GetTipCap() *uint256.Int   { return tx.GasPrice }
func (tx *LegacyTx) GetAccessList() AccessList { return nil }

func (tx *LegacyTx) encodePayload() ([]byte, error) {
	return rlp.EncodeToBytes([]interface{}{
		tx.Nonce, tx.GasPrice.ToBig(), tx.GasLimit, tx.To, tx.GetValue().ToBig(), tx.Data,
		tx.V.ToBig(), tx.R.ToBig(), tx.S.ToBig(),
	})
}

func (tx *LegacyTx) MarshalBinary() ([]byte, error) { return tx.encodePayload() }

func (tx *LegacyTx) Hash() common.Hash {
	return tx.cachedHash(tx.encodePayload)
}

func (tx *LegacyTx) SigningHash(chainID *uint256.Int) common.Hash {
	if chainID != nil && !chainID.IsZero() {
		h, err := rlpHash([]interface{}{
			tx.Nonce, tx.GasPrice.ToBig(), tx.GasLimit, tx.To, tx.GetValue().ToBig(), tx.Data,
			chainID.ToBig(), uint(0), uint(0),
		})
		if err != nil {
			panic(err)
		}
		return h
	}
	h, err := rlpHash([]interface{}{
		tx.Nonce, tx.GasPrice.ToBig(), tx.GasLimit, tx.To, tx.GetValue().ToBig(), tx.Data,
	})
	if err != nil {
		panic(err)
	}
	return h
}

func (tx *LegacyTx) RollupCostData() RollupCostData {
	return tx.cachedCostData(tx.encodePayload)
}

func (tx *LegacyTx) AsMessage(signer *Signer, baseFee *uint256.Int) (*Message, error) {
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
		CheckNonce: true,
	}, nil
}

// DeriveChainID derives the chain id from the given EIP-155 V value.
func DeriveChainID(v *uint256.Int) *uint256.Int {
	if v.IsUint64() {
		u := v.Uint64()
		if u == 27 || u == 28 {
			return new(uint256.Int)
		}
		return new(uint256.Int).SetUint64((u - 35) / 2)
	}
	r := new(uint256.Int).Sub(v, uint256.NewInt(35))
	return r.Rsh(r, 1)
}
