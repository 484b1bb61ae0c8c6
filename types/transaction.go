package types

import (
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// Transaction type identifiers. DepositTxType is the OP Stack deposit
// envelope; the others match the L1 typed-transaction envelopes.
const (
	LegacyTxType     byte = 0x00
	AccessListTxType byte = 0x01
	DynamicFeeTxType byte = 0x02
	BlobTxType       byte = 0x03
	DepositTxType    byte = 0x7e
)

const (
	ReceiptStatusFailed     uint64 = 0
	ReceiptStatusSuccessful uint64 = 1
)

// Transaction is the closed set of transaction variants executable on an OP
// Stack chain. Exactly one implementation, DepositTx, reports IsDeposit;
// every other variant is an ordinary signed transaction.
type Transaction interface {
	Type() byte
	GetChainID() *uint256.Int
	GetNonce() uint64
	GetGasLimit() uint64
	GetBlobGas() uint64
	GetTo() *common.Address
	GetValue() *uint256.Int
	GetData() []byte
	GetFeeCap() *uint256.Int
	GetTipCap() *uint256.Int
	GetAccessList() AccessList
	GetBlobHashes() []common.Hash

	Hash() common.Hash
	SigningHash(chainID *uint256.Int) common.Hash
	RawSignatureValues() (v, r, s *uint256.Int)
	MarshalBinary() ([]byte, error)

	// RollupCostData reports the L1 data-availability footprint of the
	// canonical encoding. It is zero for deposits, which pay no L1 fee.
	RollupCostData() RollupCostData

	IsDeposit() bool
	AsMessage(signer *Signer, baseFee *uint256.Int) (*Message, error)

	setSignature(v, r, s *uint256.Int)
}

// AccessTuple is the element type of an access list.
type AccessTuple struct {
	Address     common.Address `json:"address"`
	StorageKeys []common.Hash  `json:"storageKeys"`
}

// AccessList is an EIP-2930 access list.
type AccessList []AccessTuple

// StorageKeys returns the total number of storage keys in the access list.
func (al AccessList) StorageKeys() int {
	sum := 0
	for _, tuple := range al {
		sum += len(tuple.StorageKeys)
	}
	return sum
}

// CommonTx holds the fields shared by every signed transaction variant plus
// the per-transaction caches for hash, sender, and rollup cost data.
type CommonTx struct {
	Nonce    uint64
	GasLimit uint64
	To       *common.Address // nil means contract creation
	Value    *uint256.Int
	Data     []byte
	V, R, S  uint256.Int

	hash     atomic.Pointer[common.Hash]
	from     atomic.Pointer[common.Address]
	costData atomic.Pointer[RollupCostData]
}

func (tx *CommonTx) GetNonce() uint64        { return tx.Nonce }
func (tx *CommonTx) GetGasLimit() uint64     { return tx.GasLimit }
func (tx *CommonTx) GetBlobGas() uint64      { return 0 }
func (tx *CommonTx) GetTo() *common.Address  { return tx.To }
func (tx *CommonTx) GetData() []byte         { return tx.Data }
func (tx *CommonTx) IsDeposit() bool         { return false }
func (tx *CommonTx) GetBlobHashes() []common.Hash {
	return nil
}

func (tx *CommonTx) GetValue() *uint256.Int {
	if tx.Value == nil {
		return new(uint256.Int)
	}
	return tx.Value
}

func (tx *CommonTx) RawSignatureValues() (v, r, s *uint256.Int) {
	return &tx.V, &tx.R, &tx.S
}

func (tx *CommonTx) setSignature(v, r, s *uint256.Int) {
	tx.V.Set(v)
	tx.R.Set(r)
	tx.S.Set(s)
	tx.hash.Store(nil)
	tx.from.Store(nil)
	tx.costData.Store(nil)
}

func (tx *CommonTx) cachedHash(encode func() ([]byte, error)) common.Hash {
	if h := tx.hash.Load(); h != nil {
		return *h
	}
	enc, err := encode()
	if err != nil {
		// Canonical encoding of an in-memory transaction cannot fail;
		// reaching this is a programmer error.
		panic(err)
	}
	h := common.Hash(crypto.Keccak256Hash(enc))
	tx.hash.Store(&h)
	return h
}

func (tx *CommonTx) cachedCostData(encode func() ([]byte, error)) RollupCostData {
	if cd := tx.costData.Load(); cd != nil {
		return *cd
	}
	enc, err := encode()
	if err != nil {
		panic(err)
	}
	cd := NewRollupCostData(enc)
	tx.costData.Store(&cd)
	return cd
}

func copyAddressPtr(a *common.Address) *common.Address {
	if a == nil {
		return nil
	}
	cpy := *a
	return &cpy
}

// rlpHash encodes x with an optional type-byte prefix and hashes the result.
func prefixedRlpHash(prefix byte, x interface{}) (common.Hash, error) {
	enc, err := rlp.EncodeToBytes(x)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(append([]byte{prefix}, enc...)), nil
}

func rlpHash(x interface{}) (common.Hash, error) {
	enc, err := rlp.EncodeToBytes(x)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(enc), nil
}

// typedEncode produces the canonical typed envelope: type byte || rlp(fields).
func typedEncode(txType byte, fields interface{}) ([]byte, error) {
	enc, err := rlp.EncodeToBytes(fields)
	if err != nil {
		return nil, err
	}
	return append([]byte{txType}, enc...), nil
}
