package types

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/opstackgo/opexec/chain"
)

var (
	ErrInvalidSig      = errors.New("invalid transaction v, r, s values")
	ErrInvalidChainID  = errors.New("invalid chain id for signer")
	ErrTxTypeNotSigned = errors.New("transaction type cannot be signed")
)

// Signer recovers and produces transaction signatures for one chain. All
// post-Bedrock transaction envelopes are supported; deposits are handled
// upstream and never reach sender recovery.
type Signer struct {
	chainID uint256.Int
}

// LatestSigner returns the signer for the given chain configuration.
func LatestSigner(config *chain.Config) *Signer {
	s := &Signer{}
	if config.ChainID != nil {
		s.chainID.SetFromBig(config.ChainID)
	}
	return s
}

func (sg *Signer) ChainID() *uint256.Int {
	return new(uint256.Int).Set(&sg.chainID)
}

// Sender recovers the signing address. The result is cached on the
// transaction, keyed by nothing: a transaction's signature never changes
// after it enters a block.
func (sg *Signer) Sender(txn Transaction) (common.Address, error) {
	if dep, ok := txn.(*DepositTx); ok {
		return dep.From, nil
	}
	ct := commonTxOf(txn)
	if from := ct.from.Load(); from != nil {
		return *from, nil
	}
	from, err := sg.recoverSender(txn)
	if err != nil {
		return common.Address{}, err
	}
	ct.from.Store(&from)
	return from, nil
}

func (sg *Signer) recoverSender(txn Transaction) (common.Address, error) {
	v, r, s := txn.RawSignatureValues()
	var sigHash common.Hash
	var recID uint64

	switch t := txn.(type) {
	case *LegacyTx:
		if t.Protected() {
			chainID := DeriveChainID(v)
			if !chainID.Eq(&sg.chainID) {
				return common.Address{}, fmt.Errorf("%w: tx has %v, signer has %v",
					ErrInvalidChainID, chainID, &sg.chainID)
			}
			recID = v.Uint64() - 35 - 2*chainID.Uint64()
			sigHash = t.SigningHash(chainID)
		} else {
			if !v.IsUint64() || (v.Uint64() != 27 && v.Uint64() != 28) {
				return common.Address{}, ErrInvalidSig
			}
			recID = v.Uint64() - 27
			sigHash = t.SigningHash(nil)
		}
	default:
		chainID := txn.GetChainID()
		if chainID != nil && !chainID.Eq(&sg.chainID) {
			return common.Address{}, fmt.Errorf("%w: tx has %v, signer has %v",
				ErrInvalidChainID, chainID, &sg.chainID)
		}
		if !v.IsUint64() || v.Uint64() > 1 {
			return common.Address{}, ErrInvalidSig
		}
		recID = v.Uint64()
		sigHash = txn.SigningHash(&sg.chainID)
	}
	return recoverPlain(sigHash, r, s, recID)
}

func recoverPlain(sigHash common.Hash, r, s *uint256.Int, recID uint64) (common.Address, error) {
	if r.IsZero() || s.IsZero() {
		return common.Address{}, ErrInvalidSig
	}
	sig := make([]byte, crypto.SignatureLength)
	r.WriteToSlice(sig[0:32])
	s.WriteToSlice(sig[32:64])
	sig[64] = byte(recID)

	pub, err := crypto.Ecrecover(sigHash[:], sig)
	if err != nil {
		return common.Address{}, err
	}
	if len(pub) == 0 || pub[0] != 4 {
		return common.Address{}, errors.New("invalid public key")
	}
	var addr common.Address
	copy(addr[:], crypto.Keccak256(pub[1:])[12:])
	return addr, nil
}

// SignTx signs the transaction in place with the given key and returns it.
// Deposits cannot be signed.
func SignTx(txn Transaction, sg *Signer, key *ecdsa.PrivateKey) (Transaction, error) {
	if txn.IsDeposit() {
		return nil, ErrTxTypeNotSigned
	}
	sigHash := txn.SigningHash(&sg.chainID)
	sig, err := crypto.Sign(sigHash[:], key)
	if err != nil {
		return nil, err
	}
	var r, s, v uint256.Int
	r.SetBytes(sig[:32])
	s.SetBytes(sig[32:64])
	if _, ok := txn.(*LegacyTx); ok {
		// EIP-155: v = recid + chainID*2 + 35
		v.Set(&sg.chainID)
		v.Mul(&v, uint256.NewInt(2))
		v.AddUint64(&v, uint64(sig[64])+35)
	} else {
		v.SetUint64(uint64(sig[64]))
	}
	txn.setSignature(&v, &r, &s)
	return txn, nil
}

func commonTxOf(txn Transaction) *CommonTx {
	switch t := txn.(type) {
	case *LegacyTx:
		return &t.CommonTx
	case *AccessListTx:
		return &t.CommonTx
	case *DynamicFeeTx:
		return &t.CommonTx
	case *BlobTx:
		return &t.CommonTx
	case *DepositTx:
		return &t.CommonTx
	default:
		panic(fmt.Sprintf("unknown transaction variant %T", txn))
	}
}
