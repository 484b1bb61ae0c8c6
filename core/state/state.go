// Package state provides the journaled intra-block state an executor drives.
//
// Reads fall through to an external Reader; writes accumulate in an overlay
// that supports snapshot/revert for failed inner calls and is folded into a
// Diff when the block completes. The overlay is the only mutable resource of
// a block's execution and is never shared.
package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/opstackgo/opexec/types"
)

// Account is the execution-visible part of an account.
type Account struct {
	Nonce    uint64
	Balance  uint256.Int
	CodeHash common.Hash
}

// Reader is the synchronous read capability supplied by the surrounding
// client. Implementations must not be mutated while a block executes.
type Reader interface {
	// Account returns nil for a non-existent account.
	Account(addr common.Address) (*Account, error)
	Storage(addr common.Address, key common.Hash) (uint256.Int, error)
	Code(addr common.Address) ([]byte, error)
}

var emptyCodeHash = crypto.Keccak256Hash(nil)

type stateObject struct {
	account Account
	code    []byte
	storage map[common.Hash]uint256.Int
	created bool
}

// IntraBlockState overlays one block's pending writes on a Reader.
type IntraBlockState struct {
	reader  Reader
	objects map[common.Address]*stateObject
	journal []journalEntry
	logs    []*types.Log
	txIndex int
	logSize uint
}

func New(reader Reader) *IntraBlockState {
	return &IntraBlockState{
		reader:  reader,
		objects: make(map[common.Address]*stateObject),
		txIndex: -1,
	}
}

func (ibs *IntraBlockState) getObject(addr common.Address) (*stateObject, error) {
	if obj, ok := ibs.objects[addr]; ok {
		return obj, nil
	}
	acc, err := ibs.reader.Account(addr)
	if err != nil {
		return nil, fmt.Errorf("reading account %x: %w", addr, err)
	}
	obj := &stateObject{storage: make(map[common.Hash]uint256.Int)}
	if acc != nil {
		obj.account = *acc
	} else {
		obj.account.CodeHash = emptyCodeHash
		obj.created = true
	}
	ibs.objects[addr] = obj
	return obj, nil
}

func (ibs *IntraBlockState) Exist(addr common.Address) (bool, error) {
	if obj, ok := ibs.objects[addr]; ok {
		return !obj.created || obj.account.Nonce != 0 || !obj.account.Balance.IsZero(), nil
	}
	acc, err := ibs.reader.Account(addr)
	if err != nil {
		return false, err
	}
	return acc != nil, nil
}

func (ibs *IntraBlockState) GetBalance(addr common.Address) (uint256.Int, error) {
	obj, err := ibs.getObject(addr)
	if err != nil {
		return uint256.Int{}, err
	}
	return obj.account.Balance, nil
}

func (ibs *IntraBlockState) AddBalance(addr common.Address, amount *uint256.Int) error {
	obj, err := ibs.getObject(addr)
	if err != nil {
		return err
	}
	ibs.appendJournal(addr, obj)
	obj.account.Balance.Add(&obj.account.Balance, amount)
	return nil
}

func (ibs *IntraBlockState) SubBalance(addr common.Address, amount *uint256.Int) error {
	obj, err := ibs.getObject(addr)
	if err != nil {
		return err
	}
	ibs.appendJournal(addr, obj)
	obj.account.Balance.Sub(&obj.account.Balance, amount)
	return nil
}

func (ibs *IntraBlockState) GetNonce(addr common.Address) (uint64, error) {
	obj, err := ibs.getObject(addr)
	if err != nil {
		return 0, err
	}
	return obj.account.Nonce, nil
}

func (ibs *IntraBlockState) SetNonce(addr common.Address, nonce uint64) error {
	obj, err := ibs.getObject(addr)
	if err != nil {
		return err
	}
	ibs.appendJournal(addr, obj)
	obj.account.Nonce = nonce
	return nil
}

func (ibs *IntraBlockState) GetCode(addr common.Address) ([]byte, error) {
	obj, err := ibs.getObject(addr)
	if err != nil {
		return nil, err
	}
	if obj.code != nil {
		return obj.code, nil
	}
	if obj.account.CodeHash == emptyCodeHash {
		return nil, nil
	}
	code, err := ibs.reader.Code(addr)
	if err != nil {
		return nil, err
	}
	obj.code = code
	return code, nil
}

func (ibs *IntraBlockState) SetCode(addr common.Address, code []byte) error {
	obj, err := ibs.getObject(addr)
	if err != nil {
		return err
	}
	ibs.appendJournal(addr, obj)
	obj.code = code
	obj.account.CodeHash = crypto.Keccak256Hash(code)
	return nil
}

func (ibs *IntraBlockState) GetState(addr common.Address, key *common.Hash, value *uint256.Int) error {
	obj, err := ibs.getObject(addr)
	if err != nil {
		return err
	}
	if v, ok := obj.storage[*key]; ok {
		value.Set(&v)
		return nil
	}
	v, err := ibs.reader.Storage(addr, *key)
	if err != nil {
		return err
	}
	obj.storage[*key] = v
	value.Set(&v)
	return nil
}

func (ibs *IntraBlockState) SetState(addr common.Address, key *common.Hash, value uint256.Int) error {
	obj, err := ibs.getObject(addr)
	if err != nil {
		return err
	}
	var prev uint256.Int
	if err := ibs.GetState(addr, key, &prev); err != nil {
		return err
	}
	ibs.journal = append(ibs.journal, journalEntry{
		addr: addr, kind: journalStorage, key: *key, prevVal: prev,
	})
	obj.storage[*key] = value
	return nil
}

// AddLog records a log against the transaction currently executing.
func (ibs *IntraBlockState) AddLog(log *types.Log) {
	log.TxIndex = uint(ibs.txIndex)
	log.Index = ibs.logSize
	ibs.journal = append(ibs.journal, journalEntry{kind: journalLog})
	ibs.logs = append(ibs.logs, log)
	ibs.logSize++
}

// SetTxContext readies the overlay for the next transaction in the block.
func (ibs *IntraBlockState) SetTxContext(txIndex int) {
	ibs.txIndex = txIndex
}

func (ibs *IntraBlockState) TxIndex() int { return ibs.txIndex }

// GetLogs returns the logs emitted by the transaction at txIndex, stamped
// with transaction and block identity.
func (ibs *IntraBlockState) GetLogs(txIndex int, txHash common.Hash, blockNumber uint64) []*types.Log {
	var out []*types.Log
	for _, l := range ibs.logs {
		if l.TxIndex == uint(txIndex) {
			l.TxHash = txHash
			l.BlockNumber = blockNumber
			out = append(out, l)
		}
	}
	return out
}

func (ibs *IntraBlockState) Logs() []*types.Log { return ibs.logs }
