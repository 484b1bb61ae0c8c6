package state

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// MemoryState is an in-memory Reader, used in tests and by callers that
// assemble a state snapshot by hand.
type MemoryState struct {
	accounts map[common.Address]Account
	code     map[common.Address][]byte
	storage  map[common.Address]map[common.Hash]uint256.Int
}

func NewMemoryState() *MemoryState {
	return &MemoryState{
		accounts: make(map[common.Address]Account),
		code:     make(map[common.Address][]byte),
		storage:  make(map[common.Address]map[common.Hash]uint256.Int),
	}
}

func (m *MemoryState) SetAccount(addr common.Address, nonce uint64, balance *uint256.Int) {
	acc := m.accounts[addr]
	acc.Nonce = nonce
	acc.Balance = *balance
	if acc.CodeHash == (common.Hash{}) {
		acc.CodeHash = emptyCodeHash
	}
	m.accounts[addr] = acc
}

func (m *MemoryState) SetCode(addr common.Address, code []byte) {
	acc := m.accounts[addr]
	acc.CodeHash = crypto.Keccak256Hash(code)
	m.accounts[addr] = acc
	m.code[addr] = code
}

func (m *MemoryState) SetStorage(addr common.Address, key common.Hash, value uint256.Int) {
	slots := m.storage[addr]
	if slots == nil {
		slots = make(map[common.Hash]uint256.Int)
		m.storage[addr] = slots
	}
	slots[key] = value
}

// ApplyDiff writes a finalized block diff back, so consecutive blocks can
// execute against the same MemoryState.
func (m *MemoryState) ApplyDiff(diff *Diff) {
	for addr, acc := range diff.Accounts {
		m.SetAccount(addr, acc.Nonce, &acc.Balance)
		if acc.Code != nil {
			m.SetCode(addr, acc.Code)
		}
		for key, val := range acc.Storage {
			m.SetStorage(addr, key, val)
		}
	}
}

func (m *MemoryState) Account(addr common.Address) (*Account, error) {
	acc, ok := m.accounts[addr]
	if !ok {
		return nil, nil
	}
	return &acc, nil
}

func (m *MemoryState) Storage(addr common.Address, key common.Hash) (uint256.Int, error) {
	return m.storage[addr][key], nil
}

func (m *MemoryState) Code(addr common.Address) ([]byte, error) {
	return m.code[addr], nil
}
