package state

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type journalKind uint8

const (
	journalAccount journalKind = iota
	journalStorage
	journalLog
)

// journalEntry records enough of the pre-write state to undo one mutation.
// Account entries snapshot the whole account; storage entries snapshot one
// slot; log entries are undone by truncation.
type journalEntry struct {
	addr common.Address
	kind journalKind

	prevAccount Account
	prevCode    []byte
	prevVal     uint256.Int
	key         common.Hash
}

func (ibs *IntraBlockState) appendJournal(addr common.Address, obj *stateObject) {
	ibs.journal = append(ibs.journal, journalEntry{
		addr:        addr,
		kind:        journalAccount,
		prevAccount: obj.account,
		prevCode:    obj.code,
	})
}

// Snapshot marks the current journal position. It is cheap and nestable.
func (ibs *IntraBlockState) Snapshot() int {
	return len(ibs.journal)
}

// RevertToSnapshot undoes every mutation journaled after the snapshot.
func (ibs *IntraBlockState) RevertToSnapshot(snapshot int) {
	for i := len(ibs.journal) - 1; i >= snapshot; i-- {
		entry := ibs.journal[i]
		switch entry.kind {
		case journalAccount:
			obj := ibs.objects[entry.addr]
			obj.account = entry.prevAccount
			obj.code = entry.prevCode
		case journalStorage:
			obj := ibs.objects[entry.addr]
			obj.storage[entry.key] = entry.prevVal
		case journalLog:
			ibs.logs = ibs.logs[:len(ibs.logs)-1]
			ibs.logSize--
		}
	}
	ibs.journal = ibs.journal[:snapshot]
}
