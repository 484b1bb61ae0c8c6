package state

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// AccountDiff is the post-block value of one touched account.
type AccountDiff struct {
	Nonce   uint64
	Balance uint256.Int
	Code    []byte
	Storage map[common.Hash]uint256.Int
	Created bool
}

// Diff is the net effect of a block on state: the final value of every
// account and slot that was written. It carries no intermediate values and
// is what the surrounding client applies to its database.
type Diff struct {
	Accounts map[common.Address]AccountDiff
}

// TouchedAddresses returns the diffed addresses in a stable order.
func (d *Diff) TouchedAddresses() []common.Address {
	addrs := make([]common.Address, 0, len(d.Accounts))
	for addr := range d.Accounts {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].Cmp(addrs[j]) < 0
	})
	return addrs
}

// Finalize folds the overlay into a Diff. Accounts that were only read are
// excluded; an account is considered written if any journal entry touched it.
// Finalize does not reset the overlay, so it is safe to call once at block
// end and inspect the overlay afterwards.
func (ibs *IntraBlockState) Finalize() *Diff {
	written := make(map[common.Address]bool, len(ibs.objects))
	writtenSlots := make(map[common.Address]map[common.Hash]bool)
	for _, entry := range ibs.journal {
		switch entry.kind {
		case journalAccount:
			written[entry.addr] = true
		case journalStorage:
			written[entry.addr] = true
			slots := writtenSlots[entry.addr]
			if slots == nil {
				slots = make(map[common.Hash]bool)
				writtenSlots[entry.addr] = slots
			}
			slots[entry.key] = true
		}
	}

	diff := &Diff{Accounts: make(map[common.Address]AccountDiff, len(written))}
	for addr, obj := range ibs.objects {
		if !written[addr] {
			continue
		}
		acc := AccountDiff{
			Nonce:   obj.account.Nonce,
			Balance: obj.account.Balance,
			Code:    obj.code,
			Created: obj.created,
		}
		if slots := writtenSlots[addr]; len(slots) > 0 {
			acc.Storage = make(map[common.Hash]uint256.Int, len(slots))
			for key := range slots {
				acc.Storage[key] = obj.storage[key]
			}
		}
		diff.Accounts[addr] = acc
	}
	return diff
}
