package core

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opstackgo/opexec/core/state"
	"github.com/opstackgo/opexec/types"
)

// rangeProviderFunc is an in-memory RangeProvider: every block carries the
// same transactions and starts from a freshly funded snapshot.
type rangeProviderFunc struct {
	blocks   map[uint64][]types.Transaction
	badBlock uint64
}

func (p *rangeProviderFunc) Block(num uint64) (*types.Header, []types.Transaction, error) {
	header := testHeader(30_000_000)
	header.Number.SetUint64(num)
	return header, p.blocks[num], nil
}

func (p *rangeProviderFunc) StateBefore(num uint64) (state.Reader, error) {
	mem := state.NewMemoryState()
	if num != p.badBlock {
		mem.SetAccount(testAddr, 0, uint256.NewInt(1_000_000_000_000))
	}
	return mem, nil
}

func TestValidateRangeParallel(t *testing.T) {
	config := regolithConfig()
	provider := &rangeProviderFunc{blocks: map[uint64][]types.Transaction{}}
	for num := uint64(1); num <= 6; num++ {
		provider.blocks[num] = []types.Transaction{
			signedLegacyTx(t, config, 0, 50_000, 1500, nil),
		}
	}

	err := ValidateRange(context.Background(), config, interp21k(), provider,
		[]BlockRange{{From: 1, To: 3}, {From: 4, To: 6}})
	require.NoError(t, err)
}

func TestValidateRangeReportsFailingBlock(t *testing.T) {
	config := regolithConfig()
	// Block 5 starts from an unfunded snapshot, so its transaction cannot
	// buy gas and the replay must fail there.
	provider := &rangeProviderFunc{blocks: map[uint64][]types.Transaction{}, badBlock: 5}
	for num := uint64(1); num <= 6; num++ {
		provider.blocks[num] = []types.Transaction{
			signedLegacyTx(t, config, 0, 50_000, 1500, nil),
		}
	}

	err := ValidateRange(context.Background(), config, interp21k(), provider,
		[]BlockRange{{From: 1, To: 3}, {From: 4, To: 6}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Contains(t, err.Error(), "block 5")
}

func TestValidateRangeHonorsCancellation(t *testing.T) {
	config := regolithConfig()
	provider := &rangeProviderFunc{blocks: map[uint64][]types.Transaction{}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ValidateRange(ctx, config, interp21k(), provider, []BlockRange{{From: 1, To: 1_000_000}})
	require.ErrorIs(t, err, context.Canceled)
}
