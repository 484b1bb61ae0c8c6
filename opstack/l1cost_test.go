package opstack

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opstackgo/opexec/chain"
	"github.com/opstackgo/opexec/types"
)

func bedrockRules() *chain.Rules { return &chain.Rules{Spec: chain.Bedrock, IsBedrock: true} }
func regolithRules() *chain.Rules {
	return &chain.Rules{Spec: chain.Regolith, IsBedrock: true, IsRegolith: true}
}
func ecotoneRules() *chain.Rules {
	return &chain.Rules{Spec: chain.Ecotone, IsBedrock: true, IsRegolith: true, IsCanyon: true, IsDelta: true, IsEcotone: true}
}
func fjordRules() *chain.Rules {
	r := ecotoneRules()
	r.Spec = chain.Fjord
	r.IsFjord = true
	return r
}

func TestBedrockCostExact(t *testing.T) {
	// 100 non-zero calldata bytes: rollupDataGas = 100*16 = 1600 under
	// Regolith; fee = (overhead + 1600) * l1BaseFee * scalar / 1e6.
	info := &L1BlockInfo{
		BaseFee:  uint256.NewInt(1000),
		Overhead: uint256.NewInt(2100),
		Scalar:   uint256.NewInt(1_000_000),
	}
	costFunc := info.CostFunc(regolithRules())

	fee, gasUsed := costFunc(types.RollupCostData{Ones: 100})
	require.NotNil(t, fee)
	assert.Equal(t, uint64(2100+1600), gasUsed.Uint64())
	assert.Equal(t, uint64((2100+1600)*1000), fee.Uint64())
}

func TestBedrockPreRegolithSignaturePadding(t *testing.T) {
	info := &L1BlockInfo{
		BaseFee:  uint256.NewInt(1),
		Overhead: uint256.NewInt(0),
		Scalar:   uint256.NewInt(1_000_000),
	}
	costData := types.RollupCostData{Zeroes: 10, Ones: 100}

	_, gasPre := info.CostFunc(bedrockRules())(costData)
	_, gasPost := info.CostFunc(regolithRules())(costData)

	// Pre-Regolith charges 68 extra non-zero bytes for the missing signature.
	assert.Equal(t, uint64(10*4+(100+68)*16), gasPre.Uint64())
	assert.Equal(t, uint64(10*4+100*16), gasPost.Uint64())
}

func TestRollupDataGasCounting(t *testing.T) {
	info := &L1BlockInfo{
		BaseFee:  uint256.NewInt(1),
		Overhead: uint256.NewInt(0),
		Scalar:   uint256.NewInt(1_000_000),
	}
	costFunc := info.CostFunc(regolithRules())
	for _, tc := range []types.RollupCostData{
		{Zeroes: 1},
		{Ones: 1},
		{Zeroes: 7, Ones: 3},
		{Zeroes: 1000, Ones: 4000},
	} {
		_, gasUsed := costFunc(tc)
		assert.Equal(t, tc.Zeroes*4+tc.Ones*16, gasUsed.Uint64())
	}
}

func TestEcotoneCostExact(t *testing.T) {
	info := &L1BlockInfo{
		BaseFee:           uint256.NewInt(1000),
		BlobBaseFee:       uint256.NewInt(100),
		BaseFeeScalar:     2,
		BlobBaseFeeScalar: 3,
		Ecotone:           true,
	}
	costFunc := info.CostFunc(ecotoneRules())

	// gas = 10*4 + 90*16 = 1480
	// fee = 1480 * (16*1000*2 + 100*3) / 16e6 = 47804000 / 16000000 = 2
	fee, gasUsed := costFunc(types.RollupCostData{Zeroes: 10, Ones: 90})
	assert.Equal(t, uint64(1480), gasUsed.Uint64())
	assert.Equal(t, uint64(2), fee.Uint64())
}

func TestFjordCostFloorsAtMinTransactionSize(t *testing.T) {
	info := &L1BlockInfo{
		BaseFee:           uint256.NewInt(1_000_000_000),
		BlobBaseFee:       uint256.NewInt(1_000_000_000),
		BaseFeeScalar:     5,
		BlobBaseFeeScalar: 2,
		Ecotone:           true,
	}
	costFunc := info.CostFunc(fjordRules())

	// A tiny FastLZ size falls below the 100-byte floor:
	// estimatedSize = 100e6, l1FeeScaled = 16e9*5 + 1e9*2 = 82e9,
	// fee = 100e6 * 82e9 / 1e12 = 8_200_000.
	fee, gasUsed := costFunc(types.RollupCostData{Ones: 10, FastLzSize: 25})
	assert.Equal(t, uint64(8_200_000), fee.Uint64())
	assert.Equal(t, uint64(1600), gasUsed.Uint64())
}

func TestFjordCostAboveFloor(t *testing.T) {
	info := &L1BlockInfo{
		BaseFee:           uint256.NewInt(1),
		BlobBaseFee:       uint256.NewInt(0),
		BaseFeeScalar:     1,
		BlobBaseFeeScalar: 0,
		Ecotone:           true,
	}
	costFunc := info.CostFunc(fjordRules())

	// estimatedSize = 836500*1000 - 42585600 = 793_914_400 (above floor),
	// fee = 793914400 * 16 / 1e12 = 0 with these tiny prices; check gasUsed.
	_, gasUsed := costFunc(types.RollupCostData{Ones: 10, FastLzSize: 1000})
	assert.Equal(t, uint64(793_914_400*16/1_000_000), gasUsed.Uint64())
}

func TestDepositsPayNoL1Fee(t *testing.T) {
	info := &L1BlockInfo{
		BaseFee:  uint256.NewInt(1000),
		Overhead: uint256.NewInt(2100),
		Scalar:   uint256.NewInt(1_000_000),
	}
	for _, rules := range []*chain.Rules{bedrockRules(), regolithRules()} {
		fee, gasUsed := info.CostFunc(rules)(types.RollupCostData{})
		assert.Nil(t, fee)
		assert.Nil(t, gasUsed)
	}
}

func TestFirstEcotoneBlockUsesBedrockFormula(t *testing.T) {
	// Ecotone rules, but the info still carries Bedrock attributes.
	info := &L1BlockInfo{
		BaseFee:  uint256.NewInt(1000),
		Overhead: uint256.NewInt(2100),
		Scalar:   uint256.NewInt(1_000_000),
	}
	fee, _ := info.CostFunc(ecotoneRules())(types.RollupCostData{Ones: 100})
	assert.Equal(t, uint64((2100+1600)*1000), fee.Uint64())
}

func TestL1CostBedrockHelper(t *testing.T) {
	fee := L1CostBedrock(1600, uint256.NewInt(1000), uint256.NewInt(2100), uint256.NewInt(1_000_000))
	assert.Equal(t, uint64(3_700_000), fee.Uint64())
}
