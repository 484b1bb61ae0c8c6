package opstack

import (
	"github.com/holiman/uint256"

	"github.com/opstackgo/opexec/chain"
	"github.com/opstackgo/opexec/types"
)

var (
	oneMillion     = uint256.NewInt(1_000_000)
	ecotoneDivisor = uint256.NewInt(1_000_000 * 16)
	fjordDivisor   = uint256.NewInt(1_000_000_000_000)
	sixteen        = uint256.NewInt(16)

	// The Fjord linear-regression intercept is negative, so it is kept
	// negated to stay inside uint256 arithmetic.
	l1CostInterceptNeg = uint256.NewInt(42_585_600)
	l1CostFastlzCoef   = uint256.NewInt(836_500)

	minTransactionSize       = uint256.NewInt(100)
	minTransactionSizeScaled = new(uint256.Int).Mul(minTransactionSize, uint256.NewInt(1e6))
)

// CostFunc computes the L1 data-availability fee and the L1 gas used figure
// recorded in receipts. Both are nil for a zero RollupCostData (deposits).
type CostFunc func(costData types.RollupCostData) (fee, gasUsed *uint256.Int)

// CostFunc returns the fee function for one block, selected by the active
// rules and by which attribute era this L1BlockInfo carries. The Bedrock
// formula applies whenever the info itself is pre-Ecotone, which covers the
// first block of the Ecotone upgrade.
func (info *L1BlockInfo) CostFunc(rules *chain.Rules) CostFunc {
	if !rules.IsEcotone || !info.Ecotone {
		return newBedrockCostFunc(info.BaseFee, info.Overhead, info.Scalar, rules.IsRegolith)
	}
	baseFeeScalar := uint256.NewInt(uint64(info.BaseFeeScalar))
	blobBaseFeeScalar := uint256.NewInt(uint64(info.BlobBaseFeeScalar))
	if rules.IsFjord {
		return newFjordCostFunc(info.BaseFee, info.BlobBaseFee, baseFeeScalar, blobBaseFeeScalar)
	}
	return newEcotoneCostFunc(info.BaseFee, info.BlobBaseFee, baseFeeScalar, blobBaseFeeScalar)
}

// newBedrockCostFunc prices L1 data for Bedrock and Regolith, and for the
// first block of Ecotone. Before Regolith the signature of a transaction is
// not yet part of the rollup data, so 68 padding bytes are charged at the
// non-zero rate.
func newBedrockCostFunc(l1BaseFee, overhead, scalar *uint256.Int, isRegolith bool) CostFunc {
	return func(costData types.RollupCostData) (fee, gasUsed *uint256.Int) {
		if costData == (types.RollupCostData{}) {
			return nil, nil
		}
		gas := costData.Zeroes * types.TxDataZeroGas
		if isRegolith {
			gas += costData.Ones * types.TxDataNonZeroGas
		} else {
			gas += (costData.Ones + 68) * types.TxDataNonZeroGas
		}
		gasWithOverhead := uint256.NewInt(gas)
		gasWithOverhead.Add(gasWithOverhead, overhead)

		// fee = (rollupDataGas + overhead) * l1BaseFee * scalar / 1e6
		fee = new(uint256.Int).Set(gasWithOverhead)
		fee.Mul(fee, l1BaseFee).Mul(fee, scalar).Div(fee, oneMillion)
		return fee, gasWithOverhead
	}
}

// newEcotoneCostFunc prices L1 data from Ecotone on (except the upgrade's
// first block): the single scalar and fixed overhead are replaced by a
// weighted combination of calldata and blob prices.
func newEcotoneCostFunc(l1BaseFee, l1BlobBaseFee, baseFeeScalar, blobBaseFeeScalar *uint256.Int) CostFunc {
	return func(costData types.RollupCostData) (fee, gasUsed *uint256.Int) {
		if costData == (types.RollupCostData{}) {
			return nil, nil
		}
		gasUsed = calldataGasUsed(costData)

		// fee = rollupDataGas * (16*l1BaseFee*baseFeeScalar + l1BlobBaseFee*blobBaseFeeScalar) / 16e6
		//
		// The divisor folds in the /16 that converts calldata gas units to
		// estimated compressed bytes; doing it last keeps full precision.
		calldataCostPerByte := new(uint256.Int).Set(l1BaseFee)
		calldataCostPerByte.Mul(calldataCostPerByte, sixteen)
		calldataCostPerByte.Mul(calldataCostPerByte, baseFeeScalar)

		blobCostPerByte := new(uint256.Int).Mul(l1BlobBaseFee, blobBaseFeeScalar)

		fee = new(uint256.Int).Add(calldataCostPerByte, blobCostPerByte)
		fee.Mul(fee, gasUsed)
		fee.Div(fee, ecotoneDivisor)
		return fee, gasUsed
	}
}

// newFjordCostFunc prices L1 data from Fjord on: the byte count is replaced
// by a FastLZ-based compressed-size estimate, floored at 100 bytes.
func newFjordCostFunc(l1BaseFee, l1BlobBaseFee, baseFeeScalar, blobBaseFeeScalar *uint256.Int) CostFunc {
	return func(costData types.RollupCostData) (fee, gasUsed *uint256.Int) {
		if costData == (types.RollupCostData{}) {
			return nil, nil
		}
		// l1FeeScaled = 16*l1BaseFee*baseFeeScalar + l1BlobBaseFee*blobBaseFeeScalar
		scaledL1BaseFee := new(uint256.Int).Mul(baseFeeScalar, l1BaseFee)
		calldataCostPerByte := new(uint256.Int).Mul(scaledL1BaseFee, sixteen)
		blobCostPerByte := new(uint256.Int).Mul(blobBaseFeeScalar, l1BlobBaseFee)
		l1FeeScaled := new(uint256.Int).Add(calldataCostPerByte, blobCostPerByte)

		// estimatedSize = max(minTransactionSize, intercept + fastlzCoef*fastlzSize),
		// scaled by 1e6. The intercept is negative, so guard the subtraction.
		fastLzSize := uint256.NewInt(costData.FastLzSize)
		estimatedSize := new(uint256.Int).Mul(l1CostFastlzCoef, fastLzSize)
		if estimatedSize.Cmp(l1CostInterceptNeg) < 0 {
			estimatedSize.Set(minTransactionSizeScaled)
		} else {
			estimatedSize.Sub(estimatedSize, l1CostInterceptNeg)
			if estimatedSize.Cmp(minTransactionSizeScaled) < 0 {
				estimatedSize.Set(minTransactionSizeScaled)
			}
		}

		fee = new(uint256.Int).Mul(estimatedSize, l1FeeScaled)
		fee.Div(fee, fjordDivisor)

		gasUsed = new(uint256.Int).Mul(estimatedSize, uint256.NewInt(types.TxDataNonZeroGas))
		gasUsed.Div(gasUsed, oneMillion)
		return fee, gasUsed
	}
}

func calldataGasUsed(costData types.RollupCostData) *uint256.Int {
	gas := costData.Zeroes*types.TxDataZeroGas + costData.Ones*types.TxDataNonZeroGas
	return uint256.NewInt(gas)
}

// L1CostBedrock computes the pre-Ecotone fee for an already-counted rollup
// data gas figure. Exported for fee estimation callers that have no
// transaction encoding at hand.
func L1CostBedrock(rollupDataGas uint64, l1BaseFee, overhead, scalar *uint256.Int) *uint256.Int {
	gasWithOverhead := uint256.NewInt(rollupDataGas)
	gasWithOverhead.Add(gasWithOverhead, overhead)
	fee := new(uint256.Int).Set(gasWithOverhead)
	fee.Mul(fee, l1BaseFee).Mul(fee, scalar).Div(fee, oneMillion)
	return fee
}
