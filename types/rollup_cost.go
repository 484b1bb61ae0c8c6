package types

// L1 calldata gas costs, mirroring base-layer calldata pricing. These are
// consensus constants and must match the on-chain fee formulas exactly.
const (
	TxDataZeroGas    uint64 = 4
	TxDataNonZeroGas uint64 = 16
)

// RollupCostData caches the three figures the L1 cost formulas need from a
// transaction's canonical encoding: zero bytes, non-zero bytes, and the
// FastLZ-compressed length used by the Fjord formula. The zero value means
// "no rollup cost" and is what deposits report.
type RollupCostData struct {
	Zeroes, Ones uint64
	FastLzSize   uint64
}

// NewRollupCostData scans one canonical transaction encoding.
func NewRollupCostData(data []byte) RollupCostData {
	var out RollupCostData
	for _, b := range data {
		if b == 0 {
			out.Zeroes++
		} else {
			out.Ones++
		}
	}
	out.FastLzSize = uint64(FlzCompressLen(data))
	return out
}
