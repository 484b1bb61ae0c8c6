// Package opstack prices the L1 data-availability cost of L2 transactions.
//
// Every non-deposit transaction owes a fee for the L1 calldata or blob space
// its data will occupy when the batch is posted. The fee formula changed at
// the Ecotone and Fjord upgrades; all three eras are implemented here and
// selected by the active spec. Deposit transactions never owe this fee.
package opstack

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/opstackgo/opexec/chain"
)

const (
	// The two 4-byte Ecotone fee scalars are packed into the same storage
	// slot as the 8-byte sequence number. Solidity offsets count backwards
	// from the end of the slot, so baseFeeScalar occupies bytes [16:20)
	// and blobBaseFeeScalar bytes [20:24).
	BaseFeeScalarSlotOffset     = 12
	BlobBaseFeeScalarSlotOffset = 8

	scalarSectionStart = 32 - BaseFeeScalarSlotOffset - 4

	// Attributes calldata sizes: selector plus 8 ABI words pre-Ecotone,
	// and the packed 164-byte layout from Ecotone on.
	BedrockL1InfoBytes = 4 + 32*8
	EcotoneL1InfoBytes = 164
)

func init() {
	if BlobBaseFeeScalarSlotOffset != BaseFeeScalarSlotOffset-4 {
		panic("this code assumes the scalars are at adjacent positions in the scalars slot")
	}
}

var (
	// BedrockL1AttributesSelector is the setL1BlockValues function selector
	// used by the attributes deposit before Ecotone.
	BedrockL1AttributesSelector = []byte{0x01, 0x5d, 0x8e, 0xb9}
	// EcotoneL1AttributesSelector is the setL1BlockValuesEcotone selector,
	// shared by Ecotone and Fjord.
	EcotoneL1AttributesSelector = []byte{0x44, 0x0a, 0x5e, 0x20}

	// L1BlockAddr is the predeploy storing the L1 attributes.
	L1BlockAddr = common.HexToAddress("0x4200000000000000000000000000000000000015")

	L1BaseFeeSlot = common.BigToHash(big.NewInt(1))
	OverheadSlot  = common.BigToHash(big.NewInt(5))
	ScalarSlot    = common.BigToHash(big.NewInt(6))

	// L1BlobBaseFeeSlot stores the blob base fee from Ecotone on.
	L1BlobBaseFeeSlot = common.BigToHash(big.NewInt(7))
	// L1FeeScalarsSlot packs the 32-bit baseFeeScalar and blobBaseFeeScalar
	// from Ecotone on.
	L1FeeScalarsSlot = common.BigToHash(big.NewInt(3))

	emptyScalars = make([]byte, 8)
)

// StateGetter is the read capability needed to load the L1 attributes from
// the L1Block predeploy.
type StateGetter interface {
	GetState(addr common.Address, key *common.Hash, value *uint256.Int) error
}

// L1BlockInfo is the per-block snapshot of L1 fee attributes. It is derived
// once per block, either from the L1Block predeploy's storage or from the
// attributes deposit calldata, and is read-only afterwards.
type L1BlockInfo struct {
	BaseFee     *uint256.Int
	BlobBaseFee *uint256.Int

	// Pre-Ecotone attributes.
	Overhead *uint256.Int
	Scalar   *uint256.Int

	// Post-Ecotone attributes.
	BaseFeeScalar     uint32
	BlobBaseFeeScalar uint32

	// Ecotone is set when the post-Ecotone attributes are populated. The
	// first Ecotone block still carries Bedrock attributes, so this is not
	// the same as "the Ecotone upgrade is active".
	Ecotone bool
}

// ReadL1BlockInfo loads the attributes for the current block from the
// L1Block predeploy. The storage reads happen after the block's deposits
// have executed, so the values are the ones this block's attributes deposit
// just wrote; this ordering is consensus critical.
func ReadL1BlockInfo(state StateGetter, rules *chain.Rules) (*L1BlockInfo, error) {
	info := &L1BlockInfo{}

	var l1BaseFee uint256.Int
	if err := state.GetState(L1BlockAddr, &L1BaseFeeSlot, &l1BaseFee); err != nil {
		return nil, fmt.Errorf("reading l1 base fee: %w", err)
	}
	info.BaseFee = &l1BaseFee

	if !rules.IsEcotone {
		var overhead, scalar uint256.Int
		if err := state.GetState(L1BlockAddr, &OverheadSlot, &overhead); err != nil {
			return nil, fmt.Errorf("reading l1 fee overhead: %w", err)
		}
		if err := state.GetState(L1BlockAddr, &ScalarSlot, &scalar); err != nil {
			return nil, fmt.Errorf("reading l1 fee scalar: %w", err)
		}
		info.Overhead = &overhead
		info.Scalar = &scalar
		return info, nil
	}

	var feeScalars, blobBaseFee uint256.Int
	if err := state.GetState(L1BlockAddr, &L1FeeScalarsSlot, &feeScalars); err != nil {
		return nil, fmt.Errorf("reading l1 fee scalars: %w", err)
	}
	if err := state.GetState(L1BlockAddr, &L1BlobBaseFeeSlot, &blobBaseFee); err != nil {
		return nil, fmt.Errorf("reading l1 blob base fee: %w", err)
	}

	// The very first Ecotone block still runs on Bedrock attributes: the
	// new slots are only populated by this block's attributes deposit. We
	// detect that by the Ecotone parameters being entirely unset.
	packed := feeScalars.Bytes32()
	if blobBaseFee.IsZero() && bytes.Equal(emptyScalars, packed[scalarSectionStart:scalarSectionStart+8]) {
		var overhead, scalar uint256.Int
		if err := state.GetState(L1BlockAddr, &OverheadSlot, &overhead); err != nil {
			return nil, fmt.Errorf("reading l1 fee overhead: %w", err)
		}
		if err := state.GetState(L1BlockAddr, &ScalarSlot, &scalar); err != nil {
			return nil, fmt.Errorf("reading l1 fee scalar: %w", err)
		}
		info.Overhead = &overhead
		info.Scalar = &scalar
		return info, nil
	}

	info.BlobBaseFee = &blobBaseFee
	info.BaseFeeScalar = binary.BigEndian.Uint32(packed[scalarSectionStart : scalarSectionStart+4])
	info.BlobBaseFeeScalar = binary.BigEndian.Uint32(packed[scalarSectionStart+4 : scalarSectionStart+8])
	info.Ecotone = true
	return info, nil
}

// ParseL1BlockInfo extracts the attributes from the calldata of a block's
// attributes deposit. Both the Bedrock and the Ecotone layouts are
// understood; the selector decides which one applies, which also covers the
// first-Ecotone-block edge case where the deposit still uses the old form.
func ParseL1BlockInfo(rules *chain.Rules, data []byte) (*L1BlockInfo, error) {
	if rules.IsEcotone && len(data) >= 4 && !bytes.Equal(data[:4], BedrockL1AttributesSelector) {
		return parseL1BlockInfoEcotone(data)
	}
	return parseL1BlockInfoBedrock(data)
}

func parseL1BlockInfoBedrock(data []byte) (*L1BlockInfo, error) {
	// Selector followed by 8 ABI-encoded words; base fee is argument 2,
	// overhead argument 6, scalar argument 7.
	if len(data) < BedrockL1InfoBytes {
		return nil, fmt.Errorf("expected at least %d L1 info bytes, got %d", BedrockL1InfoBytes, len(data))
	}
	data = data[4:]
	return &L1BlockInfo{
		BaseFee:  new(uint256.Int).SetBytes(data[32*2 : 32*3]),
		Overhead: new(uint256.Int).SetBytes(data[32*6 : 32*7]),
		Scalar:   new(uint256.Int).SetBytes(data[32*7 : 32*8]),
	}, nil
}

func parseL1BlockInfoEcotone(data []byte) (*L1BlockInfo, error) {
	// Packed layout:
	// 0   selector
	// 4   uint32 baseFeeScalar
	// 8   uint32 blobBaseFeeScalar
	// 12  uint64 sequenceNumber
	// 20  uint64 timestamp
	// 28  uint64 l1BlockNumber
	// 36  uint256 baseFee
	// 68  uint256 blobBaseFee
	// 100 bytes32 hash
	// 132 bytes32 batcherHash
	if len(data) != EcotoneL1InfoBytes {
		return nil, fmt.Errorf("expected %d L1 info bytes, got %d", EcotoneL1InfoBytes, len(data))
	}
	return &L1BlockInfo{
		BaseFee:           new(uint256.Int).SetBytes(data[36:68]),
		BlobBaseFee:       new(uint256.Int).SetBytes(data[68:100]),
		BaseFeeScalar:     binary.BigEndian.Uint32(data[4:8]),
		BlobBaseFeeScalar: binary.BigEndian.Uint32(data[8:12]),
		Ecotone:           true,
	}, nil
}

// FeeScalar formats the pre-Ecotone scalar as a decimal fraction for
// receipts (legacy presentation, scalar/1e6).
func (info *L1BlockInfo) FeeScalar() *big.Float {
	fscalar := new(big.Float).SetInt(info.Scalar.ToBig())
	fdivisor := new(big.Float).SetUint64(1_000_000)
	return new(big.Float).Quo(fscalar, fdivisor)
}
