package core

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opstackgo/opexec/chain"
	"github.com/opstackgo/opexec/core/state"
	"github.com/opstackgo/opexec/core/vm"
	"github.com/opstackgo/opexec/opstack"
	"github.com/opstackgo/opexec/types"
)

var (
	testKey, _   = crypto.HexToECDSA("b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291")
	testAddr     = crypto.PubkeyToAddress(testKey.PublicKey)
	testCoinbase = common.HexToAddress("0x4200000000000000000000000000000000000011")
	depositFrom  = common.HexToAddress("0xdddddddddddddddddddddddddddddddddddddddd")
	callTarget   = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
)

// stubInterpreter is a deterministic interpreter stand-in: it burns a fixed
// amount of gas and ends with a fixed status, or defers to onCall.
type stubInterpreter struct {
	gasUsed uint64
	status  vm.Status
	err     error
	calls   int
	onCall  func(ctx *vm.BlockContext, msg types.Message, st vm.StateDB) (*vm.ExecutionResult, error)
}

func (s *stubInterpreter) Call(ctx *vm.BlockContext, msg types.Message, st vm.StateDB) (*vm.ExecutionResult, error) {
	s.calls++
	if s.onCall != nil {
		return s.onCall(ctx, msg, st)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &vm.ExecutionResult{Status: s.status, GasUsed: s.gasUsed}, nil
}

func bedrockConfig() *chain.Config {
	return &chain.Config{
		ChainName:    "bedrock-test",
		ChainID:      big.NewInt(901),
		BedrockBlock: big.NewInt(0),
	}
}

func regolithConfig() *chain.Config {
	c := bedrockConfig()
	c.ChainName = "regolith-test"
	c.RegolithTime = big.NewInt(0)
	return c
}

func ecotoneConfig() *chain.Config {
	c := regolithConfig()
	c.ChainName = "ecotone-test"
	c.CanyonTime = big.NewInt(0)
	c.DeltaTime = big.NewInt(0)
	c.EcotoneTime = big.NewInt(0)
	return c
}

func testHeader(gasLimit uint64) *types.Header {
	return &types.Header{
		Coinbase: testCoinbase,
		Number:   big.NewInt(100),
		GasLimit: gasLimit,
		Time:     1_700_000_000,
		BaseFee:  big.NewInt(1000),
	}
}

func ecotoneHeader(gasLimit uint64) *types.Header {
	h := testHeader(gasLimit)
	excess := uint64(0)
	h.ExcessBlobGas = &excess
	return h
}

// bedrockAttributes seeds the L1Block predeploy with pre-Ecotone fee
// attributes.
func bedrockAttributes(mem *state.MemoryState, l1BaseFee, overhead, scalar uint64) {
	mem.SetStorage(opstack.L1BlockAddr, opstack.L1BaseFeeSlot, *uint256.NewInt(l1BaseFee))
	mem.SetStorage(opstack.L1BlockAddr, opstack.OverheadSlot, *uint256.NewInt(overhead))
	mem.SetStorage(opstack.L1BlockAddr, opstack.ScalarSlot, *uint256.NewInt(scalar))
}

func signedLegacyTx(t *testing.T, config *chain.Config, nonce uint64, gasLimit uint64, gasPrice uint64, data []byte) types.Transaction {
	t.Helper()
	txn := types.NewLegacyTx(nonce, &callTarget, uint256.NewInt(0), gasLimit, uint256.NewInt(gasPrice), data)
	signed, err := types.SignTx(txn, types.LatestSigner(config), testKey)
	require.NoError(t, err)
	return signed
}

func depositTx(gasLimit uint64, mint uint64, isSystem bool) *types.DepositTx {
	return &types.DepositTx{
		CommonTx: types.CommonTx{
			To:       &callTarget,
			GasLimit: gasLimit,
			Value:    uint256.NewInt(0),
		},
		SourceHash:          common.HexToHash("0x01"),
		From:                depositFrom,
		Mint:                uint256.NewInt(mint),
		IsSystemTransaction: isSystem,
	}
}

func TestStandardTxFeeSettlement(t *testing.T) {
	config := regolithConfig()
	mem := state.NewMemoryState()
	mem.SetAccount(testAddr, 0, uint256.NewInt(1_000_000_000_000))
	bedrockAttributes(mem, 1000, 2100, 1_000_000)

	data := make([]byte, 100)
	for i := range data {
		data[i] = 0xff
	}
	txn := signedLegacyTx(t, config, 0, 50_000, 1500, data)
	interp := &stubInterpreter{gasUsed: 21_000}

	outcome, err := ExecuteBlock(config, mem, interp, testHeader(30_000_000), []types.Transaction{txn})
	require.NoError(t, err)
	require.Len(t, outcome.Receipts, 1)
	receipt := outcome.Receipts[0]

	costData := txn.RollupCostData()
	expectedL1Fee := opstack.L1CostBedrock(
		costData.Zeroes*types.TxDataZeroGas+costData.Ones*types.TxDataNonZeroGas,
		uint256.NewInt(1000), uint256.NewInt(2100), uint256.NewInt(1_000_000))

	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	assert.Equal(t, uint64(21_000), receipt.GasUsed)
	assert.Equal(t, expectedL1Fee.ToBig(), receipt.L1Fee)
	assert.Equal(t, "1.000000", receipt.FeeScalar.Text('f', 6))
	assert.Nil(t, receipt.DepositNonce)
	assert.Nil(t, receipt.DepositReceiptVersion)

	diff := outcome.Diff
	// Base fee portion to the vault, tip to the sequencer.
	baseFeeVault := diff.Accounts[BaseFeeVault]
	coinbase := diff.Accounts[testCoinbase]
	l1Vault := diff.Accounts[L1FeeVault]
	assert.Equal(t, uint64(21_000*1000), baseFeeVault.Balance.Uint64())
	assert.Equal(t, uint64(21_000*500), coinbase.Balance.Uint64())
	assert.Equal(t, expectedL1Fee.Uint64(), l1Vault.Balance.Uint64())

	sender := diff.Accounts[testAddr]
	assert.Equal(t, uint64(1), sender.Nonce)
	spent := uint64(21_000*1500) + expectedL1Fee.Uint64()
	assert.Equal(t, 1_000_000_000_000-spent, sender.Balance.Uint64())
}

func TestNonceMismatch(t *testing.T) {
	config := regolithConfig()
	interp := &stubInterpreter{gasUsed: 21_000}

	t.Run("too high", func(t *testing.T) {
		mem := state.NewMemoryState()
		mem.SetAccount(testAddr, 0, uint256.NewInt(1_000_000_000_000))
		txn := signedLegacyTx(t, config, 5, 50_000, 1500, nil)
		_, err := ExecuteBlock(config, mem, interp, testHeader(30_000_000), []types.Transaction{txn})
		require.ErrorIs(t, err, ErrNonceTooHigh)
	})

	t.Run("too low", func(t *testing.T) {
		mem := state.NewMemoryState()
		mem.SetAccount(testAddr, 3, uint256.NewInt(1_000_000_000_000))
		txn := signedLegacyTx(t, config, 2, 50_000, 1500, nil)
		_, err := ExecuteBlock(config, mem, interp, testHeader(30_000_000), []types.Transaction{txn})
		require.ErrorIs(t, err, ErrNonceTooLow)
	})
}

func TestInsufficientFundsFatal(t *testing.T) {
	config := regolithConfig()
	mem := state.NewMemoryState()
	mem.SetAccount(testAddr, 0, uint256.NewInt(1000))

	txn := signedLegacyTx(t, config, 0, 50_000, 1500, nil)
	_, err := ExecuteBlock(config, mem, interp21k(), testHeader(30_000_000), []types.Transaction{txn})
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestGasPoolViolationFatal(t *testing.T) {
	config := regolithConfig()
	mem := state.NewMemoryState()
	mem.SetAccount(testAddr, 0, uint256.NewInt(1_000_000_000_000))

	txn := signedLegacyTx(t, config, 0, 50_000, 1500, nil)
	_, err := ExecuteBlock(config, mem, interp21k(), testHeader(40_000), []types.Transaction{txn, txn})
	require.ErrorIs(t, err, ErrGasLimitReached)
}

func TestGasUsedOverflowFatal(t *testing.T) {
	config := regolithConfig()
	mem := state.NewMemoryState()
	mem.SetAccount(testAddr, 0, uint256.NewInt(1_000_000_000_000))

	txn := signedLegacyTx(t, config, 0, 21_000, 1500, nil)
	interp := &stubInterpreter{gasUsed: 22_000}
	_, err := ExecuteBlock(config, mem, interp, testHeader(30_000_000), []types.Transaction{txn})
	require.ErrorIs(t, err, ErrGasUsedOverflow)
}

func TestRevertedCallKeepsFeesAndNonce(t *testing.T) {
	config := regolithConfig()
	mem := state.NewMemoryState()
	mem.SetAccount(testAddr, 0, uint256.NewInt(1_000_000_000_000))

	slot := common.HexToHash("0x07")
	interp := &stubInterpreter{
		onCall: func(ctx *vm.BlockContext, msg types.Message, st vm.StateDB) (*vm.ExecutionResult, error) {
			// Writes of a reverting call must not reach the diff.
			if err := st.SetState(callTarget, &slot, *uint256.NewInt(1)); err != nil {
				return nil, err
			}
			return &vm.ExecutionResult{Status: vm.StatusRevert, GasUsed: 30_000}, nil
		},
	}

	txn := signedLegacyTx(t, config, 0, 50_000, 1500, nil)
	outcome, err := ExecuteBlock(config, mem, interp, testHeader(30_000_000), []types.Transaction{txn})
	require.NoError(t, err)

	receipt := outcome.Receipts[0]
	assert.Equal(t, types.ReceiptStatusFailed, receipt.Status)
	assert.Equal(t, uint64(30_000), receipt.GasUsed)

	diff := outcome.Diff
	_, touched := diff.Accounts[callTarget]
	assert.False(t, touched)
	sender := diff.Accounts[testAddr]
	assert.Equal(t, uint64(1), sender.Nonce)
	// Gas for the used portion is kept, the rest refunded.
	spent := uint64(30_000 * 1500)
	assert.Equal(t, 1_000_000_000_000-spent, sender.Balance.Uint64())
}

func TestDepositRegolithFailure(t *testing.T) {
	config := regolithConfig()
	mem := state.NewMemoryState()

	interp := &stubInterpreter{status: vm.StatusHalt, gasUsed: 10_000}
	txn := depositTx(100_000, 5555, false)

	outcome, err := ExecuteBlock(config, mem, interp, testHeader(30_000_000), []types.Transaction{txn})
	require.NoError(t, err, "a failed deposit must not invalidate the block")

	receipt := outcome.Receipts[0]
	assert.Equal(t, types.ReceiptStatusFailed, receipt.Status)
	// Regolith burns the full gas limit of a failed deposit.
	assert.Equal(t, uint64(100_000), receipt.GasUsed)
	require.NotNil(t, receipt.DepositNonce)
	assert.Equal(t, uint64(0), *receipt.DepositNonce)
	assert.Nil(t, receipt.DepositReceiptVersion)
	assert.Nil(t, receipt.L1Fee)

	sender := outcome.Diff.Accounts[depositFrom]
	assert.Equal(t, uint64(5555), sender.Balance.Uint64(), "mint survives the failed call")
	assert.Equal(t, uint64(1), sender.Nonce, "nonce is consumed from Regolith on")
}

func TestDepositPreRegolithFailure(t *testing.T) {
	config := bedrockConfig()
	mem := state.NewMemoryState()

	interp := &stubInterpreter{status: vm.StatusRevert, gasUsed: 10_000}
	txn := depositTx(100_000, 5555, false)

	outcome, err := ExecuteBlock(config, mem, interp, testHeader(30_000_000), []types.Transaction{txn})
	require.NoError(t, err)

	receipt := outcome.Receipts[0]
	assert.Equal(t, types.ReceiptStatusFailed, receipt.Status)
	// Bedrock records non-system deposits at their full gas limit.
	assert.Equal(t, uint64(100_000), receipt.GasUsed)
	assert.Nil(t, receipt.DepositNonce)

	sender := outcome.Diff.Accounts[depositFrom]
	assert.Equal(t, uint64(5555), sender.Balance.Uint64())
	assert.Equal(t, uint64(0), sender.Nonce, "no nonce bump before Regolith")
}

func TestDepositPreRegolithReportsFullGas(t *testing.T) {
	config := bedrockConfig()
	mem := state.NewMemoryState()

	// Success and failure alike: the receipt carries the gas limit, not the
	// interpreter's figure.
	txn := depositTx(100_000, 0, false)
	outcome, err := ExecuteBlock(config, mem, &stubInterpreter{gasUsed: 30_000}, testHeader(30_000_000), []types.Transaction{txn})
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, outcome.Receipts[0].Status)
	assert.Equal(t, uint64(100_000), outcome.Receipts[0].GasUsed)
}

func TestFailedSystemDepositKeepsBlockValid(t *testing.T) {
	config := regolithConfig()
	mem := state.NewMemoryState()

	interp := &stubInterpreter{status: vm.StatusHalt}
	txn := depositTx(1_000_000, 42, true)

	outcome, err := ExecuteBlock(config, mem, interp, testHeader(30_000_000), []types.Transaction{txn})
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusFailed, outcome.Receipts[0].Status)
	sender := outcome.Diff.Accounts[depositFrom]
	assert.Equal(t, uint64(42), sender.Balance.Uint64())
}

func TestSystemDepositPreRegolithUsesNoGas(t *testing.T) {
	config := bedrockConfig()
	mem := state.NewMemoryState()

	interp := &stubInterpreter{gasUsed: 50_000}
	txn := depositTx(1_000_000, 0, true)

	outcome, err := ExecuteBlock(config, mem, interp, testHeader(30_000_000), []types.Transaction{txn})
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, outcome.Receipts[0].Status)
	assert.Equal(t, uint64(0), outcome.Receipts[0].GasUsed)
}

func TestDepositCanyonReceiptVersion(t *testing.T) {
	config := ecotoneConfig()
	mem := state.NewMemoryState()

	txn := depositTx(100_000, 0, false)
	outcome, err := ExecuteBlock(config, mem, &stubInterpreter{gasUsed: 30_000}, ecotoneHeader(30_000_000), []types.Transaction{txn})
	require.NoError(t, err)

	receipt := outcome.Receipts[0]
	require.NotNil(t, receipt.DepositReceiptVersion)
	assert.Equal(t, uint64(1), *receipt.DepositReceiptVersion)
}

func TestDepositInterpreterErrorStaysLocal(t *testing.T) {
	config := regolithConfig()
	mem := state.NewMemoryState()

	interp := &stubInterpreter{err: assert.AnError}
	txn := depositTx(100_000, 777, false)

	outcome, err := ExecuteBlock(config, mem, interp, testHeader(30_000_000), []types.Transaction{txn})
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusFailed, outcome.Receipts[0].Status)
	sender := outcome.Diff.Accounts[depositFrom]
	assert.Equal(t, uint64(777), sender.Balance.Uint64())
}

func TestStandardTxInterpreterErrorFatal(t *testing.T) {
	config := regolithConfig()
	mem := state.NewMemoryState()
	mem.SetAccount(testAddr, 0, uint256.NewInt(1_000_000_000_000))

	txn := signedLegacyTx(t, config, 0, 50_000, 1500, nil)
	_, err := ExecuteBlock(config, mem, &stubInterpreter{err: assert.AnError}, testHeader(30_000_000), []types.Transaction{txn})
	require.ErrorIs(t, err, ErrInternalFailure)
}

func TestFeeCapBelowBaseFeeFatal(t *testing.T) {
	config := regolithConfig()
	mem := state.NewMemoryState()
	mem.SetAccount(testAddr, 0, uint256.NewInt(1_000_000_000_000))

	// Gas price 500 under a 1000 base fee: executing this would credit the
	// base fee vault more than the sender pays.
	txn := signedLegacyTx(t, config, 0, 50_000, 500, nil)
	_, err := ExecuteBlock(config, mem, interp21k(), testHeader(30_000_000), []types.Transaction{txn})
	require.ErrorIs(t, err, ErrFeeCapTooLow)
}

func TestTipAboveFeeCapFatal(t *testing.T) {
	config := regolithConfig()
	mem := state.NewMemoryState()
	mem.SetAccount(testAddr, 0, uint256.NewInt(1_000_000_000_000))

	signer := types.LatestSigner(config)
	txn := &types.DynamicFeeTx{
		CommonTx: types.CommonTx{Nonce: 0, GasLimit: 50_000, To: &callTarget, Value: uint256.NewInt(0)},
		ChainID:  signer.ChainID(),
		TipCap:   uint256.NewInt(2000),
		FeeCap:   uint256.NewInt(1500),
	}
	_, err := types.SignTx(txn, signer, testKey)
	require.NoError(t, err)

	_, err = ExecuteBlock(config, mem, interp21k(), testHeader(30_000_000), []types.Transaction{txn})
	require.ErrorIs(t, err, ErrTipAboveFeeCap)
}

func interp21k() *stubInterpreter {
	return &stubInterpreter{gasUsed: 21_000}
}
