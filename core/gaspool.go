package core

import "fmt"

// GasPool tracks the gas still available to transactions in one block. The
// pool starts at the header gas limit; unused gas is returned after each
// transaction.
type GasPool struct {
	gas uint64
}

func (gp *GasPool) AddGas(amount uint64) *GasPool {
	if gp.gas > maxUint64-amount {
		panic("gas pool pushed above uint64")
	}
	gp.gas += amount
	return gp
}

func (gp *GasPool) SubGas(amount uint64) error {
	if gp.gas < amount {
		return fmt.Errorf("%w: have %d, want %d", ErrGasLimitReached, gp.gas, amount)
	}
	gp.gas -= amount
	return nil
}

func (gp *GasPool) Gas() uint64 {
	return gp.gas
}

func (gp *GasPool) String() string {
	return fmt.Sprintf("%d", gp.gas)
}

const maxUint64 = 1<<64 - 1
