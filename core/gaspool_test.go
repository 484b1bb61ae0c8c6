package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGasPool(t *testing.T) {
	gp := new(GasPool).AddGas(30_000_000)
	assert.Equal(t, uint64(30_000_000), gp.Gas())

	require.NoError(t, gp.SubGas(21_000))
	assert.Equal(t, uint64(29_979_000), gp.Gas())

	err := gp.SubGas(30_000_000)
	require.ErrorIs(t, err, ErrGasLimitReached)
	assert.Equal(t, uint64(29_979_000), gp.Gas(), "failed SubGas must not change the pool")

	gp.AddGas(21_000)
	assert.Equal(t, uint64(30_000_000), gp.Gas())
}
