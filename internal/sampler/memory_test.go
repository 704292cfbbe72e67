package sampler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstMemory(t *testing.T) {
	failing := MemorySourceFunc(func() (uint64, uint64, error) { return 0, 0, errors.New("boom") })
	empty := MemorySourceFunc(func() (uint64, uint64, error) { return 0, 0, nil })
	good := MemorySourceFunc(func() (uint64, uint64, error) { return 3 * mib, 8 * mib, nil })

	used, total, err := FirstMemory{failing, empty, good}.Memory()
	require.NoError(t, err)
	assert.Equal(t, uint64(3*mib), used)
	assert.Equal(t, uint64(8*mib), total)

	_, _, err = FirstMemory{failing}.Memory()
	assert.Error(t, err)

	_, _, err = FirstMemory{empty}.Memory()
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestToMiB(t *testing.T) {
	assert.Equal(t, uint64(0), toMiB(mib-1))
	assert.Equal(t, uint64(2048), toMiB(2*1024*mib))
}
