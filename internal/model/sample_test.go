package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDerived(t *testing.T) {
	m := Memory{UsedMB: 1024, TotalMB: 4096}
	assert.Equal(t, uint64(3072), m.FreeMB())
	assert.Equal(t, 25.0, m.Percent())

	assert.Zero(t, Memory{}.Percent())
	assert.Zero(t, Memory{UsedMB: 10, TotalMB: 5}.FreeMB())
}

func TestCPUSourceJSON(t *testing.T) {
	b, err := json.Marshal(CPU{UsagePercent: 70, Source: SourceProcess})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"source":"process"`)

	assert.True(t, CPU{Source: SourceSystem}.Available())
	assert.False(t, CPU{}.Available())
	assert.Equal(t, "unavailable", SourceUnavailable.String())
}
