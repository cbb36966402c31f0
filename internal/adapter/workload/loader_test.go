package workload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crabzie/coresched/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demo = `
name: demo
cores: 2
policy: psjf
quantum: 3
jobs:
  - {id: 0, arrival: 0, length: 8, priority: 1}
  - {id: 1, arrival: 1, length: 2, priority: 0}
`

func TestDecode(t *testing.T) {
	w, err := Decode(strings.NewReader(demo))
	require.NoError(t, err)
	assert.Equal(t, "demo", w.Name)
	assert.Equal(t, 2, w.Cores)
	assert.Equal(t, domain.PolicyPSJF, w.Policy)
	assert.Equal(t, 3, w.Quantum)
	assert.Equal(t, []domain.JobSpec{
		{ID: 0, Arrival: 0, Length: 8, Priority: 1},
		{ID: 1, Arrival: 1, Length: 2, Priority: 0},
	}, w.Jobs)
}

func TestDecodeErrors(t *testing.T) {
	tests := map[string]struct {
		input   string
		wantErr error
	}{
		"empty":          {input: "", wantErr: domain.ErrInvalidWorkload},
		"unknown key":    {input: "name: x\nthreads: 4\n", wantErr: domain.ErrInvalidWorkload},
		"malformed":      {input: "jobs: [", wantErr: domain.ErrInvalidWorkload},
		"unknown policy": {input: "policy: LOTTERY\n", wantErr: domain.ErrUnsupportedPolicy},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.input))
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "burst.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jobs:\n  - {id: 7, arrival: 2, length: 5}\n"), 0o600))

	w, err := Load(path, Defaults{Policy: domain.PolicyRR, Cores: 4, Quantum: 2})
	require.NoError(t, err)
	assert.Equal(t, "burst", w.Name)
	assert.Equal(t, domain.PolicyRR, w.Policy)
	assert.Equal(t, 4, w.Cores)
	assert.Equal(t, 2, w.Quantum)
	require.NoError(t, w.Validate(w.Policy))
}

func TestLoadKeepsFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(demo), 0o600))

	w, err := Load(path, Defaults{Policy: domain.PolicyFCFS, Cores: 1, Quantum: 1})
	require.NoError(t, err)
	assert.Equal(t, "demo", w.Name)
	assert.Equal(t, domain.PolicyPSJF, w.Policy)
	assert.Equal(t, 2, w.Cores)
	assert.Equal(t, 3, w.Quantum)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), Defaults{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
