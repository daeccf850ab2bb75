package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/railway-reservation/internal/model"
	"github.com/iliyamo/railway-reservation/internal/repository"
)

func TestAllocateProducesCanonicalPNRs(t *testing.T) {
	a := NewPNRAllocator()
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		pnr, err := a.Allocate(seen)
		require.NoError(t, err)
		assert.True(t, model.ValidPNR(pnr), pnr)
		seen[pnr] = struct{}{}
	}
	assert.Len(t, seen, 100)
}

func TestAllocateAvoidsExistingCodes(t *testing.T) {
	// Leave exactly one free code; allocation must find it.
	existing := make(map[string]struct{}, pnrSpace-1)
	for n := 0; n < pnrSpace; n++ {
		if n == 4242 {
			continue
		}
		existing[formatPNR(n)] = struct{}{}
	}
	a := NewPNRAllocator()
	pnr, err := a.Allocate(existing)
	require.NoError(t, err)
	assert.Equal(t, "PNR04242", pnr)
}

func TestAllocateFailsWhenNamespaceFull(t *testing.T) {
	existing := make(map[string]struct{}, pnrSpace)
	for n := 0; n < pnrSpace; n++ {
		existing[formatPNR(n)] = struct{}{}
	}
	a := NewPNRAllocator()
	_, err := a.Allocate(existing)
	assert.ErrorIs(t, err, repository.ErrDuplicatePNR)
}

func TestFormatPNRZeroPads(t *testing.T) {
	assert.Equal(t, "PNR00000", formatPNR(0))
	assert.Equal(t, "PNR00007", formatPNR(7))
	assert.Equal(t, "PNR99999", formatPNR(99999))
}
