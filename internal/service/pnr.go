package service

import (
	"math/rand/v2"
	"sync"

	"github.com/iliyamo/railway-reservation/internal/repository"
)

// pnrSpace is the size of the reservation-code namespace (PNR00000 through
// PNR99999).
const pnrSpace = 100000

// pnrMaxAttempts bounds the collision-retry loop.  With the expected working
// set far below the namespace size, hitting this limit means the ledger is
// effectively full and allocation surfaces ErrDuplicatePNR as a transient
// failure instead of spinning.
const pnrMaxAttempts = 1 << 20

// PNRAllocator produces unique reservation codes of the fixed shape
// "PNR" followed by 5 zero-padded digits, drawn uniformly at random and
// retried until the candidate collides with nothing in the exclusion set.
type PNRAllocator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPNRAllocator returns an allocator backed by its own PCG source, so
// allocation does not contend on the global generator.
func NewPNRAllocator() *PNRAllocator {
	var seed [2]uint64
	seed[0] = rand.Uint64()
	seed[1] = rand.Uint64()
	return &PNRAllocator{rng: rand.New(rand.NewPCG(seed[0], seed[1]))}
}

// Allocate returns a code absent from existing.  Keys in existing must be
// upper-case canonical PNRs.  When the namespace is exhausted (or retries
// run out), repository.ErrDuplicatePNR is returned.
func (a *PNRAllocator) Allocate(existing map[string]struct{}) (string, error) {
	if len(existing) >= pnrSpace {
		return "", repository.ErrDuplicatePNR
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 0; i < pnrMaxAttempts; i++ {
		candidate := formatPNR(a.rng.IntN(pnrSpace))
		if _, taken := existing[candidate]; !taken {
			return candidate, nil
		}
	}
	return "", repository.ErrDuplicatePNR
}

func formatPNR(n int) string {
	digits := [5]byte{}
	for i := 4; i >= 0; i-- {
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return "PNR" + string(digits[:])
}
