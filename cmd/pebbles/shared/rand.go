package shared

import (
	rand "math/rand/v2"

	"github.com/lox/pebbles/internal/randutil"
)

// NewRand returns a generator for seed, or a crypto-seeded one when seed is
// zero. The seed in use is returned for logging.
func NewRand(seed int64) (*rand.Rand, int64, error) {
	if seed != 0 {
		return randutil.New(seed), seed, nil
	}
	return randutil.NewCryptoSeeded()
}
