package points

// NewSeededRandom returns a deterministic stream of floats in [0, 1).
//
// It is a 32-bit linear congruential generator (Numerical Recipes constants)
// with the seed pre-mixed so that neighbouring seeds diverge on the first draw.
// Pure: two streams built from the same seed produce identical values.
func NewSeededRandom(seed uint32) func() float64 {
	state := seed*2654435761 + 0x9E3779B9
	state ^= state >> 16

	return func() float64 {
		state = state*1664525 + 1013904223
		return float64(state) / 4294967296.0
	}
}
