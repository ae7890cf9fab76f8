// Package dice provides the core randomness abstraction for the dynasty
// simulation engines. All probabilistic rules draw through a Source so a
// seeded simulation replays identically.
package dice

// Source is the randomness provider for all engine rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Chance reports whether a roll succeeds with the given percent probability.
//
// Precondition: src must be non-nil.
// Postcondition: percent <= 0 always returns false; percent >= 100 always returns true.
func Chance(src Source, percent int) bool {
	if percent <= 0 {
		return false
	}
	if percent >= 100 {
		return true
	}
	return src.Intn(100) < percent
}

// ChancePermille reports whether a roll succeeds with the given per-thousand
// probability. Used for rules tuned finer than whole percents.
//
// Precondition: src must be non-nil.
func ChancePermille(src Source, permille int) bool {
	if permille <= 0 {
		return false
	}
	if permille >= 1000 {
		return true
	}
	return src.Intn(1000) < permille
}

// Between returns a uniform random int in [lo, hi] inclusive.
//
// Precondition: lo <= hi.
func Between(src Source, lo, hi int) int {
	if lo > hi {
		panic("dice: Between called with lo > hi")
	}
	if lo == hi {
		return lo
	}
	return lo + src.Intn(hi-lo+1)
}

// Jitter returns a small random float in [0, max), used to break ties in
// otherwise symmetric power computations.
//
// Precondition: max > 0.
func Jitter(src Source, max float64) float64 {
	return float64(src.Intn(1000)) / 1000.0 * max
}
