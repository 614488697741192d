package transport

import (
	"math/rand"
	"time"
)

// Jitter returns a uniformly random duration in [min, max].
func Jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)+1))
}

// Pause sleeps for a uniformly random duration in [min, max]. It is a
// politeness measure between remote interactions, not a correctness mechanism.
func Pause(min, max time.Duration) {
	time.Sleep(Jitter(min, max))
}
