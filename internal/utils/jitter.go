package utils

import (
	"math/rand/v2"
	"time"
)

// Jitter returns a random whole number of seconds in [1s, max], so keys written
// together do not expire together. It returns 0 when max is under a second.
func Jitter(max time.Duration) time.Duration {
	secs := int64(max / time.Second)
	if secs < 1 {
		return 0
	}
	return time.Duration(1+rand.Int64N(secs)) * time.Second
}
