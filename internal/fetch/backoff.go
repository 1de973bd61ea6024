package fetch

import "time"

// Backoff returns the capped exponential delay before retry attempt n
// (0-based): base, 2*base, 4*base, ... never exceeding max.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if max > 0 && d > max {
		return max
	}
	return d
}
