package resilience

import "time"

// FromMillis builds a RetryConfig from config-file values. A non-positive
// maxAttempts keeps the default; waitMs is the pause before each retry.
func FromMillis(maxAttempts, waitMs int, fixed bool) RetryConfig {
	wait := time.Duration(waitMs) * time.Millisecond
	if fixed {
		if maxAttempts <= 0 {
			maxAttempts = 1
		}
		return FixedRetry(maxAttempts, wait)
	}

	cfg := DefaultRetryConfig()
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	if wait > 0 {
		cfg.InitialBackoff = wait
	}
	return cfg
}
