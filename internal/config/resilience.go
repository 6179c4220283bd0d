package config

import (
	"time"

	"touch_daily/internal/retry"
)

type ResilienceConfig struct {
	// APIRequest wraps a single TouchExpress call for one (date, store) pair.
	// Exhausting it means the pair is skipped, never the whole run.
	APIRequest   retry.Config
	SheetPush    retry.Config
	DriveUpload  retry.Config
	Notification retry.Config
}

var DefaultResilienceConfig = ResilienceConfig{
	APIRequest: retry.Config{
		MaxRetries: 2,
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
		Timeout:    45 * time.Second,
	},
	SheetPush: retry.Config{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   30 * time.Second,
		Timeout:    2 * time.Minute,
	},
	DriveUpload: retry.Config{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   30 * time.Second,
		Timeout:    5 * time.Minute,
	},
	Notification: retry.Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
		Timeout:    10 * time.Second,
	},
}

// WithAPITimeout returns the default profile with the per-request timeout
// replaced, as configured by TOUCH_TIMEOUT.
func WithAPITimeout(timeout time.Duration) ResilienceConfig {
	cfg := DefaultResilienceConfig
	if timeout > 0 {
		cfg.APIRequest.Timeout = timeout
	}
	return cfg
}
