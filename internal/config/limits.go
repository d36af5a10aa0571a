package config

import "time"

type Limits struct {
	MaxRetries        int             `yaml:"max_retries" validate:"min=0,max=10"`
	SocialConcurrency int             `yaml:"social_concurrency" validate:"required,min=1,max=10"`
	ProgressInterval  time.Duration   `yaml:"progress_interval" validate:"min=0,max=10s"`
	TextRateLimit     RateLimitConfig `yaml:"text_rate_limit" validate:"required"`
	MediaRateLimit    RateLimitConfig `yaml:"media_rate_limit" validate:"required"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" validate:"required,min=1,max=1000"`
	BurstSize         int `yaml:"burst_size" validate:"required,min=1,max=100"`
}

func DefaultLimits() Limits {
	return Limits{
		MaxRetries:        3,
		SocialConcurrency: 3,
		TextRateLimit: RateLimitConfig{
			RequestsPerMinute: 30,
			BurstSize:         5,
		},
		// One media request per second on average, matching the provider's
		// free-tier spacing.
		MediaRateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         2,
		},
	}
}
