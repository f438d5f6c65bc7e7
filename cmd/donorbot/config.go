package main

import "time"

type ScrapeConfig struct {
	// ForumUrl is the first page of the donation report thread.
	ForumUrl string `json:"forum_url"`
	// FetchTimeout bounds each fetch attempt. Default 30s.
	FetchTimeoutSeconds int `json:"fetch_timeout_seconds"`
	// MaxRetries per page. Default 3.
	MaxRetries int `json:"max_retries"`
	// RetryBackoffSeconds is the linear backoff unit. Default 2.
	RetryBackoffSeconds int `json:"retry_backoff_seconds"`
	// RequestDelaySeconds throttles successive fetches. Default 1.
	RequestDelaySeconds int `json:"request_delay_seconds"`
	// OffsetParam is the pagination query parameter. Default "start".
	OffsetParam string `json:"offset_param"`
	// PageSize is posts per forum page. Default 20.
	PageSize int `json:"page_size"`
	// CacheTtlMinutes is the record cache lifetime. Default 10.
	CacheTtlMinutes int `json:"cache_ttl_minutes"`
	// MaxPages caps pages per cycle; 0 means no cap.
	MaxPages int `json:"max_pages"`
	// ParallelFetch scrapes pages concurrently instead of the default
	// sequential-with-delay mode.
	ParallelFetch bool `json:"parallel_fetch"`
}

type ReportsConfig struct {
	// TmpDir holds generated xlsx files. Default <os tmp>/donorbot.
	TmpDir string `json:"tmp_dir"`
	// CleanupMaxAgeMinutes is how old a report may get before the
	// janitor removes it. Default 60.
	CleanupMaxAgeMinutes int `json:"cleanup_max_age_minutes"`
	// CleanupSpec is the janitor cron spec. Default "@every 15m".
	CleanupSpec string `json:"cleanup_spec"`
}

type Config struct {
	Telegram struct {
		Token string `json:"token"`
	} `json:"telegram"`
	Scrape  ScrapeConfig  `json:"scrape"`
	Reports ReportsConfig `json:"reports"`
}

func (c ScrapeConfig) fetchTimeout() time.Duration {
	if c.FetchTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func (c ScrapeConfig) retryBackoff() time.Duration {
	if c.RetryBackoffSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.RetryBackoffSeconds) * time.Second
}

func (c ScrapeConfig) requestDelay() time.Duration {
	if c.RequestDelaySeconds <= 0 {
		return time.Second
	}
	return time.Duration(c.RequestDelaySeconds) * time.Second
}

func (c ScrapeConfig) cacheTtl() time.Duration {
	if c.CacheTtlMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.CacheTtlMinutes) * time.Minute
}

func (c ReportsConfig) cleanupMaxAge() time.Duration {
	if c.CleanupMaxAgeMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.CleanupMaxAgeMinutes) * time.Minute
}

func (c ReportsConfig) cleanupSpec() string {
	if c.CleanupSpec == "" {
		return "@every 15m"
	}
	return c.CleanupSpec
}
