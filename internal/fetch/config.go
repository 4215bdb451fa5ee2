package fetch

import "time"

// Default configuration values.
const (
	defaultMinHostInterval = 3 * time.Second
	defaultRequestTimeout  = 30 * time.Second
	defaultMaxAttempts     = 3
	defaultBackoffBase     = 2 * time.Second
	defaultBackoffCap      = 30 * time.Second
	defaultMaxBodyBytes    = 5 * 1024 * 1024 // 5 MB
)

// defaultUserAgents is the rotation pool used when none is configured.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// Config holds fetcher configuration.
type Config struct {
	// MinHostInterval is the minimum time between request starts against
	// one host, enforced globally across all workers and sources.
	MinHostInterval time.Duration `mapstructure:"min_host_interval"`
	// RequestTimeout bounds a single HTTP request.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// MaxAttempts bounds retries of transient failures.
	MaxAttempts int `mapstructure:"max_attempts"`
	// BackoffBase is the first retry delay; it doubles per attempt up to
	// BackoffCap.
	BackoffBase time.Duration `mapstructure:"backoff_base"`
	BackoffCap  time.Duration `mapstructure:"backoff_cap"`
	// MaxBodyBytes caps the response body. Larger bodies are truncated and
	// flagged, never dropped.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
	// UserAgents is the rotation pool for the User-Agent header.
	UserAgents []string `mapstructure:"user_agents"`
}

// WithDefaults returns a copy with defaults applied to zero-value fields.
func (c Config) WithDefaults() Config {
	if c.MinHostInterval <= 0 {
		c.MinHostInterval = defaultMinHostInterval
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = defaultBackoffBase
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = defaultBackoffCap
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	if len(c.UserAgents) == 0 {
		c.UserAgents = defaultUserAgents
	}
	return c
}
