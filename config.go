package twitterq

import (
	"net/http"
	"time"

	"github.com/anatolykoptev/go-stealth/ratelimit"
)

// Default API roots. Help resources still live on the v1.1 API; everything
// else is v2.
const (
	DefaultAPIRoot       = "https://api.twitter.com/2"
	DefaultLegacyAPIRoot = "https://api.twitter.com/1.1"
)

const defaultUserAgent = "go-twitterq/1"

// ClientConfig holds all configuration for the query client.
type ClientConfig struct {
	// Executor overrides the transport used to run queries. When nil, a
	// default HTTP executor is built from the fields below.
	Executor Executor

	// HTTPClient is used by the default executor. Pass NewOAuth1Client for
	// user-context auth. Default: a plain client with a 30s timeout.
	HTTPClient *http.Client

	// BearerToken enables app-only auth on the default executor. Required
	// unless HTTPClient signs requests itself or Executor is set.
	BearerToken string

	// UserAgent overrides the User-Agent header.
	UserAgent string

	// APIRoot is the v2 API root URL. Default: DefaultAPIRoot.
	APIRoot string

	// LegacyAPIRoot is the v1.1 API root URL used by help queries.
	// Default: DefaultLegacyAPIRoot.
	LegacyAPIRoot string

	// RateLimit configures the default executor's local per-endpoint
	// rate limiting.
	RateLimit ratelimit.Config

	// CircuitBreaker wraps the default executor in a circuit breaker that
	// opens after consecutive transport failures.
	CircuitBreaker bool

	// StreamReconnect makes Stream re-dial dropped connections with
	// exponential backoff instead of returning the transport error.
	StreamReconnect bool

	// StreamBackoffInitial is the initial reconnect backoff.
	StreamBackoffInitial time.Duration

	// StreamBackoffMax is the maximum reconnect backoff.
	StreamBackoffMax time.Duration

	// MetricsHook is called on each executed request for external metrics
	// collection. endpoint is the operation name, success and rateLimited
	// indicate the outcome.
	MetricsHook func(endpoint string, success, rateLimited bool)

	// PageInterval paces page fetches in FollowersAll and FollowingAll.
	PageInterval time.Duration
}

// defaults fills in zero-value config fields with sensible defaults.
func (cfg *ClientConfig) defaults() {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.APIRoot == "" {
		cfg.APIRoot = DefaultAPIRoot
	}
	if cfg.LegacyAPIRoot == "" {
		cfg.LegacyAPIRoot = DefaultLegacyAPIRoot
	}
	if cfg.RateLimit.RequestsPerWindow == 0 {
		cfg.RateLimit = ratelimit.DefaultConfig
	}
	if cfg.StreamBackoffInitial == 0 {
		cfg.StreamBackoffInitial = 5 * time.Second
	}
	if cfg.StreamBackoffMax == 0 {
		cfg.StreamBackoffMax = 5 * time.Minute
	}
	if cfg.PageInterval == 0 {
		cfg.PageInterval = time.Second
	}
}
