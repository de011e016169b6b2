package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the budget for one route. Path is an exact path, a "/prefix/",
// or a pattern with {name} segments. Burst defaults to Limit when zero.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int
	Window time.Duration
	Burst  int
}

// Default budgets. Bulk routes fan out over many contacts or records per request,
// so they get an hourly budget instead of a per-minute one.
const (
	defaultLimit        = 1000
	defaultBulkPerHour  = 10
	defaultWritesPerMin = 100
)

// LoadConfig reads RATE_LIMIT_* from the environment. Unparsable values fall back
// to the defaults.
func LoadConfig() *Config {
	if !envOr("RATE_LIMIT_ENABLED", true, strconv.ParseBool) {
		return &Config{Enabled: false}
	}

	bulk := envOr("RATE_LIMIT_BULK_PER_HOUR", defaultBulkPerHour, strconv.Atoi)
	return &Config{
		Enabled:         true,
		DefaultLimit:    envOr("RATE_LIMIT_DEFAULT_LIMIT", defaultLimit, strconv.Atoi),
		DefaultWindow:   envOr("RATE_LIMIT_DEFAULT_WINDOW", time.Minute, time.ParseDuration),
		CleanupInterval: envOr("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute, time.ParseDuration),
		IdleTTL:         envOr("RATE_LIMIT_IDLE_TTL", time.Hour, time.ParseDuration),
		Whitelist:       parseIPList(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: endpointConfigs(bulk),
	}
}

// DefaultEndpointConfigs returns the tracker's route budgets with the default bulk limit.
func DefaultEndpointConfigs() []EndpointConfig {
	return endpointConfigs(defaultBulkPerHour)
}

func endpointConfigs(bulkPerHour int) []EndpointConfig {
	bulkBurst := max(1, bulkPerHour/5)
	configs := []EndpointConfig{
		{Path: "/contacts/movements", Method: "POST", Limit: bulkPerHour, Window: time.Hour, Burst: bulkBurst},
		{Path: "/import", Method: "POST", Limit: bulkPerHour, Window: time.Hour, Burst: bulkBurst},
		{Path: "/follow-ups/{id}/send", Method: "POST", Limit: 60, Window: time.Hour, Burst: 10},
		{Path: "/jobs/import-email", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
	}

	// Writes on each collection. Reads fall through to the default limit and
	// /health is never limited.
	writes := []struct{ path, method string }{
		{"/jobs", "POST"}, {"/jobs/", "PUT"}, {"/jobs/", "DELETE"},
		{"/contacts", "POST"}, {"/contacts/", "POST"}, {"/contacts/", "PUT"}, {"/contacts/", "DELETE"},
		{"/follow-ups/", "POST"},
		{"/templates", "POST"}, {"/templates/", "POST"}, {"/templates/", "PUT"}, {"/templates/", "DELETE"},
	}
	for _, w := range writes {
		configs = append(configs, EndpointConfig{
			Path: w.path, Method: w.method, Limit: defaultWritesPerMin, Window: time.Minute, Burst: 10,
		})
	}
	return configs
}

// envOr parses key with parse, returning def when it is unset or invalid.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

// parseIPList turns "a, b,,c" into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
