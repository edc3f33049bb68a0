package app

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr          string
	LogLevel          string
	LogFormat         string
	UserAgent         string
	AddonID           string
	AddonName         string
	JackettHost       string
	JackettAPIKey     string
	OpenTimeout       time.Duration
	ReadTimeout       time.Duration
	MinimumSeeds      int
	MaximumResults    int
	ResponseTimeout   time.Duration
	DHTEnabled        bool
	ResolveWorkers    int
	SearchMaxParallel int
	CinemetaURL       string
	RedisURL          string
	MetaCacheTTL      time.Duration
	RateLimitRPS      int
	RateLimitBurst    int
}

// LoadConfig reads the environment, after merging an optional .env file from
// the working directory.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:          getEnv("HTTP_ADDR", ":7000"),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:         strings.ToLower(getEnv("LOG_FORMAT", "text")),
		UserAgent:         getEnv("SEARCH_USER_AGENT", "torrent-stream-addon/1.0"),
		AddonID:           getEnv("ADDON_ID", "org.stremio.jackett"),
		AddonName:         getEnv("ADDON_NAME", "Jackett"),
		JackettHost:       normalizeHost(getEnv("JACKETT_HOST", "")),
		JackettAPIKey:     strings.TrimSpace(os.Getenv("JACKETT_API_KEY")),
		OpenTimeout:       getEnvDurationMS("JACKETT_OPEN_TIMEOUT_MS", 10*time.Second),
		ReadTimeout:       getEnvDurationMS("JACKETT_READ_TIMEOUT_MS", 10*time.Second),
		MinimumSeeds:      getEnvInt("MINIMUM_SEEDS", 0),
		MaximumResults:    getEnvInt("MAXIMUM_RESULTS", 0),
		ResponseTimeout:   getEnvDurationMS("RESPONSE_TIMEOUT_MS", 0),
		DHTEnabled:        getEnvBool("DHT_ENABLED", true),
		ResolveWorkers:    getEnvInt("RESOLVE_WORKERS", 1),
		SearchMaxParallel: getEnvInt("SEARCH_MAX_PARALLEL", 0),
		CinemetaURL:       getEnv("CINEMETA_URL", "https://v3-cinemeta.strem.io"),
		RedisURL:          getEnv("REDIS_URL", ""),
		MetaCacheTTL:      time.Duration(getEnvInt("META_CACHE_TTL_HOURS", 24)) * time.Hour,
		RateLimitRPS:      getEnvInt("HTTP_RATE_LIMIT_RPS", 50),
		RateLimitBurst:    getEnvInt("HTTP_RATE_LIMIT_BURST", 100),
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.JackettHost == "" {
		errs = append(errs, errors.New("JACKETT_HOST is required"))
	}
	if c.JackettAPIKey == "" {
		errs = append(errs, errors.New("JACKETT_API_KEY is required"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func getEnvDurationMS(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(raw); err == nil && parsed >= 0 {
		return parsed
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms < 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func getEnvBool(key string, fallback bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func normalizeHost(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		value = "http://" + value
	}
	if !strings.HasSuffix(value, "/") {
		value += "/"
	}
	return value
}
