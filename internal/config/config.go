package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/brainsync/internal/domain"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Remote service
	APIURL          string        // ex: "http://localhost:8090"
	RequestTimeout  time.Duration // per-request deadline (default: 15s)
	RefreshInterval time.Duration // periodic refetch (default: 30s, 0 = disabled)
	SearchLimit     int           // results per search (default: 10)
	IncludeNSFW     bool          // sent with every search (default: false)
	TagsLimit       int           // tags returned by /api/stats/tags (default: 20)

	// Initial listing filters, only settable from the config file.
	DefaultFilters domain.Filters

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	CORSOrigins  []string // optional, empty = CORS disabled

	// Mutation rate limit (token bucket per client IP)
	RateBurst     int // ex: 20
	RatePerMinute int // ex: 60

	ConfigFile string // optional YAML overlay, env values win
	EnvFile    string // dotenv file loaded before reading BRAIN_* (default: .env)
}

// File is the optional YAML overlay. Every field is optional; the matching
// BRAIN_* variable, when set, takes precedence.
type File struct {
	APIURL          string         `yaml:"api_url"`
	RequestTimeout  string         `yaml:"request_timeout"`
	RefreshInterval string         `yaml:"refresh_interval"`
	Filters         domain.Filters `yaml:"filters"`
	Search          struct {
		Limit       int   `yaml:"limit"`
		IncludeNSFW *bool `yaml:"include_nsfw"`
	} `yaml:"search"`
	TagsLimit   int      `yaml:"tags_limit"`
	CORSOrigins []string `yaml:"cors_origins"`
}

func Load() *Config {
	envFile := getenv("BRAIN_ENV_FILE", ".env")
	if err := loadEnvFile(envFile); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	path := getenv("BRAIN_CONFIG_FILE", "")
	var file File
	if path != "" {
		f, err := LoadFile(path)
		if err != nil {
			panic(fmt.Sprintf("❌ FATAL: %v", err))
		}
		file = f
	}

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("BRAIN_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("BRAIN_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("BRAIN_LOG_LEVEL", "info"),
		PrettyLog: mustBool("BRAIN_PRETTY_LOG", true),

		// Remote service
		APIURL:          requireEnvOr("BRAIN_API_URL", file.APIURL),
		RequestTimeout:  mustDuration("BRAIN_REQUEST_TIMEOUT", fileDuration(file.RequestTimeout, 15*time.Second)),
		RefreshInterval: mustDuration("BRAIN_REFRESH_INTERVAL", fileDuration(file.RefreshInterval, 30*time.Second)),
		SearchLimit:     getenvInt("BRAIN_SEARCH_LIMIT", orInt(file.Search.Limit, 10)),
		IncludeNSFW:     mustBool("BRAIN_INCLUDE_NSFW", file.Search.IncludeNSFW != nil && *file.Search.IncludeNSFW),
		TagsLimit:       getenvInt("BRAIN_TAGS_LIMIT", orInt(file.TagsLimit, 20)),
		DefaultFilters:  file.Filters.Clone(),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("BRAIN_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("BRAIN_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("BRAIN_TRUST_PROXY", false),
		CORSOrigins:  orSlice(splitAndTrim(getenv("BRAIN_CORS_ORIGINS", "")), file.CORSOrigins),

		RateBurst:     getenvInt("BRAIN_RATE_BURST", 20),
		RatePerMinute: getenvInt("BRAIN_RATE_PER_MIN", 60),

		ConfigFile: path,
		EnvFile:    envFile,
	}

	if cfg.SearchLimit <= 0 {
		panic(fmt.Sprintf("❌ FATAL: BRAIN_SEARCH_LIMIT must be positive, got %d", cfg.SearchLimit))
	}
	if cfg.RateBurst <= 0 || cfg.RatePerMinute <= 0 {
		panic("❌ FATAL: BRAIN_RATE_BURST and BRAIN_RATE_PER_MIN must be positive")
	}
	// The listing honors the NSFW switch unless the file says otherwise.
	if !cfg.DefaultFilters.IncludeNSFW {
		cfg.DefaultFilters.IncludeNSFW = cfg.IncludeNSFW
	}

	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", *cfg)
	}

	return cfg
}

// LoadFile parses a YAML overlay.
func LoadFile(path string) (File, error) {
	var f File
	raw, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return f, nil
}

// loadEnvFile fills unset variables from a dotenv file. Variables already
// present in the environment are never overridden. A missing file is fine.
func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load env file %s: %w", path, err)
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

// requireEnvOr is requireEnv with a fallback taken from the config file.
func requireEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if fallback != "" {
		return fallback
	}
	return requireEnv(key)
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func fileDuration(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func orInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

func orSlice(v, def []string) []string {
	if len(v) > 0 {
		return v
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
