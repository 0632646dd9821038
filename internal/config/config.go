package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/youruser/matchboard/internal/constants"
)

type Config struct {
	ServerPort string
	DBPath     string
	LogLevel   string

	// RelayURL is empty when the relay rewrite is switched off.
	RelayURL     string
	ProxyHosts   []string
	FetchTimeout time.Duration
	LogoCacheTTL time.Duration
	// LogoCacheSize bounds the decoded logo memo; 0 disables it.
	LogoCacheSize int
	// AllowPrivateFetch lets logo and background URLs resolve to loopback,
	// private or link-local addresses.
	AllowPrivateFetch bool

	DefaultTitle      string
	DefaultBackground string
	AssetsDir         string
	FontRegular       string
	FontBold          string

	PandaScoreAPIKey string
	PandaScoreGame   string
	Location         *time.Location
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}
	return FromEnv(logger)
}

// FromEnv builds a Config from the process environment only.
func FromEnv(logger zerolog.Logger) (*Config, error) {
	cfg := &Config{
		ServerPort:        getEnv("PORT", constants.DefaultPort),
		DBPath:            getEnv("DB_PATH", "matchboard.db"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		RelayURL:          getEnv("RELAY_URL", "https://corsproxy.io/"),
		ProxyHosts:        splitList(getEnv("PROXY_HOSTS", "cdn.pandascore.co")),
		DefaultTitle:      getEnv("DEFAULT_TITLE", constants.DefaultTitle),
		DefaultBackground: getEnv("DEFAULT_BACKGROUND", ""),
		AssetsDir:         getEnv("ASSETS_DIR", "assets"),
		FontRegular:       getEnv("FONT_REGULAR", ""),
		FontBold:          getEnv("FONT_BOLD", ""),
		PandaScoreAPIKey:  getEnv("PANDASCORE_API_KEY", ""),
		PandaScoreGame:    getEnv("PANDASCORE_GAME", "csgo"),
	}
	if strings.EqualFold(cfg.RelayURL, "off") {
		cfg.RelayURL = ""
	}

	var err error
	if cfg.FetchTimeout, err = getDuration("FETCH_TIMEOUT", constants.FetchTimeout); err != nil {
		return nil, err
	}
	if cfg.LogoCacheTTL, err = getDuration("LOGO_CACHE_TTL", constants.LogoCacheTTL); err != nil {
		return nil, err
	}
	if cfg.LogoCacheSize, err = getInt("LOGO_CACHE_SIZE", constants.LogoCacheSize); err != nil {
		return nil, err
	}
	if cfg.AllowPrivateFetch, err = getBool("ALLOW_PRIVATE_FETCH", false); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout <= 0 {
		return nil, fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", cfg.FetchTimeout)
	}

	tz := getEnv("TIMEZONE", "Local")
	cfg.Location, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("relay_url", cfg.RelayURL).
		Strs("proxy_hosts", cfg.ProxyHosts).
		Dur("fetch_timeout", cfg.FetchTimeout).
		Dur("logo_cache_ttl", cfg.LogoCacheTTL).
		Int("logo_cache_size", cfg.LogoCacheSize).
		Bool("allow_private_fetch", cfg.AllowPrivateFetch).
		Str("assets_dir", cfg.AssetsDir).
		Bool("pandascore", cfg.PandaScoreAPIKey != "").
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var Module = fx.Provide(Load)
