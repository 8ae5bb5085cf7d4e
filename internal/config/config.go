package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"cups_webapp/internal/logger"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	AppPort       string
	DatabaseURL   string
	JWTSecret     string
	AllowedOrigin string
	LogLevel      string
	LogJSON       bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Game
	StartingBalance   decimal.Decimal
	DefaultBet        decimal.Decimal
	ShuffleBeforePick bool
	SessionTTL        time.Duration

	// Rate limits
	RoundRateLimit  int
	RoundRateWindow time.Duration
	APIRateLimit    int
	APIRateWindow   time.Duration

	// Animation timings
	WinDwell      time.Duration
	LossDwell     time.Duration
	MarkerDwell   time.Duration
	PeekDwell     time.Duration
	CupMove       time.Duration
	AutoPlayDelay time.Duration
}

// Load reads .env (if any) and the environment. Missing required keys are fatal.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := parse(os.Getenv)
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

func parse(getenv func(string) string) (*Config, error) {
	jwtSecret := getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}

	port := getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	logLevel := getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	startingBalance, err := envDecimal(getenv, "STARTING_BALANCE", decimal.NewFromInt(1000))
	if err != nil {
		return nil, err
	}
	defaultBet, err := envDecimal(getenv, "DEFAULT_BET", decimal.NewFromInt(1))
	if err != nil {
		return nil, err
	}

	return &Config{
		AppPort:       port,
		DatabaseURL:   getenv("DATABASE_URL"),
		JWTSecret:     jwtSecret,
		AllowedOrigin: getenv("ALLOWED_ORIGIN"),
		LogLevel:      logLevel,
		LogJSON:       envBool(getenv, "LOG_JSON", false),

		RedisAddr:     getenv("REDIS_ADDR"),
		RedisPassword: getenv("REDIS_PASSWORD"),
		RedisDB:       envInt(getenv, "REDIS_DB", 0),

		StartingBalance:   startingBalance,
		DefaultBet:        defaultBet,
		ShuffleBeforePick: envBool(getenv, "SHUFFLE_BEFORE_PICK", true),
		SessionTTL:        envSeconds(getenv, "SESSION_TTL", time.Hour),

		RoundRateLimit:  envInt(getenv, "ROUND_RATE_LIMIT", 60),
		RoundRateWindow: envSeconds(getenv, "ROUND_RATE_WINDOW", time.Minute),
		APIRateLimit:    envInt(getenv, "API_RATE_LIMIT", 120),
		APIRateWindow:   envSeconds(getenv, "API_RATE_WINDOW", time.Minute),

		WinDwell:      envMillis(getenv, "WIN_DWELL_MS", 800*time.Millisecond),
		LossDwell:     envMillis(getenv, "LOSS_DWELL_MS", 600*time.Millisecond),
		MarkerDwell:   envMillis(getenv, "MARKER_DWELL_MS", 800*time.Millisecond),
		PeekDwell:     envMillis(getenv, "PEEK_DWELL_MS", 500*time.Millisecond),
		CupMove:       envMillis(getenv, "CUP_MOVE_MS", 220*time.Millisecond),
		AutoPlayDelay: envMillis(getenv, "AUTOPLAY_DELAY_MS", 500*time.Millisecond),
	}, nil
}

// non-negative integers only, anything else keeps the default
func envInt(getenv func(string) string, key string, def int) int {
	if v := getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func envBool(getenv func(string) string, key string, def bool) bool {
	if v := getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// SESSION_TTL and *_WINDOW accept seconds or a Go duration ("90s", "1h")
func envSeconds(getenv func(string) string, key string, def time.Duration) time.Duration {
	v := getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	return def
}

func envMillis(getenv func(string) string, key string, def time.Duration) time.Duration {
	if v := getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}

func envDecimal(getenv func(string) string, key string, def decimal.Decimal) (decimal.Decimal, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s must be a positive number, got %q", key, v)
	}
	return d, nil
}
