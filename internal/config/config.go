// Package config loads server settings from flags, environment variables and .env.local.
//
// Every flag defaults to its environment variable, so a deployment can use either.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/and161185/authgate/internal/cookie"
)

// Config holds server settings.
type Config struct {
	Addr      string // listen address
	DSN       string // PostgreSQL DSN; empty selects the in-memory store
	SecretKey string // signs tokens and is embedded in the session cookie

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	OTPTTL     time.Duration

	GinMode            string
	CORSAllowedOrigins []string

	MergedGate       bool // run session and access checks in one middleware
	SlidingSession   bool // persist tokens renewed by the access gate
	EnforceTokenType bool // reject tokens whose token_type does not match their use

	PasswordHash string // argon2id | bcrypt
	BcryptCost   int

	Dev bool
}

// Load reads .env.local (if any), then parses args with environment-backed defaults.
func Load(args []string) (*Config, error) {
	loadEnvFile()

	fs := flag.NewFlagSet("authgate-server", flag.ContinueOnError)
	cfg := &Config{}
	var (
		accessMin, refreshMin, otpMin int
		origins                       string
	)

	fs.StringVar(&cfg.Addr, "addr", getEnv("ADDR", ":8080"), "listen address")
	fs.StringVar(&cfg.DSN, "dsn", getEnv("DATABASE_DSN", ""), "PostgreSQL DSN (empty: in-memory store)")
	fs.StringVar(&cfg.SecretKey, "secret-key", getEnv("SECRET_KEY", ""), "token signing secret (required)")
	fs.IntVar(&accessMin, "access-ttl", getEnvAsInt("JWT_ACCESS_EXPIRATION_TIME", 60), "access token lifetime, minutes")
	fs.IntVar(&refreshMin, "session-ttl", getEnvAsInt("JWT_SESSION_EXPIRATION_TIME", 1440), "refresh token (session) lifetime, minutes")
	fs.IntVar(&otpMin, "otp-ttl", getEnvAsInt("JWT_ONE_TIME_PASSWORD_LIFETIME", 5), "one-time-password token lifetime, minutes")
	fs.StringVar(&cfg.GinMode, "gin-mode", getEnv("GIN_MODE", "release"), "gin mode (debug, release, test)")
	fs.StringVar(&origins, "cors-origins", getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), "comma separated CORS origins")
	fs.BoolVar(&cfg.MergedGate, "merged-gate", getEnvAsBool("MERGED_GATE", false), "use the merged session+access gate")
	fs.BoolVar(&cfg.SlidingSession, "sliding-session", getEnvAsBool("SLIDING_SESSION", false), "persist tokens renewed on each request")
	fs.BoolVar(&cfg.EnforceTokenType, "enforce-token-type", getEnvAsBool("ENFORCE_TOKEN_TYPE", false), "check token_type claims in gates")
	fs.StringVar(&cfg.PasswordHash, "password-hash", getEnv("PASSWORD_HASH", "argon2id"), "one-way hash: argon2id or bcrypt")
	fs.IntVar(&cfg.BcryptCost, "bcrypt-cost", getEnvAsInt("BCRYPT_COST", 12), "bcrypt cost")
	fs.BoolVar(&cfg.Dev, "dev", getEnvAsBool("DEV", false), "development logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.AccessTTL = time.Duration(accessMin) * time.Minute
	cfg.RefreshTTL = time.Duration(refreshMin) * time.Minute
	cfg.OTPTTL = time.Duration(otpMin) * time.Minute
	cfg.CORSAllowedOrigins = splitList(origins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would make the server unsafe or unusable.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}
	if err := cookie.CheckSecret(c.SecretKey); err != nil {
		return fmt.Errorf("SECRET_KEY: %w", err)
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 || c.OTPTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	switch c.PasswordHash {
	case "argon2id", "bcrypt":
	default:
		return fmt.Errorf("unknown PASSWORD_HASH %q", c.PasswordHash)
	}
	return nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}
	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}
	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getEnvAsBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
