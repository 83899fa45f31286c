package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minSecretLength = 32

// Window is a fixed-window request budget.
type Window struct {
	Max    int
	Period time.Duration
}

type Config struct {
	// Server
	Port       string
	Env        string // development, production
	TrustProxy bool

	// Persistence
	DatabaseURL string
	RedisURL    string

	// Security
	JWTSecret               string
	TokenTTL                time.Duration
	AdminPassword           string
	SubscriberEncryptionKey string
	EmailHMACKey            string
	BcryptCost              int

	SeedAdminUsername string
	SeedAdminPassword string

	RateLimit struct {
		API    Window
		Upload Window
		Review Window
	}
	Login struct {
		PerMinute float64
		Burst     int
	}

	// Uploads
	MaxUploadSizeMB int
	ImageHostURL    string

	Cors struct {
		TrustedOrigins []string
	}

	// Warnings collects problems that were papered over outside production.
	// They are logged once the logger exists.
	Warnings []string
}

// Load reads configuration from a .env file, the environment and args, in
// increasing precedence.
func Load(args []string) (*Config, error) {
	// Load .env file if it exists (don't error if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	fs := flag.NewFlagSet("portal", flag.ContinueOnError)
	fs.StringVar(&cfg.Port, "port", getEnv("PORT", "8080"), "Server port")
	fs.StringVar(&cfg.Env, "env", getEnv("ENV", "development"), "Environment (development, production)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", getEnv("DATABASE_URL", ""), "postgres:// or sqlite:// connection string; empty uses memory")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.RedisURL = getEnv("REDIS_URL", "")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.AdminPassword = getEnv("ADMIN_PASSWORD", "")
	cfg.SubscriberEncryptionKey = getEnv("SUBSCRIBER_ENCRYPTION_KEY", "")
	cfg.EmailHMACKey = getEnv("EMAIL_HMAC_KEY", "")
	cfg.SeedAdminUsername = getEnv("SEED_ADMIN_USERNAME", "")
	cfg.SeedAdminPassword = getEnv("SEED_ADMIN_PASSWORD", "")
	cfg.ImageHostURL = getEnv("IMAGE_HOST_URL", "")

	var err error
	if cfg.TrustProxy, err = getEnvBool("TRUST_PROXY", false); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = getEnvDuration("TOKEN_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getEnvInt("BCRYPT_COST", 12); err != nil {
		return nil, err
	}
	if cfg.MaxUploadSizeMB, err = getEnvInt("MAX_UPLOAD_SIZE_MB", 10); err != nil {
		return nil, err
	}
	if cfg.RateLimit.API, err = getEnvWindow("RATE_LIMIT_API", 100, 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Upload, err = getEnvWindow("RATE_LIMIT_UPLOAD", 10, time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Review, err = getEnvWindow("RATE_LIMIT_REVIEW", 1, time.Hour); err != nil {
		return nil, err
	}
	if cfg.Login.PerMinute, err = getEnvFloat("LOGIN_RATE_PER_MINUTE", 10); err != nil {
		return nil, err
	}
	if cfg.Login.Burst, err = getEnvInt("LOGIN_BURST", 5); err != nil {
		return nil, err
	}

	// Parse CORS trusted origins from comma-separated env var
	if origins := getEnv("CORS_TRUSTED_ORIGINS", ""); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.Cors.TrustedOrigins = append(cfg.Cors.TrustedOrigins, trimmed)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration. In production a missing secret is an
// error; elsewhere it is replaced with a random one and a warning is
// recorded.
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "production" && c.Env != "test" {
		return fmt.Errorf("ENV must be development, production or test, got %q", c.Env)
	}

	secrets := []struct {
		name  string
		value *string
		// persistent secrets protect stored rows and must survive a restart
		// whenever the rows do.
		persistent bool
	}{
		{"JWT_SECRET", &c.JWTSecret, false},
		{"SUBSCRIBER_ENCRYPTION_KEY", &c.SubscriberEncryptionKey, true},
		{"EMAIL_HMAC_KEY", &c.EmailHMACKey, true},
	}
	for _, s := range secrets {
		if len(*s.value) >= minSecretLength {
			continue
		}
		if c.IsProduction() {
			return fmt.Errorf("%s must be at least %d characters", s.name, minSecretLength)
		}
		if s.persistent && c.DatabaseURL != "" {
			*s.value = developmentSecret(s.name)
			c.Warnings = append(c.Warnings, fmt.Sprintf("%s missing or too short; using a fixed development key, set it before storing real data", s.name))
			continue
		}
		*s.value = randomSecret()
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s missing or too short; using a random value for this process", s.name))
	}

	if c.IsProduction() && c.AdminPassword != "" && len(c.AdminPassword) < 12 {
		return errors.New("ADMIN_PASSWORD must be at least 12 characters")
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}

	for name, w := range map[string]Window{
		"RATE_LIMIT_API":    c.RateLimit.API,
		"RATE_LIMIT_UPLOAD": c.RateLimit.Upload,
		"RATE_LIMIT_REVIEW": c.RateLimit.Review,
	} {
		if w.Max < 1 || w.Period <= 0 {
			return fmt.Errorf("%s_MAX and %s_WINDOW must be positive", name, name)
		}
	}
	if c.Login.PerMinute <= 0 || c.Login.Burst < 1 {
		return errors.New("LOGIN_RATE_PER_MINUTE and LOGIN_BURST must be positive")
	}
	if c.MaxUploadSizeMB < 1 {
		return errors.New("MAX_UPLOAD_SIZE_MB must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// developmentSecret is the stable stand-in for a missing secret outside
// production. It is the same on every start, so rows written under it stay
// readable.
func developmentSecret(name string) string {
	return "portal-development-" + strings.ToLower(name) + "-do-not-use-in-production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 15m: %w", key, err)
	}
	return d, nil
}

func getEnvWindow(prefix string, limit int, period time.Duration) (Window, error) {
	var w Window
	var err error
	if w.Max, err = getEnvInt(prefix+"_MAX", limit); err != nil {
		return Window{}, err
	}
	if w.Period, err = getEnvDuration(prefix+"_WINDOW", period); err != nil {
		return Window{}, err
	}
	return w, nil
}
