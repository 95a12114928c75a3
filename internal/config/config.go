package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort string
	Env        string

	// Database
	DatabaseType     string
	DatabaseURL      string
	DatabaseHost     string
	DatabasePort     int
	DatabaseUser     string
	DatabasePassword string
	DatabaseName     string
	DatabaseMaxConns int

	// Tokens
	JWTSecret               string
	JWTExpiresIn            time.Duration
	RefreshSecret           string
	RefreshExpiresIn        time.Duration
	ForgotPasswordSecret    string
	ForgotPasswordExpiresIn time.Duration

	// Cookies
	AuthCookieMaxAge    time.Duration
	RefreshCookieMaxAge time.Duration
	CookieDomain        string

	// Mail
	MailTransport string
	MailHost      string
	MailPort      int
	MailUser      string
	MailPassword  string
	MailFrom      string
	MailFromName  string
	AWSRegion     string

	// Collaborators
	LLMServerURL            string
	LLMTimeout              time.Duration
	ClientURL               string
	OTPIssuer               string
	OTPStore                string
	RedisURL                string
	FirebaseBucket          string
	FirebaseCredentialsFile string

	CORSOrigins       []string
	SearchConcurrency int
	ModelCacheTTL     time.Duration
	LoginRateLimit    int
	StatusTimeout     time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present; values
// already set in the environment take precedence.
func Load() *Config {
	_ = godotenv.Load()

	env := getEnv("APP_ENV", getEnv("NODE_ENV", "development"))

	return &Config{
		ServerPort: getEnv("PORT", "3000"),
		Env:        env,

		DatabaseType:     getEnv("DB_TYPE", "sqlserver"),
		DatabaseURL:      getEnv("DB_URL", ""),
		DatabaseHost:     getEnv("DB_HOST", "localhost"),
		DatabasePort:     getEnvInt("DB_PORT", 1433),
		DatabaseUser:     getEnv("DB_USER", "sa"),
		DatabasePassword: getEnv("DB_PASSWORD", ""),
		DatabaseName:     getEnv("DB_NAME", "InsightPaper"),
		DatabaseMaxConns: getEnvInt("DB_MAX_CONNS", 10),

		JWTSecret:               getEnv("JWT_SECRET", "dev-jwt-secret"),
		JWTExpiresIn:            getEnvDuration("JWT_EXPIRES_IN", time.Hour),
		RefreshSecret:           getEnv("REFRESH_SECRET", "dev-refresh-secret"),
		RefreshExpiresIn:        getEnvDuration("REFRESH_EXPIRES_IN", 7*24*time.Hour),
		ForgotPasswordSecret:    getEnv("FORGOT_PASSWORD_SECRET", "dev-forgot-password-secret"),
		ForgotPasswordExpiresIn: getEnvDuration("FORGOT_PASSWORD_EXPIRES_IN", 15*time.Minute),

		AuthCookieMaxAge:    getEnvDuration("AUTH_COOKIE_MAX_AGE", time.Hour),
		RefreshCookieMaxAge: getEnvDuration("REFRESH_COOKIE_MAX_AGE", 7*24*time.Hour),
		CookieDomain:        getEnv("COOKIE_DOMAIN", ""),

		MailTransport: getEnv("MAIL_TRANSPORT", "smtp"),
		MailHost:      getEnv("MAIL_HOST", ""),
		MailPort:      getEnvInt("MAIL_PORT", 587),
		MailUser:      getEnv("MAIL_USER", ""),
		MailPassword:  getEnv("MAIL_PASSWORD", ""),
		MailFrom:      getEnv("MAIL_FROM", ""),
		MailFromName:  getEnv("MAIL_FROM_NAME", "InsightPaper"),
		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),

		LLMServerURL:            strings.TrimRight(getEnv("LLM_SERVER_URL", "http://localhost:8000"), "/"),
		LLMTimeout:              getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		ClientURL:               strings.TrimRight(getEnv("CLIENT_URL", "http://localhost:3001"), "/"),
		OTPIssuer:               getEnv("OTP_ISSUER", "InsightPaper"),
		OTPStore:                getEnv("OTP_STORE", "database"),
		RedisURL:                getEnv("REDIS_URL", "redis://localhost:6379/0"),
		FirebaseBucket:          getEnv("FIREBASE_BUCKET", ""),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),

		CORSOrigins:       getEnvList("CORS_ORIGINS", []string{"http://localhost:3001"}),
		SearchConcurrency: getEnvInt("SEARCH_CONCURRENCY", 4),
		ModelCacheTTL:     getEnvDuration("MODEL_CACHE_TTL", 5*time.Minute),
		LoginRateLimit:    getEnvInt("LOGIN_RATE_LIMIT", 20),
		StatusTimeout:     getEnvDuration("STATUS_TIMEOUT", 5*time.Second),
	}
}

// IsProduction reports whether cookies must be Secure and cross-site.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate rejects configurations that would run production with development secrets.
func (c *Config) Validate() error {
	if !c.IsProduction() {
		return nil
	}
	var errs []error
	for name, value := range map[string]string{
		"JWT_SECRET":             c.JWTSecret,
		"REFRESH_SECRET":         c.RefreshSecret,
		"FORGOT_PASSWORD_SECRET": c.ForgotPasswordSecret,
	} {
		if value == "" || strings.HasPrefix(value, "dev-") {
			errs = append(errs, errors.New(name+" must be set in production"))
		}
	}
	if c.JWTSecret == c.RefreshSecret {
		errs = append(errs, errors.New("JWT_SECRET and REFRESH_SECRET must differ"))
	}
	return errors.Join(errs...)
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
		log.Printf("Invalid value %q for %s, using default %d", value, key, defaultValue)
	}
	return defaultValue
}

// getEnvDuration accepts a Go duration ("15m"), a whole number of days ("7d")
// or, under KEY_SECONDS, a number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, ok := parseDuration(value); ok {
			return parsed
		}
		log.Printf("Invalid value %q for %s, using default %v", value, key, defaultValue)
	}
	if value := os.Getenv(key + "_SECONDS"); value != "" {
		seconds, err := strconv.Atoi(value)
		if err == nil {
			return time.Duration(seconds) * time.Second
		}
		log.Printf("Invalid value %q for %s_SECONDS, using default %v", value, key, defaultValue)
	}
	return defaultValue
}

func parseDuration(value string) (time.Duration, bool) {
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, false
		}
		return time.Duration(n) * 24 * time.Hour, true
	}
	parsed, err := time.ParseDuration(value)
	return parsed, err == nil
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
