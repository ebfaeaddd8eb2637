package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	//App
	Env string // dev / staging / prod
	//HTTP
	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	// CORSAllowedOrigins defaults to AppBaseURL.
	CORSAllowedOrigins []string

	// Requests per minute per client; 0 disables the limit.
	RateLimitAuthPerMin int
	RateLimitChatPerMin int

	//Auth / Security
	JWTSecret      string
	JWTIssuer      string
	AccessTokenTTL time.Duration
	VerifyTokenTTL time.Duration
	// Lower-cased domains accepted at registration.
	AllowedEmailDomains []string
	// BackendBaseURL is where /auth/verify is served; AppBaseURL is the frontend.
	BackendBaseURL string
	AppBaseURL     string

	// Infrastructure
	DBAddr        string
	DBDebug       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Mail
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPTimeout  time.Duration
	SMTPInsecure bool

	// Chat upstream (Open WebUI compatible)
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration

	// Registrar forms page
	FormsURL     string
	FormsTimeout time.Duration

	// Uploads
	StorageDriver   string // local / s3
	UploadDir       string
	MaxUploadSizeMB int64
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string

	// Dev seed
	SeedAdminEmail    string
	SeedAdminPassword string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:       getEnv("ENV", "dev"),
		HTTPAddr:  getEnv("HTTP_ADDR", ":8000"),
		JWTIssuer: getEnv("JWT_ISSUER", "chatcpe"),
	}

	// required values
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing required env var: JWT_SECRET")
	}
	cfg.DBAddr = os.Getenv("DB_ADDR")
	if cfg.DBAddr == "" {
		return nil, fmt.Errorf("missing required env var: DB_ADDR")
	}

	var err error
	if cfg.AccessTokenTTL, err = getDuration("ACCESS_TOKEN_TTL", 60*time.Minute); err != nil {
		return nil, err
	}
	if cfg.VerifyTokenTTL, err = getDuration("VERIFY_TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AccessTokenTTL <= 0 || cfg.VerifyTokenTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive")
	}

	cfg.AllowedEmailDomains = getList("ALLOWED_EMAIL_DOMAINS", []string{"gmail.com"})

	if cfg.BackendBaseURL, err = getHTTPURL("BACKEND_BASE_URL", "http://localhost:8000"); err != nil {
		return nil, err
	}
	if cfg.AppBaseURL, err = getHTTPURL("APP_BASE_URL", "http://localhost:3000"); err != nil {
		return nil, err
	}

	cfg.DBDebug = getBool("DB_DEBUG", false)
	cfg.RedisAddr = os.Getenv("REDIS_ADDR") // optional; rate limiting falls back to in-process
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	// Mail: SMTP credentials only ever come from the environment.
	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	if cfg.SMTPHost == "" && cfg.Env != "dev" {
		return nil, fmt.Errorf("missing required env var: SMTP_HOST")
	}
	if cfg.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.SMTPFrom = getEnv("SMTP_FROM", "no-reply@chatcpe.local")
	if cfg.SMTPTimeout, err = getDuration("SMTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	cfg.SMTPInsecure = getBool("SMTP_INSECURE", false)

	if cfg.LLMBaseURL, err = getHTTPURL("LLM_BASE_URL", "http://localhost:3001"); err != nil {
		return nil, err
	}
	cfg.LLMBaseURL = strings.TrimRight(cfg.LLMBaseURL, "/")
	cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	cfg.LLMModel = getEnv("LLM_MODEL", "default")
	if cfg.LLMTimeout, err = getDuration("LLM_TIMEOUT", 8*time.Second); err != nil {
		return nil, err
	}
	if cfg.LLMTimeout <= 0 || cfg.LLMTimeout >= 10*time.Second {
		return nil, fmt.Errorf("LLM_TIMEOUT must be between 0 and 10s, got %s", cfg.LLMTimeout)
	}

	if cfg.FormsURL, err = getHTTPURL("FORMS_URL", "https://regis.kmutt.ac.th/web/form/"); err != nil {
		return nil, err
	}
	if cfg.FormsTimeout, err = getDuration("FORMS_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.StorageDriver = getEnv("STORAGE_DRIVER", "local")
	cfg.UploadDir = getEnv("UPLOAD_DIR", "uploads")
	mb, err := getInt("MAX_UPLOAD_SIZE_MB", 50)
	if err != nil {
		return nil, err
	}
	if mb <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_SIZE_MB must be positive")
	}
	cfg.MaxUploadSizeMB = int64(mb)
	switch cfg.StorageDriver {
	case "local":
	case "s3":
		cfg.S3Bucket = os.Getenv("S3_BUCKET")
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("missing required env var: S3_BUCKET")
		}
		cfg.S3Region = getEnv("S3_REGION", "us-east-1")
		cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
		cfg.S3AccessKey = os.Getenv("S3_ACCESS_KEY")
		cfg.S3SecretKey = os.Getenv("S3_SECRET_KEY")
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	cfg.SeedAdminEmail = os.Getenv("SEED_ADMIN_EMAIL")
	cfg.SeedAdminPassword = os.Getenv("SEED_ADMIN_PASSWORD")

	cfg.CORSAllowedOrigins = getList("CORS_ALLOWED_ORIGINS", []string{cfg.AppBaseURL})
	if cfg.RateLimitAuthPerMin, err = getInt("RATE_LIMIT_AUTH_PER_MIN", 10); err != nil {
		return nil, err
	}
	if cfg.RateLimitChatPerMin, err = getInt("RATE_LIMIT_CHAT_PER_MIN", 30); err != nil {
		return nil, err
	}
	if cfg.RateLimitAuthPerMin < 0 || cfg.RateLimitChatPerMin < 0 {
		return nil, fmt.Errorf("rate limits must not be negative")
	}

	if cfg.HTTPReadTimeout, err = getDuration("HTTP_READ_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPWriteTimeout, err = getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPIdleTimeout, err = getDuration("HTTP_IDLE_TIMEOUT", time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

// VerifyURL is the link mailed to a new account.
func (c *Config) VerifyURL(rawToken string) string {
	return strings.TrimRight(c.BackendBaseURL, "/") + "/auth/verify?token=" + url.QueryEscape(rawToken)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// getHTTPURL requires an absolute http(s) URL with a host.
func getHTTPURL(key, def string) (string, error) {
	v := getEnv(key, def)
	u, err := url.Parse(v)
	if err != nil {
		return "", fmt.Errorf("invalid url for %s: %w", key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%s must be an absolute http(s) url, got %q", key, v)
	}
	return v, nil
}
