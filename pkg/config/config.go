package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	AI            AIConfig
	Documents     DocumentsConfig
	Extract       ExtractConfig
	Subscription  SubscriptionConfig
	Dashboard     DashboardConfig
	Exports       ExportsConfig
	Transcription TranscriptionConfig
	Payments      PaymentsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	CookieName        string
	Issuer            string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AIConfig configures the hosted chat-completion model.
type AIConfig struct {
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float64
}

// DocumentsConfig controls uploaded document storage and OCR processing.
type DocumentsConfig struct {
	Storage          string
	StorageDir       string
	S3Bucket         string
	S3Region         string
	S3Endpoint       string
	AWSAccessKey     string
	AWSSecretKey     string
	MaxFileSizeBytes int64
	Workers          int
	WorkerRetries    int
}

// ExtractConfig names the text extraction binaries.
type ExtractConfig struct {
	PDFToText string
	Tesseract string
	Antiword  string
	Docx2Txt  string
	Timeout   time.Duration
}

// SubscriptionConfig governs trials and the entitlement gate.
type SubscriptionConfig struct {
	TrialDays   int
	PeriodDays  int
	GateEnabled bool
}

// DashboardConfig governs dashboard cache tuning.
type DashboardConfig struct {
	CacheTTL time.Duration
}

// ExportsConfig controls signed download links for generated files.
type ExportsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

// TranscriptionConfig configures the hosted transcription API.
type TranscriptionConfig struct {
	BaseURL      string
	APIToken     string
	PollInterval time.Duration
	MaxPolls     int
}

// PaymentsConfig carries billing provider credentials. Billing itself is handled elsewhere.
type PaymentsConfig struct {
	SecretKey     string
	WebhookSecret string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
		CookieName:        v.GetString("AUTH_COOKIE_NAME"),
		Issuer:            v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.AI = AIConfig{
		APIKey:      v.GetString("AI_API_KEY"),
		Model:       v.GetString("AI_MODEL"),
		Timeout:     parseDuration(v.GetString("AI_TIMEOUT"), time.Minute),
		Temperature: v.GetFloat64("AI_TEMPERATURE"),
	}

	maxDocSize := v.GetInt64("DOCUMENTS_MAX_FILE_SIZE")
	if maxDocSize <= 0 {
		maxDocSize = 25 * 1024 * 1024
	}
	cfg.Documents = DocumentsConfig{
		Storage:          v.GetString("DOCUMENTS_STORAGE"),
		StorageDir:       v.GetString("DOCUMENTS_STORAGE_DIR"),
		S3Bucket:         v.GetString("DOCUMENTS_S3_BUCKET"),
		S3Region:         v.GetString("AWS_REGION"),
		S3Endpoint:       v.GetString("DOCUMENTS_S3_ENDPOINT"),
		AWSAccessKey:     v.GetString("AWS_ACCESS_KEY_ID"),
		AWSSecretKey:     v.GetString("AWS_SECRET_ACCESS_KEY"),
		MaxFileSizeBytes: maxDocSize,
		Workers:          v.GetInt("DOCUMENTS_WORKERS"),
		WorkerRetries:    v.GetInt("DOCUMENTS_WORKER_RETRIES"),
	}

	cfg.Extract = ExtractConfig{
		PDFToText: v.GetString("EXTRACT_PDFTOTEXT_BIN"),
		Tesseract: v.GetString("EXTRACT_TESSERACT_BIN"),
		Antiword:  v.GetString("EXTRACT_ANTIWORD_BIN"),
		Docx2Txt:  v.GetString("EXTRACT_DOCX2TXT_BIN"),
		Timeout:   parseDuration(v.GetString("EXTRACT_TIMEOUT"), 2*time.Minute),
	}

	cfg.Subscription = SubscriptionConfig{
		TrialDays:   v.GetInt("TRIAL_DAYS"),
		PeriodDays:  v.GetInt("SUBSCRIPTION_PERIOD_DAYS"),
		GateEnabled: v.GetBool("SUBSCRIPTION_GATE_ENABLED"),
	}

	cfg.Dashboard = DashboardConfig{
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Exports = ExportsConfig{
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), time.Hour),
	}

	cfg.Transcription = TranscriptionConfig{
		BaseURL:      v.GetString("TRANSCRIPTION_BASE_URL"),
		APIToken:     v.GetString("TRANSCRIPTION_API_TOKEN"),
		PollInterval: parseDuration(v.GetString("TRANSCRIPTION_POLL_INTERVAL"), 3*time.Second),
		MaxPolls:     v.GetInt("TRANSCRIPTION_MAX_POLLS"),
	}

	cfg.Payments = PaymentsConfig{
		SecretKey:     v.GetString("PAYMENTS_SECRET_KEY"),
		WebhookSecret: v.GetString("PAYMENTS_WEBHOOK_SECRET"),
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.Env == EnvDevelopment
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "casebuddy")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")
	v.SetDefault("AUTH_COOKIE_NAME", "casebuddy_token")
	v.SetDefault("JWT_ISSUER", "casebuddy")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("AI_API_KEY", "")
	v.SetDefault("AI_MODEL", "gemini-1.5-pro")
	v.SetDefault("AI_TIMEOUT", "60s")
	v.SetDefault("AI_TEMPERATURE", 0.3)

	v.SetDefault("DOCUMENTS_STORAGE", "local")
	v.SetDefault("DOCUMENTS_STORAGE_DIR", "./uploads")
	v.SetDefault("DOCUMENTS_S3_BUCKET", "")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("DOCUMENTS_S3_ENDPOINT", "")
	v.SetDefault("DOCUMENTS_MAX_FILE_SIZE", 25*1024*1024)
	v.SetDefault("DOCUMENTS_WORKERS", 2)
	v.SetDefault("DOCUMENTS_WORKER_RETRIES", 1)

	v.SetDefault("EXTRACT_PDFTOTEXT_BIN", "pdftotext")
	v.SetDefault("EXTRACT_TESSERACT_BIN", "tesseract")
	v.SetDefault("EXTRACT_ANTIWORD_BIN", "antiword")
	v.SetDefault("EXTRACT_DOCX2TXT_BIN", "docx2txt")
	v.SetDefault("EXTRACT_TIMEOUT", "2m")

	v.SetDefault("TRIAL_DAYS", 14)
	v.SetDefault("SUBSCRIPTION_PERIOD_DAYS", 30)
	v.SetDefault("SUBSCRIPTION_GATE_ENABLED", true)

	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "1h")

	v.SetDefault("TRANSCRIPTION_BASE_URL", "https://api.transcription.example.com/v1")
	v.SetDefault("TRANSCRIPTION_API_TOKEN", "")
	v.SetDefault("TRANSCRIPTION_POLL_INTERVAL", "3s")
	v.SetDefault("TRANSCRIPTION_MAX_POLLS", 60)

	v.SetDefault("PAYMENTS_SECRET_KEY", "")
	v.SetDefault("PAYMENTS_WEBHOOK_SECRET", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
