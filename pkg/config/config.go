package config

import (
	"errors"
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
	Documents     DocumentsConfig
	Verification  VerificationConfig
	Skills        SkillsConfig
	Recommend     RecommendConfig
	AdminSeed     AdminSeedConfig
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
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DocumentsConfig controls uploaded document storage and validation.
type DocumentsConfig struct {
	UploadDir         string
	AllowedExtensions []string
	MaxFileSizeBytes  int64
}

// VerificationConfig governs the account verification workflow.
type VerificationConfig struct {
	CooldownSeconds int64
}

// SkillsConfig governs technician skill submissions.
type SkillsConfig struct {
	PendingLimit int
	Vocabulary   []string
}

// RecommendConfig tunes the job recommendation cache.
type RecommendConfig struct {
	CacheTTL time.Duration
	Limit    int
}

// AdminSeedConfig describes the bootstrap administrator account.
type AdminSeedConfig struct {
	Email    string
	Password string
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
		if !errors.As(err, &notFound) {
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
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxDocSize := v.GetInt64("MAX_DOC_SIZE_BYTES")
	if maxDocSize <= 0 {
		maxDocSize = 15 * 1024 * 1024
	}
	cfg.Documents = DocumentsConfig{
		UploadDir:         v.GetString("UPLOAD_DIR"),
		AllowedExtensions: splitAndTrim(v.GetString("ALLOWED_DOC_EXTENSIONS")),
		MaxFileSizeBytes:  maxDocSize,
	}

	cfg.Verification = VerificationConfig{
		CooldownSeconds: v.GetInt64("VERIFICATION_COOLDOWN_SECONDS"),
	}

	cfg.Skills = SkillsConfig{
		PendingLimit: v.GetInt("PENDING_SKILL_LIMIT"),
		Vocabulary:   splitAndTrim(v.GetString("SKILL_VOCABULARY")),
	}

	cfg.Recommend = RecommendConfig{
		CacheTTL: parseDuration(v.GetString("RECOMMEND_CACHE_TTL"), 5*time.Minute),
		Limit:    v.GetInt("RECOMMEND_LIMIT"),
	}

	cfg.AdminSeed = AdminSeedConfig{
		Email:    v.GetString("ADMIN_EMAIL"),
		Password: v.GetString("ADMIN_PASSWORD"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "techmatch")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("ALLOWED_DOC_EXTENSIONS", ".pdf,.docx")
	v.SetDefault("MAX_DOC_SIZE_BYTES", 15*1024*1024)

	v.SetDefault("VERIFICATION_COOLDOWN_SECONDS", 24*60*60)

	v.SetDefault("PENDING_SKILL_LIMIT", 3)
	v.SetDefault("SKILL_VOCABULARY", strings.Join([]string{
		"Plumbing",
		"Electrical Wiring",
		"Router Configuration",
		"Printer Repair",
		"Network Troubleshooting",
		"Aircon Servicing",
		"CCTV Installation",
		"Server Maintenance",
		"Cable Termination",
		"Switch Configuration",
	}, ","))

	v.SetDefault("RECOMMEND_CACHE_TTL", "5m")
	v.SetDefault("RECOMMEND_LIMIT", 8)

	v.SetDefault("ADMIN_EMAIL", "admin@techmatch.com")
	v.SetDefault("ADMIN_PASSWORD", "Admin123")
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
