package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	pkglogger "github.com/journalkeep/journal-backend/pkg/logger"
	"gopkg.in/yaml.v3"
)

// Config 애플리케이션 전체 설정
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	JWT           JWTConfig           `yaml:"jwt"`
	CORS          CORSConfig          `yaml:"cors"`
	Storage       StorageConfig       `yaml:"storage"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Mail          MailConfig          `yaml:"mail"`
	Retention     RetentionConfig     `yaml:"retention"`
	Reminders     RemindersConfig     `yaml:"reminders"`
}

type ServerConfig struct {
	Port               int    `yaml:"port"`
	Env                string `yaml:"env"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"` // 0 = default, <0 = off
	AutoVerifyUsers    bool   `yaml:"auto_verify_users"`
}

type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	DBName          string `yaml:"dbname"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // seconds
}

// GetDSN MySQL DSN (UTC, parseTime)
func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type JWTConfig struct {
	Secret    string        `yaml:"secret"`
	Issuer    string        `yaml:"issuer"`
	ExpiresIn time.Duration `yaml:"expires_in"`
	RefreshIn time.Duration `yaml:"refresh_in"`
}

type CORSConfig struct {
	AllowOrigins string `yaml:"allow_origins"` // comma separated
}

type StorageConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Endpoint        string        `yaml:"endpoint"`
	Region          string        `yaml:"region"`
	AccessKeyID     string        `yaml:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key"`
	Bucket          string        `yaml:"bucket"`
	PublicURL       string        `yaml:"public_url"`
	ForcePathStyle  bool          `yaml:"force_path_style"`
	PresignExpiry   time.Duration `yaml:"presign_expiry"`
	MaxFileSize     int64         `yaml:"max_file_size"` // bytes
}

type ElasticsearchConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Addresses []string `yaml:"addresses"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	Index     string   `yaml:"index"`
}

type MailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	AppURL   string `yaml:"app_url"`
}

type RetentionConfig struct {
	Days    int    `yaml:"days"`
	PurgeAt string `yaml:"purge_at"` // HH:MM UTC
}

// Window 소프트 삭제 후 영구 삭제까지의 보존 기간
func (r RetentionConfig) Window() time.Duration {
	return time.Duration(r.Days) * 24 * time.Hour
}

type RemindersConfig struct {
	Enabled     bool          `yaml:"enabled"`
	SendAt      string        `yaml:"send_at"` // HH:MM UTC
	PollTimeout time.Duration `yaml:"poll_timeout"`
}

// IsDevelopment 개발 환경 여부
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "" || c.Server.Env == "local" || c.Server.Env == "development" || c.Server.Env == "dev"
}

// Load reads the YAML file at path, applies environment overrides and defaults.
// A missing file is not an error: defaults plus environment are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		pkglogger.GetLogger().Warn().Str("path", path).Msg("config file not found, using defaults and environment")
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required (JWT_SECRET)")
	}
	for key, at := range map[string]string{"retention.purge_at": cfg.Retention.PurgeAt, "reminders.send_at": cfg.Reminders.SendAt} {
		if _, err := time.Parse("15:04", at); err != nil {
			return nil, fmt.Errorf("%s must be HH:MM, got %q", key, at)
		}
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Env, "APP_ENV")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	setInt(&cfg.Server.RateLimitPerMinute, "RATE_LIMIT_PER_MINUTE")
	setBool(&cfg.Server.AutoVerifyUsers, "AUTO_VERIFY_USERS")

	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.DBName, "DB_NAME")

	setString(&cfg.Redis.Host, "REDIS_HOST")
	setInt(&cfg.Redis.Port, "REDIS_PORT")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")

	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setString(&cfg.CORS.AllowOrigins, "CORS_ALLOW_ORIGINS")

	setBool(&cfg.Storage.Enabled, "STORAGE_ENABLED")
	setString(&cfg.Storage.Endpoint, "S3_ENDPOINT")
	setString(&cfg.Storage.Region, "S3_REGION")
	setString(&cfg.Storage.AccessKeyID, "S3_ACCESS_KEY_ID")
	setString(&cfg.Storage.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	setString(&cfg.Storage.Bucket, "S3_BUCKET")

	setBool(&cfg.Elasticsearch.Enabled, "ES_ENABLED")
	if v := os.Getenv("ES_ADDRESSES"); v != "" {
		cfg.Elasticsearch.Addresses = SplitAndTrim(v, ",")
	}

	setBool(&cfg.Mail.Enabled, "MAIL_ENABLED")
	setString(&cfg.Mail.Host, "SMTP_HOST")
	setInt(&cfg.Mail.Port, "SMTP_PORT")
	setString(&cfg.Mail.Username, "SMTP_USERNAME")
	setString(&cfg.Mail.Password, "SMTP_PASSWORD")
	setString(&cfg.Mail.From, "MAIL_FROM")

	setInt(&cfg.Retention.Days, "RETENTION_DAYS")
	setString(&cfg.Retention.PurgeAt, "RETENTION_PURGE_AT")
	setString(&cfg.Reminders.SendAt, "REMINDERS_SEND_AT")
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerMinute == 0 {
		cfg.Server.RateLimitPerMinute = 120
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 3306
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 10
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 50
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 300
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "journal-backend"
	}
	if cfg.JWT.ExpiresIn == 0 {
		cfg.JWT.ExpiresIn = 15 * time.Minute
	}
	if cfg.JWT.RefreshIn == 0 {
		cfg.JWT.RefreshIn = 7 * 24 * time.Hour
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.MaxFileSize == 0 {
		cfg.Storage.MaxFileSize = 10 << 20
	}
	if cfg.Elasticsearch.Index == "" {
		cfg.Elasticsearch.Index = "journal-entries"
	}
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 587
	}
	if cfg.Retention.Days == 0 {
		cfg.Retention.Days = 30
	}
	if cfg.Retention.PurgeAt == "" {
		cfg.Retention.PurgeAt = "00:00"
	}
	if cfg.Reminders.SendAt == "" {
		cfg.Reminders.SendAt = "09:00"
	}
	if cfg.Reminders.PollTimeout == 0 {
		cfg.Reminders.PollTimeout = 5 * time.Second
	}
}

// LogResolved 비밀값을 제외한 최종 설정 출력
func LogResolved(cfg *Config) {
	pkglogger.GetLogger().Info().
		Str("env", cfg.Server.Env).
		Int("port", cfg.Server.Port).
		Str("db_host", cfg.Database.Host).
		Str("db_name", cfg.Database.DBName).
		Str("redis", fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)).
		Bool("storage", cfg.Storage.Enabled).
		Bool("elasticsearch", cfg.Elasticsearch.Enabled).
		Bool("mail", cfg.Mail.Enabled).
		Bool("reminders", cfg.Reminders.Enabled).
		Int("retention_days", cfg.Retention.Days).
		Msg("config resolved")
}

// SplitAndTrim splits s by sep and drops empty parts
func SplitAndTrim(s, sep string) []string {
	parts := []string{}
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
