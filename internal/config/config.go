package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"production"`
	LogLevel   string     `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	PublicURL  string     `yaml:"public_url" env:"PUBLIC_URL"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Blob       Blob       `yaml:"blob"`
	MinIO      MinIO      `yaml:"minio"`
	Catalog    Catalog    `yaml:"catalog"`
	PGSQL      PQSQL      `yaml:"pgsql"`
	Redis      Redis      `yaml:"redis"`
	SMTP       SMTP       `yaml:"smtp"`
	Push       Push       `yaml:"push"`
	Notify     Notify     `yaml:"notify"`
	RateLimit  RateLimit  `yaml:"rate_limit"`
	Sweeper    Sweeper    `yaml:"sweeper"`
}

type HTTPServer struct {
	Address        string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:3000"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" env-default:"524288000"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env-default:"5m"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env-default:"5m"`
	// AllowedOrigins lists CORS origins; "*" allows any.
	AllowedOrigins []string `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is honoured.
	TrustedProxies []string `yaml:"trusted_proxies" env:"HTTP_TRUSTED_PROXIES" env-separator:","`
}

// Blob selects where uploaded video bytes live.
type Blob struct {
	Driver string `yaml:"driver" env:"BLOB_DRIVER" env-default:"fs"` // fs | minio
	Dir    string `yaml:"dir" env:"BLOB_DIR" env-default:"uploads"`
}

type MinIO struct {
	Endpoint        string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"MINIO_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"MINIO_SECRET_ACCESS_KEY"`
	BucketName      string `yaml:"bucket_name" env:"MINIO_BUCKET" env-default:"match-videos"`
	UseSSL          bool   `yaml:"use_ssl" env:"MINIO_USE_SSL"`
}

// Catalog selects the record store behind the media catalog.
type Catalog struct {
	Driver   string        `yaml:"driver" env:"CATALOG_DRIVER" env-default:"json"` // json | sqlite | postgres | badger | memory
	Path     string        `yaml:"path" env:"CATALOG_PATH" env-default:"videos.json"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"CATALOG_CACHE_TTL" env-default:"30s"`
}

type PQSQL struct {
	Host     string `yaml:"host" env:"PG_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"PG_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"PG_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"PG_PASSWORD" env-default:"password"`
	DBName   string `yaml:"dbname" env:"PG_DBNAME" env-default:"league_db"`
	SSLMode  string `yaml:"sslmode" env:"PG_SSLMODE" env-default:"disable"`
}

// DSN returns the lib/pq connection string.
func (p PQSQL) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Redis backs the push broker, the catalog cache and the rate limiter.
// An empty address disables all three.
type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// SMTP configures the email transport. An empty host leaves email unconfigured.
type SMTP struct {
	Host      string `yaml:"host" env:"SMTP_HOST"`
	Port      int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username  string `yaml:"username" env:"SMTP_USERNAME"`
	Password  string `yaml:"password" env:"SMTP_PASSWORD"`
	From      string `yaml:"from" env:"SMTP_FROM"`
	TLSPolicy string `yaml:"tls_policy" env:"SMTP_TLS_POLICY" env-default:"mandatory"` // mandatory | opportunistic | none
}

type Push struct {
	Enabled      bool  `yaml:"enabled" env:"PUSH_ENABLED"`
	StreamMaxLen int64 `yaml:"stream_max_len" env-default:"1000"`
}

type Notify struct {
	MaxConcurrentSends int           `yaml:"max_concurrent_sends" env-default:"16"`
	SendTimeout        time.Duration `yaml:"send_timeout" env-default:"30s"`
}

type RateLimit struct {
	NotifyPerMinute int64 `yaml:"notify_per_minute" env-default:"20"`
	PushPerMinute   int64 `yaml:"push_per_minute" env-default:"60"`
}

type Sweeper struct {
	Interval time.Duration `yaml:"interval" env-default:"1h"`
	Grace    time.Duration `yaml:"grace" env-default:"24h"`
}

// Load reads the YAML file at path and applies environment overrides.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist at path: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return &cfg, nil
}

func MustLoad() *Config {
	var configPath string

	configPath = os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}
