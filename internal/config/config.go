package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	StorageDriverLocal = "local"
	StorageDriverNATS  = "nats"
)

type Config struct {
	Env           string `yaml:"env"`
	PublicBaseURL string `yaml:"public_base_url"`
	ShortIDLength int    `yaml:"short_id_length"`
	HTTPServer    `yaml:"http_server"`
	Postgres      `yaml:"postgres"`
	Redis         `yaml:"redis"`
	Storage       `yaml:"storage"`
	Upload        `yaml:"upload"`
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   30 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

// Redis configures the optional short link resolution cache.
// The cache is disabled when Host is empty.
type Redis struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

var defaultRedis = Redis{
	Port: 6379,
	TTL:  24 * time.Hour,
}

func (r *Redis) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type Storage struct {
	Driver string `yaml:"driver"`
	Dir    string `yaml:"dir"`
	NATS   struct {
		URL    string `yaml:"url"`
		Bucket string `yaml:"bucket"`
	} `yaml:"nats"`
}

var defaultStorage = Storage{
	Driver: StorageDriverLocal,
	Dir:    "./uploads",
}

type Upload struct {
	MaxFileSize  int64    `yaml:"max_file_size"`
	AllowedTypes []string `yaml:"allowed_types"`
}

var defaultUpload = Upload{
	MaxFileSize: 5 << 20,
	AllowedTypes: []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
	},
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
	}
	defer f.Close()

	var cfg Config
	setDefaults(&cfg)

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.PublicBaseURL = "https://localhost:8080"
	cfg.ShortIDLength = 7
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
	cfg.Redis = defaultRedis
	cfg.Storage = defaultStorage
	cfg.Upload = defaultUpload
}
