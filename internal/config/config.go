package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env           string              `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer    HTTPServerConfig    `yaml:"http_server"`
	PostgresCfg   PostgresConfig      `yaml:"postgres"`
	RedisCfg      RedisConfig         `yaml:"redis"`
	Auth          AuthConfig          `yaml:"auth"`
	QuoteProvider QuoteProviderConfig `yaml:"quote_provider"`
	Stripe        StripeConfig        `yaml:"stripe"`
}

type HTTPServerConfig struct {
	Address       string        `yaml:"address" env-default:":8080"`
	AllowedOrigin string        `yaml:"allowed_origin" env:"ALLOWED_ORIGIN" env-default:"http://localhost:3000"`
	Timeout       time.Duration `yaml:"timeout" env-default:"15s"`
	IdleTimeout   time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type PostgresConfig struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"5432"`
	Username string `yaml:"username" env-default:"postgres"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD"`
	Database string `yaml:"database" env-default:"brokerage"`
}

// ConnString renders the pgx connection URL.
func (p PostgresConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		p.Username, p.Password, p.Host, p.Port, p.Database)
}

type RedisConfig struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"6379"`
	Db       int    `yaml:"db" env-default:"0"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
}

type AuthConfig struct {
	Secret   string        `yaml:"secret" env:"JWT_SECRET" env-required:"true"`
	TokenTTL time.Duration `yaml:"token_ttl" env-default:"24h"`
}

type QuoteProviderConfig struct {
	BaseURL      string        `yaml:"base_url" env-default:"https://www.alphavantage.co"`
	APIKey       string        `yaml:"api_key" env:"QUOTE_API_KEY"`
	Timeout      time.Duration `yaml:"timeout" env-default:"10s"`
	HoldingsTTL  time.Duration `yaml:"holdings_cache_ttl" env-default:"60s"`
	PositionsTTL time.Duration `yaml:"positions_cache_ttl" env-default:"30s"`
	WatchlistTTL time.Duration `yaml:"watchlist_cache_ttl" env-default:"60s"`
}

type StripeConfig struct {
	SecretKey string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config file is empty")
	}

	return MustLoadByPath(path)
}

func MustLoadByPath(path string) *Config {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		panic("config file not found " + path)
	}

	var config Config

	if err := cleanenv.ReadConfig(path, &config); err != nil {
		panic("failed to read config " + err.Error())
	}

	return &config
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
