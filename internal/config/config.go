package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	Port string `env:"PORT" envDefault:"3000"`

	RazorpayKeyID     string        `env:"RAZORPAY_KEY_ID,required,notEmpty"`
	RazorpayKeySecret string        `env:"RAZORPAY_KEY_SECRET,required,notEmpty"`
	RazorpayBaseURL   string        `env:"RAZORPAY_BASE_URL" envDefault:"https://api.razorpay.com/v1"`
	GatewayTimeout    time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"10s"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"memory"`
	RedisURL     string `env:"REDIS_URL"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"download.grant.events"`
	NatsURL      string   `env:"NATS_URL"`
	NatsSubject  string   `env:"NATS_SUBJECT" envDefault:"download.grant.events"`
	DatabaseURL  string   `env:"DATABASE_URL"`

	ArtifactDriver   string `env:"ARTIFACT_DRIVER" envDefault:"local"`
	ArtifactPath     string `env:"ARTIFACT_PATH" envDefault:"files/guide.pdf"`
	ArtifactS3Region string `env:"ARTIFACT_S3_REGION"`
	ArtifactS3Bucket string `env:"ARTIFACT_S3_BUCKET"`
	ArtifactS3Key    string `env:"ARTIFACT_S3_KEY"`
	DownloadFilename string `env:"DOWNLOAD_FILENAME" envDefault:"guide.pdf"`

	GrantTTL      time.Duration `env:"GRANT_TTL" envDefault:"24h"`
	OrderTTL      time.Duration `env:"ORDER_TTL" envDefault:"24h"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`
	TransferLease time.Duration `env:"TRANSFER_LEASE" envDefault:"15m"`

	RateLimitRPS   float64  `env:"RATE_LIMIT_RPS" envDefault:"2"`
	RateLimitBurst int      `env:"RATE_LIMIT_BURST" envDefault:"10"`
	CORSOrigins    []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	// TrustedProxies lists the IPs or CIDRs allowed to set X-Forwarded-For.
	// Empty means the peer address is the client address.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	OTLPEndpoint string `env:"OTEL_EXPORTER_ENDPOINT"`
}

// Load reads the environment. Missing gateway credentials are an error so the
// process refuses to start rather than failing on the first purchase.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.GrantTTL <= 0 || c.OrderTTL <= 0 || c.SweepInterval <= 0 || c.TransferLease <= 0 {
		return fmt.Errorf("GRANT_TTL, ORDER_TTL, SWEEP_INTERVAL and TRANSFER_LEASE must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	for _, p := range c.TrustedProxies {
		if strings.Contains(p, "/") {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", p, err)
			}
		} else if net.ParseIP(p) == nil {
			return fmt.Errorf("invalid TRUSTED_PROXIES entry %q", p)
		}
	}
	return nil
}
