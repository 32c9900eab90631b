// Package config loads service settings from defaults, an optional YAML file and the
// environment. Environment variables use the key path in upper case with "_" for ".",
// e.g. MONGO_URI or PAYMENT_SECRET_KEY.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ondegooltd/sirahats-sub001/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Payment PaymentConfig `mapstructure:"payment"`
	Mail    MailConfig    `mapstructure:"mail"`
	Pricing PricingConfig `mapstructure:"pricing"`
	Log     LogConfig     `mapstructure:"log"`

	// Checkout is Pricing parsed into money values.
	Checkout domain.Pricing `mapstructure:"-"`
}

type HTTPConfig struct {
	Port               string        `mapstructure:"port"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	MaxRequestBodySize int64         `mapstructure:"max_request_body_size"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// RedisConfig with an empty Addr runs without the cart cache.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Prefix   string        `mapstructure:"key_prefix"`
}

// KafkaConfig with no brokers delivers notifications in-process.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type AuthConfig struct {
	JWTSecret   string        `mapstructure:"jwt_secret"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	AdminEmails []string      `mapstructure:"admin_emails"`
}

type PaymentConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	SecretKey       string        `mapstructure:"secret_key"`
	Currency        string        `mapstructure:"currency"`
	Channels        []string      `mapstructure:"channels"`
	CallbackURL     string        `mapstructure:"callback_url"`
	SignatureHeader string        `mapstructure:"signature_header"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// MailConfig with an empty BaseURL logs outgoing mail instead of sending it.
type MailConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	From       string        `mapstructure:"from"`
	AdminInbox string        `mapstructure:"admin_inbox"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type PricingConfig struct {
	ShippingFee           string `mapstructure:"shipping_fee"`
	FreeShippingThreshold string `mapstructure:"free_shipping_threshold"`
	TaxRate               string `mapstructure:"tax_rate"`
	DeliveryDays          int    `mapstructure:"delivery_days"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", "8080")
	v.SetDefault("http.request_timeout", 30*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.max_request_body_size", 1<<20)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "storefront")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", 15*time.Minute)
	v.SetDefault("redis.key_prefix", "storefront")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "storefront-notifications")
	v.SetDefault("kafka.group_id", "storefront-mailer")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.admin_emails", []string{})

	v.SetDefault("payment.base_url", "https://api.paystack.co")
	v.SetDefault("payment.secret_key", "")
	v.SetDefault("payment.currency", "NGN")
	v.SetDefault("payment.channels", []string{"card", "bank", "ussd", "bank_transfer"})
	v.SetDefault("payment.callback_url", "")
	v.SetDefault("payment.signature_header", "x-paystack-signature")
	v.SetDefault("payment.timeout", 15*time.Second)

	v.SetDefault("mail.base_url", "")
	v.SetDefault("mail.api_key", "")
	v.SetDefault("mail.from", "orders@localhost")
	v.SetDefault("mail.admin_inbox", "")
	v.SetDefault("mail.timeout", 10*time.Second)

	v.SetDefault("pricing.shipping_fee", "0")
	v.SetDefault("pricing.free_shipping_threshold", "0")
	v.SetDefault("pricing.tax_rate", "0")
	v.SetDefault("pricing.delivery_days", 7)

	v.SetDefault("log.level", "info")
}

// Load reads configuration. path may be empty, in which case only defaults and the
// environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	pricing, err := cfg.Pricing.parse()
	if err != nil {
		return nil, err
	}
	cfg.Checkout = pricing

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (p PricingConfig) parse() (domain.Pricing, error) {
	fee, err := domain.ParseAmount(p.ShippingFee)
	if err != nil {
		return domain.Pricing{}, fmt.Errorf("invalid pricing.shipping_fee: %w", err)
	}
	threshold, err := domain.ParseAmount(p.FreeShippingThreshold)
	if err != nil {
		return domain.Pricing{}, fmt.Errorf("invalid pricing.free_shipping_threshold: %w", err)
	}
	rate, err := decimal.NewFromString(p.TaxRate)
	if err != nil {
		return domain.Pricing{}, fmt.Errorf("invalid pricing.tax_rate: %w", err)
	}
	if fee.IsNegative() || threshold.IsNegative() || rate.IsNegative() {
		return domain.Pricing{}, errors.New("pricing values must not be negative")
	}
	return domain.Pricing{ShippingFee: fee, FreeShippingThreshold: threshold, TaxRate: rate}, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Payment.SecretKey == "" {
		errs = append(errs, errors.New("payment.secret_key is required"))
	}
	if c.Mongo.URI == "" || c.Mongo.Database == "" {
		errs = append(errs, errors.New("mongo.uri and mongo.database are required"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka.topic is required when brokers are set"))
	}
	return errors.Join(errs...)
}

// EstimatedDelivery is how long after placement an order is expected to arrive.
func (c *Config) EstimatedDelivery() time.Duration {
	return time.Duration(c.Pricing.DeliveryDays) * 24 * time.Hour
}
