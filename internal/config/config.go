package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/sangkips/vendas-api/internal/domain/enum"
	"github.com/sangkips/vendas-api/internal/domain/pricing"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
	Pricing   pricing.Config
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	Name       string
	User       string
	Password   string
	SSLMode    string
	Timezone   string
	SQLitePath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis server was configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
}

// Enabled reports whether traces should be exported.
func (c TelemetryConfig) Enabled() bool {
	return c.OTLPEndpoint != ""
}

// Load reads configuration from .env and the environment. Pricing tables
// that fail to parse fall back to the defaults with a warning.
func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	return FromViper(viper.GetViper())
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	setDefaults(v)

	pricingCfg, err := loadPricing(v)
	if err != nil {
		log.Printf("Warning: invalid pricing configuration, using defaults: %v", err)
		pricingCfg = pricing.DefaultConfig()
	}

	return &Config{
		App: AppConfig{
			Name:  v.GetString("APP_NAME"),
			Env:   v.GetString("APP_ENV"),
			Port:  v.GetString("APP_PORT"),
			Debug: v.GetBool("APP_DEBUG"),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(v.GetString("DB_DRIVER")),
			Host:       v.GetString("DB_HOST"),
			Port:       v.GetString("DB_PORT"),
			Name:       v.GetString("DB_NAME"),
			User:       v.GetString("DB_USER"),
			Password:   v.GetString("DB_PASSWORD"),
			SSLMode:    v.GetString("DB_SSL_MODE"),
			Timezone:   v.GetString("DB_TIMEZONE"),
			SQLitePath: v.GetString("SQLITE_PATH"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods: splitList(v.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders: splitList(v.GetString("CORS_ALLOWED_HEADERS")),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: v.GetInt("RATE_LIMIT_DURATION"),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName:  v.GetString("OTEL_SERVICE_NAME"),
		},
		Pricing: pricingCfg,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "vendas-api")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "5000")
	v.SetDefault("APP_DEBUG", true)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "vendas")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "America/Sao_Paulo")
	v.SetDefault("SQLITE_PATH", "vendas.db")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_DURATION", 60)
	v.SetDefault("OTEL_SERVICE_NAME", "vendas-api")
	v.SetDefault("PRICING_DEBIT_RATE", "1.88")
	v.SetDefault("PRICING_CREDIT_AT_ONCE_RATE", "4.46")
	v.SetDefault("PRICING_CREDIT_INSTALLMENT_RATES", strings.Join(pricing.DefaultCreditInstallmentRates, ","))
	v.SetDefault("PRICING_PACKAGING_PACKAGE", "3.50")
	v.SetDefault("PRICING_PACKAGING_SMALL_BAG", "6.00")
	v.SetDefault("PRICING_PACKAGING_LARGE_BAG", "8.00")
}

// loadPricing reads rates as percentages and packaging costs as amounts.
func loadPricing(v *viper.Viper) (pricing.Config, error) {
	debit, err := percent(v, "PRICING_DEBIT_RATE")
	if err != nil {
		return pricing.Config{}, err
	}
	atOnce, err := percent(v, "PRICING_CREDIT_AT_ONCE_RATE")
	if err != nil {
		return pricing.Config{}, err
	}

	installments := make(map[int]decimal.Decimal)
	for i, raw := range splitList(v.GetString("PRICING_CREDIT_INSTALLMENT_RATES")) {
		pct, err := decimal.NewFromString(raw)
		if err != nil {
			return pricing.Config{}, fmt.Errorf("PRICING_CREDIT_INSTALLMENT_RATES[%d]: %w", i, err)
		}
		installments[i+2] = pricing.Percent(pct)
	}

	costs := make(map[enum.PackagingType]decimal.Decimal, 3)
	for key, t := range map[string]enum.PackagingType{
		"PRICING_PACKAGING_PACKAGE":   enum.PackagingTypePackage,
		"PRICING_PACKAGING_SMALL_BAG": enum.PackagingTypeSmallBag,
		"PRICING_PACKAGING_LARGE_BAG": enum.PackagingTypeLargeBag,
	} {
		cost, err := decimal.NewFromString(v.GetString(key))
		if err != nil {
			return pricing.Config{}, fmt.Errorf("%s: %w", key, err)
		}
		costs[t] = cost
	}

	cfg := pricing.Config{
		DebitRate:              debit,
		CreditAtOnceRate:       atOnce,
		CreditInstallmentRates: installments,
		PackagingCosts:         costs,
	}
	if _, err := pricing.NewPolicy(cfg); err != nil {
		return pricing.Config{}, err
	}
	return cfg, nil
}

func percent(v *viper.Viper, key string) (decimal.Decimal, error) {
	pct, err := decimal.NewFromString(v.GetString(key))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	return pricing.Percent(pct), nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}

// Address is the listen address for the HTTP server.
func (c *AppConfig) Address() string {
	port := c.Port
	if port == "" {
		port = "5000"
	}
	return ":" + port
}
