package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/finops/ffc-billing/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Configuration struct {
	Logging       LoggingConfig       `validate:"required"`
	Billing       BillingConfig       `validate:"required"`
	MPT           MPTConfig           `mapstructure:"mpt" validate:"required"`
	FFC           FFCConfig           `mapstructure:"ffc" validate:"required"`
	ExchangeRates ExchangeRatesConfig `mapstructure:"exchange_rates" validate:"required"`
	HTTP          HTTPConfig          `mapstructure:"http"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Sentry        SentryConfig        `mapstructure:"sentry"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type BillingConfig struct {
	// ProductID scopes the authorizations listed from the marketplace
	ProductID string `mapstructure:"product_id" validate:"required"`
	// ExternalProductID is the item vendor id every charge line points at
	ExternalProductID       string          `mapstructure:"external_product_id" validate:"required"`
	DefaultBilledPercentage string          `mapstructure:"default_billed_percentage" validate:"required,numeric"`
	MaxConcurrency          int             `mapstructure:"max_concurrency" validate:"min=1"`
	ChargesDir              string          `mapstructure:"charges_dir"`
	ValidationBackoff       []time.Duration `mapstructure:"validation_backoff" validate:"min=1"`
	SentinelAgreementID     string          `mapstructure:"sentinel_agreement_id"`
	DefaultCutoffDay        int             `mapstructure:"default_cutoff_day" validate:"min=1,max=28"`
}

type MPTConfig struct {
	BaseURL  string `mapstructure:"base_url" validate:"required,url"`
	APIToken string `mapstructure:"api_token" validate:"required"`
	PageSize int    `mapstructure:"page_size" validate:"min=1"`
}

type FFCConfig struct {
	BaseURL          string `mapstructure:"base_url" validate:"required,url"`
	Sub              string `mapstructure:"sub" validate:"required"`
	OperationsSecret string `mapstructure:"operations_secret" validate:"required"`
	PageSize         int    `mapstructure:"page_size" validate:"min=1"`
}

type ExchangeRatesConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
}

type HTTPConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	RetryMax          int           `mapstructure:"retry_max"`
	RetryWaitMin      time.Duration `mapstructure:"retry_wait_min"`
	RetryWaitMax      time.Duration `mapstructure:"retry_wait_max"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

type NotificationsConfig struct {
	TeamsWebhookURL string `mapstructure:"teams_webhook_url"`
}

type SentryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

func NewConfig() (*Configuration, error) {
	// .env is optional and only meant for local runs
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/ffc-billing")

	v.SetEnvPrefix("FFC_BILLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("billing.default_billed_percentage", "4")
	v.SetDefault("billing.max_concurrency", 10)
	v.SetDefault("billing.validation_backoff", DefaultValidationBackoff())
	v.SetDefault("billing.sentinel_agreement_id", DefaultSentinelAgreementID)
	v.SetDefault("billing.default_cutoff_day", 5)
	v.SetDefault("mpt.page_size", 50)
	v.SetDefault("ffc.page_size", 50)
	v.SetDefault("http.timeout", 180*time.Second)
	v.SetDefault("http.retry_max", 5)
	v.SetDefault("http.retry_wait_min", 500*time.Millisecond)
	v.SetDefault("http.retry_wait_max", 8*time.Second)
	v.SetDefault("metrics.job", "ffc_billing")
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// BilledPercentage returns the percentage applied when an agreement does not carry its own.
func (c BillingConfig) BilledPercentage() decimal.Decimal {
	pct, err := decimal.NewFromString(c.DefaultBilledPercentage)
	if err != nil {
		return decimal.Zero
	}
	return pct
}

// DefaultSentinelAgreementID marks the placeholder organization that never gets billed.
const DefaultSentinelAgreementID = "AGR-0000-0000-0000"

// DefaultValidationBackoff is the wait schedule used while polling a journal for validation.
func DefaultValidationBackoff() []time.Duration {
	return []time.Duration{
		150 * time.Millisecond,
		450 * time.Millisecond,
		1050 * time.Millisecond,
		2250 * time.Millisecond,
		4650 * time.Millisecond,
	}
}

// GetDefaultConfig returns a configuration usable without a config file.
// Useful for tests and local scripts.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Logging: LoggingConfig{Level: types.LogLevelDebug},
		Billing: BillingConfig{
			ProductID:               "PRD-0000-0000",
			ExternalProductID:       "FFC-PRODUCT",
			DefaultBilledPercentage: "4",
			MaxConcurrency:          10,
			ValidationBackoff:       DefaultValidationBackoff(),
			SentinelAgreementID:     DefaultSentinelAgreementID,
			DefaultCutoffDay:        5,
		},
		MPT:           MPTConfig{BaseURL: "http://localhost:8080", APIToken: "token", PageSize: 50},
		FFC:           FFCConfig{BaseURL: "http://localhost:8081", Sub: "ffc", OperationsSecret: "secret", PageSize: 50},
		ExchangeRates: ExchangeRatesConfig{BaseURL: "http://localhost:8082"},
		HTTP: HTTPConfig{
			Timeout:      180 * time.Second,
			RetryMax:     5,
			RetryWaitMin: 500 * time.Millisecond,
			RetryWaitMax: 8 * time.Second,
		},
		Metrics: MetricsConfig{Job: "ffc_billing"},
	}
}
