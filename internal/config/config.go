package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/recurpix/recurpix/internal/types"
)

type Configuration struct {
	Telegram TelegramConfig `validate:"required"`
	Gateway  GatewayConfig  `validate:"required"`
	Billing  BillingConfig  `validate:"required"`
	Store    StoreConfig    `validate:"required"`
	Server   ServerConfig
	Logging  LoggingConfig
}

// TelegramConfig holds the chat channel credential and polling knobs.
// A missing token is a fatal startup error.
type TelegramConfig struct {
	Token       string `validate:"required"`
	PollTimeout int
}

// GatewayConfig holds the PIX gateway credential and charge defaults
type GatewayConfig struct {
	BaseURL     string `validate:"required"`
	APIKey      string `validate:"required"`
	Recipient   string
	Description string
	// RequireTaxID makes onboarding collect a per-subscriber CPF/CNPJ.
	// When false, DefaultTaxID is sent on every charge instead.
	RequireTaxID bool
	DefaultTaxID string
	Timeout      time.Duration
}

// BillingConfig holds retry cadence and amount policy
type BillingConfig struct {
	RetryInterval time.Duration
	ChargeExpiry  time.Duration
	MaxAmount     int64
	SweepSchedule string
}

type StoreConfig struct {
	Path string `validate:"required"`
}

type ServerConfig struct {
	Address string
}

type LoggingConfig struct {
	Level types.LogLevel
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/recurpix")

	v.SetEnvPrefix("RECURPIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	// AutomaticEnv only overlays keys viper already knows about. The
	// credential keys carry no default on purpose, so they must be bound
	// explicitly or RECURPIX_TELEGRAM_TOKEN and friends never reach
	// Unmarshal.
	for _, key := range []string{
		"telegram.token",
		"gateway.baseurl",
		"gateway.apikey",
		"gateway.recipient",
		"gateway.requiretaxid",
		"gateway.defaulttaxid",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
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
	v.SetDefault("telegram.polltimeout", 30)
	v.SetDefault("gateway.description", "Cobranca recorrente")
	v.SetDefault("gateway.timeout", 30*time.Second)
	v.SetDefault("billing.retryinterval", 2*time.Hour)
	v.SetDefault("billing.chargeexpiry", 2*time.Hour)
	v.SetDefault("billing.maxamount", 3000)
	v.SetDefault("billing.sweepschedule", "0 9 * * *")
	v.SetDefault("store.path", "subscribers.json")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", "info")
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for tests and scripts
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Telegram: TelegramConfig{Token: "test-token", PollTimeout: 1},
		Gateway: GatewayConfig{
			BaseURL:     "http://localhost:9999",
			APIKey:      "test-key",
			Description: "Cobranca recorrente",
			Timeout:     5 * time.Second,
		},
		Billing: BillingConfig{
			RetryInterval: 2 * time.Hour,
			ChargeExpiry:  2 * time.Hour,
			MaxAmount:     3000,
			SweepSchedule: "0 9 * * *",
		},
		Store:   StoreConfig{Path: "subscribers.json"},
		Server:  ServerConfig{Address: ":8080"},
		Logging: LoggingConfig{Level: types.LogLevelDebug},
	}
}
