package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ConfigSuite struct {
	suite.Suite
}

func TestConfig(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) clearCredentials() {
	s.T().Setenv("RECURPIX_TELEGRAM_TOKEN", "")
	s.T().Setenv("RECURPIX_GATEWAY_BASEURL", "")
	s.T().Setenv("RECURPIX_GATEWAY_APIKEY", "")
}

func (s *ConfigSuite) TestEnvOnlyCredentialsStartTheProcess() {
	s.T().Setenv("RECURPIX_TELEGRAM_TOKEN", "tg-token")
	s.T().Setenv("RECURPIX_GATEWAY_BASEURL", "https://gateway.example")
	s.T().Setenv("RECURPIX_GATEWAY_APIKEY", "gw-key")

	cfg, err := NewConfig()
	s.Require().NoError(err)

	s.Equal("tg-token", cfg.Telegram.Token)
	s.Equal("https://gateway.example", cfg.Gateway.BaseURL)
	s.Equal("gw-key", cfg.Gateway.APIKey)

	// Defaults survive alongside the env overlay.
	s.Equal(30, cfg.Telegram.PollTimeout)
	s.Equal(2*time.Hour, cfg.Billing.RetryInterval)
	s.Equal(int64(3000), cfg.Billing.MaxAmount)
}

func (s *ConfigSuite) TestEnvOverridesDefaults() {
	s.T().Setenv("RECURPIX_TELEGRAM_TOKEN", "tg-token")
	s.T().Setenv("RECURPIX_GATEWAY_BASEURL", "https://gateway.example")
	s.T().Setenv("RECURPIX_GATEWAY_APIKEY", "gw-key")
	s.T().Setenv("RECURPIX_BILLING_MAXAMOUNT", "500")
	s.T().Setenv("RECURPIX_GATEWAY_REQUIRETAXID", "true")
	s.T().Setenv("RECURPIX_GATEWAY_DEFAULTTAXID", "52998224725")

	cfg, err := NewConfig()
	s.Require().NoError(err)

	s.Equal(int64(500), cfg.Billing.MaxAmount)
	s.True(cfg.Gateway.RequireTaxID)
	s.Equal("52998224725", cfg.Gateway.DefaultTaxID)
}

func (s *ConfigSuite) TestMissingTokenIsFatal() {
	s.clearCredentials()
	s.T().Setenv("RECURPIX_GATEWAY_BASEURL", "https://gateway.example")
	s.T().Setenv("RECURPIX_GATEWAY_APIKEY", "gw-key")

	_, err := NewConfig()
	s.Error(err)
}

func (s *ConfigSuite) TestMissingGatewayCredentialsAreFatal() {
	s.clearCredentials()
	s.T().Setenv("RECURPIX_TELEGRAM_TOKEN", "tg-token")

	_, err := NewConfig()
	s.Error(err)
}
