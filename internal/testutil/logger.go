package testutil

import (
	"github.com/recurpix/recurpix/internal/config"
	"github.com/recurpix/recurpix/internal/logger"
)

// NewTestLogger returns a logger suitable for tests
func NewTestLogger() *logger.Logger {
	log, err := logger.NewLogger(config.GetDefaultConfig())
	if err != nil {
		panic(err)
	}
	return log
}
