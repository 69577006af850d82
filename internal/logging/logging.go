// Package logging builds the shared zap logger and provides masking
// helpers for sensitive fields in log output.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New constructs a JSON logger tagged with the service name. The level is
// read from LOG_LEVEL (default info).
func New(service string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsed, err := zapcore.ParseLevel(strings.ToLower(lvl))
		if err == nil {
			cfg.Level = zap.NewAtomicLevelAt(parsed)
		}
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", service)), nil
}

// MaskAccountNumber hides all but the last four characters of an account
// number for log output.
func MaskAccountNumber(accountNumber string) string {
	if len(accountNumber) <= 4 {
		return strings.Repeat("*", len(accountNumber))
	}
	return strings.Repeat("*", len(accountNumber)-4) + accountNumber[len(accountNumber)-4:]
}

// MaskAmount hides the digits of a monetary amount, keeping only its
// magnitude (number of integer digits) visible.
func MaskAmount(amount string) string {
	masked := make([]byte, len(amount))
	for i := 0; i < len(amount); i++ {
		if amount[i] >= '0' && amount[i] <= '9' {
			masked[i] = '*'
		} else {
			masked[i] = amount[i]
		}
	}
	return string(masked)
}
