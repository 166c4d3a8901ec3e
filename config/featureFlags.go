package config

import (
	"os"
	"strings"
)

func envFlag(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// AllowNegativeStock disables the insufficient-stock guard on usage, sale, adjustment and void.
// Only meant for replaying legacy data that already went negative.
//
// Set via env:
// - ALLOW_NEGATIVE_STOCK=true
func AllowNegativeStock() bool {
	return envFlag("ALLOW_NEGATIVE_STOCK")
}

// WeeklyReportEnabled turns on the weekly report scheduler in the server process.
func WeeklyReportEnabled() bool {
	return envFlag("WEEKLY_REPORT_ENABLED")
}

// OutboxEnabled runs the outbox dispatcher. Outbox rows are written regardless.
func OutboxEnabled() bool {
	return envFlag("OUTBOX_ENABLED")
}
