package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diatche/airbnb-scraper/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, "airbnb.db", cfg.DatabasePath)
	assert.Equal(t, 8080, cfg.APIPort)
	assert.Equal(t, 6, cfg.Months)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/tmp/test.db")
	t.Setenv("API_PORT", "9999")
	t.Setenv("AVAILABILITY_MONTHS", "12")
	t.Setenv("CURRENCY", "EUR")

	cfg := config.Load()

	assert.Equal(t, "/tmp/test.db", cfg.DatabasePath)
	assert.Equal(t, 9999, cfg.APIPort)
	assert.Equal(t, 12, cfg.Months)
	assert.Equal(t, "EUR", cfg.Currency)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("API_PORT", "not-a-port")
	cfg := config.Load()
	assert.Equal(t, 8080, cfg.APIPort)
}
