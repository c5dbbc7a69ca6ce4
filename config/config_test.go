package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetters(t *testing.T) {
	cfg := map[string]string{
		"PORT":             "9090",
		"BAD_INT":          "nine",
		"RATE":             "2.5",
		"ENABLED":          "true",
		"TIMEOUT":          "15",
		"ACCEPTED_ORIGINS": "https://a.dev, ,https://b.dev ",
	}

	assert.Equal(t, "9090", GetString(cfg, "PORT", "8080"))
	assert.Equal(t, "8080", GetString(cfg, "MISSING", "8080"))
	assert.Equal(t, "x", GetString(nil, "PORT", "x"))

	assert.Equal(t, 9090, GetInt(cfg, "PORT", 1))
	assert.Equal(t, 1, GetInt(cfg, "BAD_INT", 1))

	assert.Equal(t, 2.5, GetFloat(cfg, "RATE", 1))
	assert.True(t, GetBool(cfg, "ENABLED", false))
	assert.False(t, GetBool(cfg, "MISSING", false))
	assert.Equal(t, 15*time.Second, GetSeconds(cfg, "TIMEOUT", 30))
	assert.Equal(t, []string{"https://a.dev", "https://b.dev"}, GetList(cfg, "ACCEPTED_ORIGINS"))
	assert.Nil(t, GetList(cfg, "MISSING"))
}

func TestNewReadsEnvironment(t *testing.T) {
	t.Setenv("PORTFOLIO_TEST_KEY", "a=b")

	cfg := New()
	assert.Equal(t, "a=b", cfg["PORTFOLIO_TEST_KEY"])
}
