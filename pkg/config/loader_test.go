package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Port    int           `env:"HTTP_PORT" envDefault:"8010"`
	Fields  []string      `env:"FIELDS" envSeparator:"," envDefault:"slug,name"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"5s"`
	Secret  string        `env:"SECRET,required"`
}

func TestLoadWithEnv_Defaults(t *testing.T) {
	var cfg sample
	require.NoError(t, LoadWithEnv(&cfg, map[string]string{"SECRET": "s"}))

	assert.Equal(t, 8010, cfg.Port)
	assert.Equal(t, []string{"slug", "name"}, cfg.Fields)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoadWithEnv_Overrides(t *testing.T) {
	var cfg sample
	require.NoError(t, LoadWithEnv(&cfg, map[string]string{
		"SECRET":    "s",
		"HTTP_PORT": "9000",
		"FIELDS":    "slug,name,photo",
	}))

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, []string{"slug", "name", "photo"}, cfg.Fields)
}

func TestLoadWithEnv_MissingRequired(t *testing.T) {
	var cfg sample
	err := LoadWithEnv(&cfg, map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
