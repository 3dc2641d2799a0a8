package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kavach-security/kavach/pkg/config"
)

type testConfig struct {
	Name    string   `env:"CONFIG_TEST_NAME" envDefault:"kavach"`
	Port    int      `env:"CONFIG_TEST_PORT" envDefault:"8080"`
	Debug   bool     `env:"CONFIG_TEST_DEBUG" envDefault:"false"`
	Origins []string `env:"CONFIG_TEST_ORIGINS" envSeparator:","`
}

type requiredConfig struct {
	Secret string `env:"CONFIG_TEST_REQUIRED_SECRET,required"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "kavach", cfg.Name)
	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.Debug)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CONFIG_TEST_NAME", "other")
	t.Setenv("CONFIG_TEST_PORT", "9090")
	t.Setenv("CONFIG_TEST_DEBUG", "true")
	t.Setenv("CONFIG_TEST_ORIGINS", "a.example.com,b.example.com")

	var cfg testConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "other", cfg.Name)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, cfg.Origins)
}

func TestLoad_RequiredMissing(t *testing.T) {
	var cfg requiredConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_NilPointer(t *testing.T) {
	err := config.Load[testConfig](nil)
	assert.ErrorIs(t, err, config.ErrNilPointer)
}

func TestMustLoad_Panics(t *testing.T) {
	var cfg requiredConfig
	assert.Panics(t, func() { config.MustLoad(&cfg) })
}
