package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/statekit/internal/config"
)

type defaultsConfig struct {
	TestString string `env:"TEST_STRING_DEFAULT" envDefault:"default_value"`
	TestInt    int    `env:"TEST_INT_DEFAULT" envDefault:"42"`
	TestBool   bool   `env:"TEST_BOOL_DEFAULT" envDefault:"true"`
}

type successConfig struct {
	TestString string `env:"TEST_STRING_SUCCESS" envDefault:"default_value"`
	TestInt    int    `env:"TEST_INT_SUCCESS" envDefault:"42"`
}

type singletonConfig struct {
	TestString string `env:"TEST_STRING_SINGLETON" envDefault:"default_value"`
}

type requiredConfig struct {
	Required string `env:"REQUIRED_VALUE,required,notEmpty"`
}

type customConfig struct {
	TestString string `env:"TEST_CUSTOM_STRING"`
	TestInt    int    `env:"TEST_CUSTOM_INT"`
}

func TestLoad_Success(t *testing.T) {
	t.Setenv("TEST_STRING_SUCCESS", "test_value")
	t.Setenv("TEST_INT_SUCCESS", "100")

	var cfg successConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "test_value", cfg.TestString)
	assert.Equal(t, 100, cfg.TestInt)
}

func TestLoad_DefaultValues(t *testing.T) {
	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "default_value", cfg.TestString)
	assert.Equal(t, 42, cfg.TestInt)
	assert.True(t, cfg.TestBool)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("REQUIRED_VALUE", "")

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.ErrorIs(t, err, config.ErrParsingConfig)

	t.Setenv("REQUIRED_VALUE", "present")
	require.NoError(t, config.Load(&cfg), "a failed load can be retried")
	assert.Equal(t, "present", cfg.Required)
}

func TestLoad_Singleton(t *testing.T) {
	t.Setenv("TEST_STRING_SINGLETON", "first_value")

	var first singletonConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("TEST_STRING_SINGLETON", "second_value")

	var second singletonConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first_value", second.TestString, "second load is served from the cache")
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *successConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("TEST_CUSTOM_STRING", "")
	t.Setenv("TEST_CUSTOM_INT", "")
	t.Setenv("STATE_STORE", "")
	t.Setenv("LOG_FORMAT", "")

	require.NoError(t, config.LoadEnv("testdata/.env.custom", "testdata/.env.override"))

	var cfg customConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "override_value", cfg.TestString)
	assert.Equal(t, 1234, cfg.TestInt)

	var app config.Config
	require.NoError(t, config.Load(&app))
	assert.Equal(t, config.StorePostgres, app.Store)
	assert.Equal(t, "json", app.LogFormat)
	require.NoError(t, app.Validate())
}

func TestLoadEnv_Missing(t *testing.T) {
	assert.Error(t, config.LoadEnv("testdata/missing.env"))
	assert.Panics(t, func() { config.MustLoadEnv("testdata/missing.env") })
}

func TestConfig_Validate(t *testing.T) {
	valid := config.Config{Store: config.StoreMemory, LogLevel: "info", LogFormat: "text"}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.Store = "etcd"
	assert.ErrorIs(t, bad.Validate(), config.ErrUnknownStore)

	bad = valid
	bad.LogLevel = "loud"
	assert.ErrorIs(t, bad.Validate(), config.ErrParsingConfig)

	bad = valid
	bad.LogFormat = "xml"
	assert.ErrorIs(t, bad.Validate(), config.ErrParsingConfig)
}
