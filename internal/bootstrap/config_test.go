package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/tenant-auth/config"
)

func TestGetEnabledServices(t *testing.T) {
	assert.Equal(t, []string{"http", "reaper"}, GetEnabledServices(&config.AppConfig{Services: "reaper,http"}))
	assert.Equal(t, []string{}, GetEnabledServices(&config.AppConfig{Services: "bogus"}))
	assert.Equal(t, []string{}, GetEnabledServices(nil))
}

func TestValidateConfig(t *testing.T) {
	require.Error(t, ValidateConfig(nil))
	require.Error(t, ValidateConfig(&config.AppConfig{Services: ""}))

	cfg := &config.AppConfig{
		IsDev:    true,
		Services: "http",
		Auth:     mockAuthConfig(),
	}
	assert.NoError(t, ValidateConfig(cfg))

	cfg.Auth.Origin = ""
	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "origin")
}
