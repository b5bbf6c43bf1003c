package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(overrides map[string]string) *viper.Viper {
	v := viper.New()
	defaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(newViper(nil))
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, 5*time.Minute, cfg.ExpirySweepInterval)
	assert.Equal(t, time.Minute, cfg.LoginThrottle)
	assert.Equal(t, 5, cfg.MaxLoginFailures)
	assert.Empty(t, cfg.AdminEmails)
}

func TestFromViper_Overrides(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]string{
		"APP_ENV":               "production",
		"STORE_DRIVER":          "SQLite",
		"ADMIN_EMAILS":          " Head@School.edu, ,deputy@school.edu ",
		"ALLOWED_ORIGINS":       "https://avisos.school.edu,https://admin.school.edu",
		"EXPIRY_SWEEP_INTERVAL": "30s",
	}))
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, []string{"head@school.edu", "deputy@school.edu"}, cfg.AdminEmails)
	assert.Len(t, cfg.AllowedOrigins, 2)
	assert.Equal(t, 30*time.Second, cfg.ExpirySweepInterval)
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "STORE_DRIVER", "mongo"},
		{"bad ttl", "JWT_TTL", "forever"},
		{"bad throttle", "LOGIN_THROTTLE", "2"},
		{"zero sweep interval", "EXPIRY_SWEEP_INTERVAL", "0s"},
		{"no login failures allowed", "LOGIN_MAX_FAILURES", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromViper(newViper(map[string]string{tt.key: tt.val}))
			assert.Error(t, err)
		})
	}
}
