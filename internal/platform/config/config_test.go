package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.Set("PGSQL_URL", "postgres://localhost/vibepay")
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(newTestViper(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	assert.True(t, cfg.CommissionRate.Equal(decimal.RequireFromString("0.10")))
	assert.Equal(t, "INR", cfg.DefaultCurrency)
	assert.Equal(t, 24*time.Hour, cfg.WebhookDedupeTTL)
}

func TestFromViper_MemoryStorageNeedsNoDatabase(t *testing.T) {
	cfg, err := fromViper(newTestViper(map[string]any{
		"STORAGE_DRIVER": StorageMemory,
		"PGSQL_URL":      "",
	}))
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
}

func TestFromViper_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
	}{
		{"missing database url", map[string]any{"PGSQL_URL": ""}},
		{"unknown driver", map[string]any{"STORAGE_DRIVER": "sqlite"}},
		{"rate above one", map[string]any{"COMMISSION_RATE": "1.5"}},
		{"negative rate", map[string]any{"COMMISSION_RATE": "-0.1"}},
		{"rate not a number", map[string]any{"COMMISSION_RATE": "ten percent"}},
		{"rate finer than the stored precision", map[string]any{"COMMISSION_RATE": "0.12345"}},
		{"bad timeout", map[string]any{"GATEWAY_TIMEOUT": "soon"}},
		{"zero timeout", map[string]any{"GATEWAY_TIMEOUT": "0s"}},
		{"lowercase currency", map[string]any{"DEFAULT_CURRENCY": "inr"}},
		{"short jwt secret", map[string]any{"JWT_SECRET": "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fromViper(newTestViper(tt.overrides))
			assert.Error(t, err)
		})
	}
}
