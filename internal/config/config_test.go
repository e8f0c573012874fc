package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FINTRACK_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, 60, cfg.PriceCacheTTL)
	assert.Equal(t, "GSPC.INDX", cfg.BenchmarkSymbol)
	require.NotNil(t, cfg.Backup)
	assert.False(t, cfg.Backup.Enabled)
	assert.Equal(t, 7, cfg.Backup.Retention)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("FINTRACK_DATA_DIR", t.TempDir())
	t.Setenv("FINTRACK_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("BENCHMARK_SYMBOL", "NDX.INDX")
	t.Setenv("PRICE_CACHE_TTL_MINUTES", "15")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "NDX.INDX", cfg.BenchmarkSymbol)
	assert.Equal(t, 15, cfg.PriceCacheTTL)
}

func TestLoad_UnparseablePortFallsBack(t *testing.T) {
	t.Setenv("FINTRACK_DATA_DIR", t.TempDir())
	t.Setenv("FINTRACK_PORT", "not-a-port")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8001, cfg.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid minimal config",
			cfg:  Config{Port: 8001},
		},
		{
			name:    "port zero",
			cfg:     Config{Port: 0},
			wantErr: true,
		},
		{
			name:    "port out of range",
			cfg:     Config{Port: 70000},
			wantErr: true,
		},
		{
			name:    "negative cache ttl",
			cfg:     Config{Port: 8001, PriceCacheTTL: -5},
			wantErr: true,
		},
		{
			name: "backups enabled without bucket",
			cfg: Config{
				Port:   8001,
				Backup: &BackupConfig{Enabled: true, AccessKeyID: "k", SecretAccessKey: "s"},
			},
			wantErr: true,
		},
		{
			name: "backups enabled without credentials",
			cfg: Config{
				Port:   8001,
				Backup: &BackupConfig{Enabled: true, Bucket: "fintrack-backups"},
			},
			wantErr: true,
		},
		{
			name: "backups fully configured",
			cfg: Config{
				Port: 8001,
				Backup: &BackupConfig{
					Enabled:         true,
					Bucket:          "fintrack-backups",
					AccessKeyID:     "k",
					SecretAccessKey: "s",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
