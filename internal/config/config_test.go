package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/finsight/internal/common"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("FINSIGHT_TEST_DIR", "/srv/data")

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: MemoryPath, want: MemoryPath},
		{in: "~", want: home},
		{in: "~/finsight.db", want: filepath.Join(home, "finsight.db")},
		{in: "$FINSIGHT_TEST_DIR/finsight.db", want: "/srv/data/finsight.db"},
		{in: "/abs/path.db", want: "/abs/path.db"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpandPath(tt.in), tt.in)
	}
}

func TestLoad(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyDatabasePath, "/tmp/finsight.db")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/finsight.db", cfg.DatabasePath)
	assert.Equal(t, 4, cfg.MaxOpenConns)
	assert.True(t, cfg.AutoCheckpoint)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyMaxOpenConns, 0)
	_, err := Load(v)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	v = viper.New()
	SetDefaults(v)
	v.Set(KeyDatabasePath, "")
	_, err = Load(v)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("FINSIGHT_DOTENV_TEST=loaded\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv("FINSIGHT_DOTENV_TEST") })

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "loaded", os.Getenv("FINSIGHT_DOTENV_TEST"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
