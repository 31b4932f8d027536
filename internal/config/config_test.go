package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	cfg := &Config{}
	var ran bool
	cmd := NewCommand(cfg, "test", func(context.Context, *Config) error {
		ran = true
		return nil
	})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		require.True(t, ran)
	}
	return cfg, err
}

func TestDefaults(t *testing.T) {
	cfg, err := execute(t)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3001", cfg.Addr())
	assert.Equal(t, 2*time.Second, cfg.GraceDelay)
	assert.Equal(t, 10*time.Second, cfg.SpawnDelayMin)
	assert.Equal(t, 13*time.Second, cfg.SpawnDelayMax)
	assert.Equal(t, 3*time.Second, cfg.CelebrationDelay)
	assert.Equal(t, 5*time.Second, cfg.MusicTimeout)
	assert.Equal(t, "https://api.deezer.com", cfg.MusicAPI)
	assert.Equal(t, []string{"brazilian funk"}, cfg.MusicQueries)
	assert.Equal(t, []string{"*"}, cfg.Origins)
	assert.Zero(t, cfg.RoomTTL)
	assert.Zero(t, cfg.WinScore)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.Verbose)
}

func TestFlagsAndEnv(t *testing.T) {
	t.Setenv("CHAIRS_PORT", "4000")
	t.Setenv("CHAIRS_ROOM_TTL", "30m")
	t.Setenv("CHAIRS_WIN_SCORE", "5")

	cfg, err := execute(t, "--port", "5000", "--music-query", "samba", "--music-query", "forro", "-v")
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port, "flags beat env")
	assert.Equal(t, 30*time.Minute, cfg.RoomTTL)
	assert.Equal(t, 5, cfg.WinScore)
	assert.Equal(t, []string{"samba", "forro"}, cfg.MusicQueries)
	assert.True(t, cfg.Verbose)

	r := cfg.Round()
	assert.Equal(t, 5, r.WinScore)
	assert.Equal(t, cfg.SpawnDelayMax, r.SpawnDelayMax)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"port too high", []string{"--port", "70000"}},
		{"port zero", []string{"--port", "0"}},
		{"inverted spawn window", []string{"--spawn-delay-min", "15s", "--spawn-delay-max", "5s"}},
		{"negative grace", []string{"--grace-delay", "-1s"}},
		{"negative ttl", []string{"--room-ttl", "-1m"}},
		{"zero music timeout", []string{"--music-timeout", "0"}},
		{"negative win score", []string{"--win-score", "-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestRejectsPositionalArgs(t *testing.T) {
	_, err := execute(t, "extra")
	assert.Error(t, err)
}
