package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, 100, cfg.HistoryCapacity)
	assert.Equal(t, 50, cfg.HistoryReplay)
	assert.Equal(t, []string{"spam", "hack", "admin"}, cfg.BannedWords)
	assert.Equal(t, '*', cfg.MaskRune())
	assert.Equal(t, "ip", cfg.OriginMode)
	assert.Equal(t, 10*time.Minute, cfg.PrivateRoomTTL)
	assert.Equal(t, time.Minute, cfg.JanitorInterval)
	assert.Equal(t, 5, cfg.CreateRoomLimit)
	assert.Equal(t, time.Minute, cfg.CreateRoomInterval)
	assert.Empty(t, cfg.File)

	require.Len(t, cfg.PublicRooms, 6)
	assert.Equal(t, RoomConfig{ID: "general", Name: "Général"}, cfg.PublicRooms[0])
	assert.Equal(t, RoomConfig{ID: "detente", Name: "Détente"}, cfg.PublicRooms[5])
}

func TestLoadFile_YAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	yaml := `
mode: debug
port: 9000
ping_period: 30s
banned_words: [foo, bar]
mask_char: "#"
history_replay: 500
public_rooms:
  - id: lobby
    name: Lobby
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("DIALNET_ORIGIN_MODE", "client")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.PingPeriod)
	assert.Equal(t, []string{"foo", "bar"}, cfg.BannedWords)
	assert.Equal(t, '#', cfg.MaskRune())
	assert.Equal(t, "client", cfg.OriginMode)
	assert.Equal(t, 100, cfg.HistoryReplay, "replay is capped at capacity")
	assert.Equal(t, []RoomConfig{{ID: "lobby", Name: "Lobby"}}, cfg.PublicRooms)
	assert.Equal(t, path, cfg.File)
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "bad origin mode", yaml: "origin_mode: cookie\n"},
		{name: "bad port", yaml: "port: 70000\n"},
		{name: "bad policy", yaml: "slow_policy: ignore\n"},
		{name: "room without id", yaml: "public_rooms:\n  - name: Nameless\n"},
		{name: "zero room ttl", yaml: "private_room_ttl: 0s\n"},
		{name: "zero create limit", yaml: "create_room_limit: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := LoadFile(path)
			assert.Error(t, err)
		})
	}
}
