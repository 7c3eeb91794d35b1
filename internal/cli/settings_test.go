package cli

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/pronounce/internal/audio"
	"codeberg.org/snonux/pronounce/internal/player"
	"codeberg.org/snonux/pronounce/internal/sound"
)

func loadWithArgs(t *testing.T, args ...string) (*Settings, error) {
	t.Helper()
	resetViper(t)

	cmd := &cobra.Command{}
	flags := NewFlags()
	setupFlags(cmd, flags)
	require.NoError(t, cmd.ParseFlags(args))

	return LoadSettings(flags)
}

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := loadWithArgs(t)
	require.NoError(t, err)

	assert.Equal(t, audio.AccentUS, s.Accent)
	assert.Equal(t, player.Preempt, s.Policy)
	assert.Equal(t, 2*time.Second, s.Timeout)
	assert.Equal(t, sound.KindDevice, s.SinkKind)
	assert.Equal(t, audio.DefaultEndpoints(), s.Endpoints)
	assert.Equal(t, zerolog.WarnLevel, s.LogLevel)
	assert.False(t, s.ForwardHeaders)
	assert.Empty(t, s.HistoryPath)
}

func TestLoadSettingsFlags(t *testing.T) {
	s, err := loadWithArgs(t,
		"-a", "UK",
		"--policy", "reject",
		"--forward-headers",
		"--timeout", "3s",
		"--sink", "command",
		"--player-cmd", "mpg123 -q",
		"-H", "x-crypto=Viktor=abc",
		"--log-level", "debug",
	)
	require.NoError(t, err)

	assert.Equal(t, audio.AccentUK, s.Accent)
	assert.Equal(t, player.Reject, s.Policy)
	assert.True(t, s.ForwardHeaders)
	assert.Equal(t, 3*time.Second, s.Timeout)
	assert.Equal(t, sound.KindCommand, s.SinkKind)
	assert.Equal(t, []string{"mpg123", "-q"}, s.PlayerCommand)
	assert.Equal(t, "Viktor=abc", s.Headers["x-crypto"])
	assert.Equal(t, zerolog.DebugLevel, s.LogLevel)
}

func TestLoadSettingsConfigFile(t *testing.T) {
	resetViper(t)
	viper.Set("playback.accent", "uk")
	viper.Set("sink.kind", "null")
	viper.Set("endpoints.primary", "http://localhost:8080/pron/")

	cmd := &cobra.Command{}
	flags := NewFlags()
	setupFlags(cmd, flags)

	s, err := LoadSettings(flags)
	require.NoError(t, err)
	assert.Equal(t, audio.AccentUK, s.Accent)
	assert.Equal(t, sound.KindNull, s.SinkKind)
	assert.Equal(t, "http://localhost:8080/pron/", s.Endpoints.PrimaryBase)
	assert.Equal(t, audio.DefaultFallbackBase, s.Endpoints.FallbackBase)
}

func TestLoadSettingsDryRunUsesNullSink(t *testing.T) {
	s, err := loadWithArgs(t, "--dry-run", "--sink", "device")
	require.NoError(t, err)
	assert.Equal(t, sound.KindNull, s.SinkKind)
	assert.True(t, s.DryRun)
}

func TestLoadSettingsErrors(t *testing.T) {
	for _, args := range [][]string{
		{"--accent", "au"},
		{"--policy", "queue"},
		{"--sink", "speaker"},
		{"-H", "novalue"},
		{"--log-level", "loud"},
	} {
		_, err := loadWithArgs(t, args...)
		assert.Error(t, err, args)
	}
}

func TestCollectHeaders(t *testing.T) {
	config := map[string]string{"x-crypto": "from-config", "referer": "https://example.com"}
	environ := []string{
		"PATH=/usr/bin",
		"PRONOUNCE_HEADER_X_CRYPTO=from-env",
		"PRONOUNCE_HEADER_=ignored",
	}

	headers, err := collectHeaders(config, environ, []string{"X-Token: abc"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"x-crypto": "from-env",
		"referer":  "https://example.com",
		"X-Token":  "abc",
	}, headers)

	headers, err = collectHeaders(nil, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, headers)
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		in      string
		key     string
		value   string
		wantErr bool
	}{
		{"x-crypto=Viktor=abc", "x-crypto", "Viktor=abc", false},
		{"X-Token: abc", "X-Token", "abc", false},
		{"empty=", "empty", "", false},
		{"=value", "", "", true},
		{"novalue", "", "", true},
		{"bad name=1", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			key, value, err := ParseHeader(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.value, value)
		})
	}
}
