package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"codeberg.org/snonux/pronounce/internal/audio"
	"codeberg.org/snonux/pronounce/internal/player"
	"codeberg.org/snonux/pronounce/internal/sound"
)

// headerEnvPrefix marks environment variables holding primary source headers,
// e.g. PRONOUNCE_HEADER_X_CRYPTO=... becomes the header x-crypto.
const headerEnvPrefix = "PRONOUNCE_HEADER_"

// Settings is the resolved configuration of a run
type Settings struct {
	Accent         audio.Accent
	Headers        map[string]string
	Policy         player.Policy
	ForwardHeaders bool
	Timeout        time.Duration
	Endpoints      audio.Endpoints

	SinkKind      sound.Kind
	PlayerCommand []string

	HistoryPath string
	HistoryList int

	BatchFile string
	GUIMode   bool
	DryRun    bool
	LogLevel  zerolog.Level
}

// LoadSettings merges flags, config file, environment and .env values.
// Explicit flags win over the config file, which wins over defaults.
func LoadSettings(flags *Flags) (*Settings, error) {
	s := &Settings{
		BatchFile:   flags.BatchFile,
		GUIMode:     flags.GUIMode,
		DryRun:      flags.DryRun,
		HistoryList: flags.HistoryList,
	}

	accent, err := audio.ParseAccent(stringOr("playback.accent", flags.Accent))
	if err != nil {
		return nil, err
	}
	s.Accent = accent

	policy, err := player.ParsePolicy(stringOr("playback.policy", flags.Policy))
	if err != nil {
		return nil, err
	}
	s.Policy = policy
	s.ForwardHeaders = flags.ForwardHeaders || viper.GetBool("playback.forward_headers")

	s.Timeout = flags.Timeout
	if viper.IsSet("fetch.timeout") {
		s.Timeout = viper.GetDuration("fetch.timeout")
	}

	s.Endpoints = audio.Endpoints{
		PrimaryBase:  stringOr("endpoints.primary", flags.PrimaryBase),
		FallbackBase: stringOr("endpoints.fallback", flags.FallbackBase),
	}

	kind := sound.Kind(strings.ToLower(stringOr("sink.kind", flags.Sink)))
	switch kind {
	case sound.KindDevice, sound.KindCommand, sound.KindNull:
	default:
		return nil, fmt.Errorf("unknown sink %q (want device, command or null)", kind)
	}
	if flags.DryRun {
		kind = sound.KindNull
	}
	s.SinkKind = kind
	if cmd := stringOr("sink.command", flags.PlayerCmd); cmd != "" {
		s.PlayerCommand = strings.Fields(cmd)
	}

	s.HistoryPath = expandHome(stringOr("history.path", flags.HistoryFile))

	s.Headers, err = collectHeaders(viper.GetStringMapString("headers"), os.Environ(), flags.Headers)
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(strings.ToLower(stringOr("log.level", flags.LogLevel)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.WarnLevel
	}
	s.LogLevel = level

	return s, nil
}

// collectHeaders merges headers from the config file, the environment and
// -H flags, later sources overriding earlier ones
func collectHeaders(config map[string]string, environ []string, flags []string) (map[string]string, error) {
	headers := make(map[string]string)

	for k, v := range config {
		headers[k] = v
	}

	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, headerEnvPrefix) {
			continue
		}
		key := strings.TrimPrefix(name, headerEnvPrefix)
		if key == "" {
			continue
		}
		headers[strings.ToLower(strings.ReplaceAll(key, "_", "-"))] = value
	}

	for _, kv := range flags {
		key, value, err := ParseHeader(kv)
		if err != nil {
			return nil, err
		}
		headers[key] = value
	}

	if len(headers) == 0 {
		return nil, nil
	}
	return headers, nil
}

// ParseHeader parses a key=value (or "key: value") header argument
func ParseHeader(s string) (string, string, error) {
	sep := strings.IndexAny(s, "=:")
	if sep <= 0 {
		return "", "", fmt.Errorf("invalid header %q (want key=value)", s)
	}
	key := strings.TrimSpace(s[:sep])
	if key == "" || strings.ContainsAny(key, " \t\r\n") {
		return "", "", fmt.Errorf("invalid header name %q", key)
	}
	return key, strings.TrimSpace(s[sep+1:]), nil
}

// stringOr returns the config value for key if set, otherwise the flag value
func stringOr(key, flagValue string) string {
	if viper.IsSet(key) {
		if v := viper.GetString(key); v != "" {
			return v
		}
	}
	return flagValue
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
