package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/snonux/pronounce/internal/audio"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestCreateRootCommand(t *testing.T) {
	resetViper(t)
	flags := NewFlags()
	cmd := CreateRootCommand(flags)

	// Test basic command properties
	if cmd.Use != "pronounce [word]" {
		t.Errorf("Expected Use to be 'pronounce [word]', got %s", cmd.Use)
	}

	if !strings.Contains(cmd.Short, "pronunciation") {
		t.Errorf("Expected Short description to mention pronunciation, got %q", cmd.Short)
	}

	// Test that flags are set up
	flagTests := []string{
		"config", "log-level", "accent", "header", "batch", "gui", "policy",
		"forward-headers", "timeout", "sink", "player-cmd", "primary-base",
		"fallback-base", "history", "history-list", "dry-run",
	}

	for _, name := range flagTests {
		t.Run("flag_"+name, func(t *testing.T) {
			var flag *pflag.Flag
			if name == "config" || name == "log-level" {
				flag = cmd.PersistentFlags().Lookup(name)
			} else {
				flag = cmd.Flags().Lookup(name)
			}
			if flag == nil {
				t.Errorf("Expected flag %s to exist", name)
			}
		})
	}

	if err := cmd.Args(cmd, []string{"a", "b"}); err == nil {
		t.Error("Expected error for two positional words")
	}
}

func TestSetupFlags(t *testing.T) {
	resetViper(t)
	cmd := &cobra.Command{}
	flags := NewFlags()

	setupFlags(cmd, flags)

	defaults := map[string]string{
		"accent":        "us",
		"policy":        "preempt",
		"timeout":       "2s",
		"sink":          "device",
		"primary-base":  audio.DefaultPrimaryBase,
		"fallback-base": audio.DefaultFallbackBase,
	}
	for name, want := range defaults {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			t.Fatalf("%s flag not found", name)
		}
		if f.DefValue != want {
			t.Errorf("Expected default %s to be %s, got %s", name, want, f.DefValue)
		}
	}

	if short := cmd.Flags().ShorthandLookup("H"); short == nil || short.Name != "header" {
		t.Error("Expected -H to be the shorthand of --header")
	}
	if short := cmd.Flags().ShorthandLookup("a"); short == nil || short.Name != "accent" {
		t.Error("Expected -a to be the shorthand of --accent")
	}
}

func TestInitConfig(t *testing.T) {
	tests := []struct {
		name       string
		setupFunc  func(t *testing.T) string
		wantAccent string
	}{
		{
			name: "with config file",
			setupFunc: func(t *testing.T) string {
				cfgPath := filepath.Join(t.TempDir(), "test-config.yaml")
				content := `playback:
  accent: uk
headers:
  x-crypto: Viktor=abc`
				if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
					t.Fatalf("Failed to create test config: %v", err)
				}
				return cfgPath
			},
			wantAccent: "uk",
		},
		{
			name: "without config file",
			setupFunc: func(t *testing.T) string {
				return ""
			},
			wantAccent: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			t.Setenv("HOME", t.TempDir())

			InitConfig(tt.setupFunc(t))

			if got := viper.GetString("playback.accent"); got != tt.wantAccent {
				t.Errorf("playback.accent = %q, want %q", got, tt.wantAccent)
			}

			// Test environment variable prefix and key replacer
			t.Setenv("PRONOUNCE_SINK_KIND", "null")
			if viper.GetString("sink.kind") != "null" {
				t.Error("Environment variable not properly loaded")
			}
		})
	}
}

func TestBindFlagsToViper(t *testing.T) {
	resetViper(t)

	cmd := &cobra.Command{}
	flags := NewFlags()
	setupFlags(cmd, flags)

	// Set some flag values
	cmd.Flags().Set("accent", "uk")
	cmd.Flags().Set("sink", "null")
	cmd.Flags().Set("timeout", "3s")

	if viper.GetString("playback.accent") != "uk" {
		t.Errorf("Expected playback.accent to be uk, got %s", viper.GetString("playback.accent"))
	}

	if viper.GetString("sink.kind") != "null" {
		t.Errorf("Expected sink.kind to be null, got %s", viper.GetString("sink.kind"))
	}

	if viper.GetString("fetch.timeout") != "3s" {
		t.Errorf("Expected fetch.timeout to be 3s, got %s", viper.GetString("fetch.timeout"))
	}
}
