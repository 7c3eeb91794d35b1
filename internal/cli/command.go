package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/pronounce/internal"
	"codeberg.org/snonux/pronounce/internal/audio"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pronounce [word]",
		Short: "Vocabulary pronunciation player",
		Long: `pronounce downloads and plays the pronunciation of English words.

Each word is fetched from the pronunciation file server first. If that
fails, it is fetched once from the dictionary voice service instead.

Examples:
  pronounce abandon                   # Play the US pronunciation
  pronounce -a uk abandon             # Play the UK pronunciation
  pronounce -H x-crypto=... abandon   # Send a header to the primary source
  pronounce --batch words.txt         # Play every word of a file in turn
  pronounce --gui                     # Open the word list window`,
		Args:    cobra.MaximumNArgs(1),
		Version: internal.Version,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.pronounce.yaml)")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")

	// Local flags
	cmd.Flags().StringVarP(&flags.Accent, "accent", "a", flags.Accent, "Accent: us or uk")
	cmd.Flags().StringArrayVarP(&flags.Headers, "header", "H", nil, "Header for the primary source as key=value (repeatable)")
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Play words from file (one per line, optionally followed by an accent)")
	cmd.Flags().BoolVar(&flags.GUIMode, "gui", false, "Open the word list window")
	cmd.Flags().StringVar(&flags.Policy, "policy", flags.Policy, "What a new word does to a playing one: preempt or reject")
	cmd.Flags().BoolVar(&flags.ForwardHeaders, "forward-headers", false, "Also send headers to the fallback source")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", flags.Timeout, "Download timeout per attempt (at most 3s)")
	cmd.Flags().StringVar(&flags.Sink, "sink", flags.Sink, "Audio output: device, command or null")
	cmd.Flags().StringVar(&flags.PlayerCmd, "player-cmd", "", "External player for --sink command (default: first of afplay, mpg123, ffplay, play, paplay, aplay)")
	cmd.Flags().StringVar(&flags.PrimaryBase, "primary-base", audio.DefaultPrimaryBase, "Base URL of the pronunciation file server")
	cmd.Flags().StringVar(&flags.FallbackBase, "fallback-base", audio.DefaultFallbackBase, "Base URL of the dictionary voice service")
	cmd.Flags().StringVar(&flags.HistoryFile, "history", "", "SQLite file to log plays to")
	cmd.Flags().IntVar(&flags.HistoryList, "history-list", 0, "Print the N most recent plays and exit")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Download and decode without playing")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("playback.accent", cmd.Flags().Lookup("accent"))
	viper.BindPFlag("playback.policy", cmd.Flags().Lookup("policy"))
	viper.BindPFlag("playback.forward_headers", cmd.Flags().Lookup("forward-headers"))
	viper.BindPFlag("fetch.timeout", cmd.Flags().Lookup("timeout"))
	viper.BindPFlag("sink.kind", cmd.Flags().Lookup("sink"))
	viper.BindPFlag("sink.command", cmd.Flags().Lookup("player-cmd"))
	viper.BindPFlag("endpoints.primary", cmd.Flags().Lookup("primary-base"))
	viper.BindPFlag("endpoints.fallback", cmd.Flags().Lookup("fallback-base"))
	viper.BindPFlag("history.path", cmd.Flags().Lookup("history"))
	viper.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))
}

// InitConfig loads .env from the working directory and initializes viper configuration
func InitConfig(cfgFile string) {
	// A missing .env is normal
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".pronounce" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".pronounce")
	}

	// Environment variables
	viper.SetEnvPrefix("PRONOUNCE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
