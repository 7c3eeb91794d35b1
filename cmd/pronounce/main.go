package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/pronounce/internal/cli"
	"codeberg.org/snonux/pronounce/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, args, flags)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error %s\n", processor.Describe(err))
		stop()
		os.Exit(1)
	}
}

func runCommand(cmd *cobra.Command, args []string, flags *cli.Flags) error {
	settings, err := cli.LoadSettings(flags)
	if err != nil {
		return err
	}

	logger := cli.NewLogger(os.Stderr, settings.LogLevel)

	proc, err := processor.NewProcessor(settings, logger)
	if err != nil {
		return err
	}
	defer proc.Close()

	ctx := cmd.Context()

	switch {
	case settings.HistoryList > 0:
		return proc.ListHistory(settings.HistoryList)
	case settings.BatchFile != "":
		return proc.ProcessBatch(ctx)
	case len(args) > 0:
		return proc.ProcessSingleWord(ctx, args[0])
	case settings.GUIMode:
		return proc.RunGUIMode()
	default:
		return cmd.Help()
	}
}
