package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Danondso/audiotext/internal/config"
	"github.com/Danondso/audiotext/internal/transcriber"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported recognition languages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbg := newLogger()
		cfg, err := loadConfig(dbg)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, l := range config.SupportedLanguages() {
			marker := " "
			if l.Code == cfg.Language {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-6s %s\n", marker, l.Code, l.Name)
		}
		return nil
	},
}

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Check the configured transcription backend",
	Long: `Checks that the configured transcription backend is reachable and lists
its models when the backend can report them.`,
	Args: cobra.NoArgs,
	RunE: runBackend,
}

func init() {
	rootCmd.AddCommand(languagesCmd, backendCmd)
}

func runBackend(cmd *cobra.Command, args []string) error {
	dbg := newLogger()
	cfg, err := loadConfig(dbg)
	if err != nil {
		return err
	}
	trans, err := transcriber.New(&cfg.Transcription, dbg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	provider := cfg.Transcription.Provider
	if provider == "" {
		provider = "google"
	}
	fmt.Fprintf(out, "Provider: %s\n", provider)

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	hc, ok := trans.(transcriber.HealthChecker)
	if !ok {
		fmt.Fprintln(out, "Status:   not checkable")
		return nil
	}
	if err := hc.Ping(ctx); err != nil {
		fmt.Fprintf(out, "Status:   offline (%v)\n", err)
		return errors.New("backend unreachable")
	}
	fmt.Fprintln(out, "Status:   online")

	if ml, ok := trans.(transcriber.ModelLister); ok {
		models, err := ml.ListModels(ctx)
		if err != nil {
			return fmt.Errorf("list models: %w", err)
		}
		for _, m := range models {
			fmt.Fprintf(out, "  %s\n", m)
		}
	}
	return nil
}
