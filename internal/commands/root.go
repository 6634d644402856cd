package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/glengine/internal/buildinfo"
	"github.com/cleared-dev/glengine/internal/config"
	"github.com/cleared-dev/glengine/internal/logger"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "glengine",
		Short:   "General ledger and financial statement engine",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "glengine.yaml", "engine configuration file")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "console", "log format (console, json)")
	pf.String("log-output", "stderr", "log output (stdout, stderr, or a file path)")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newValidateCommand())

	return rootCmd
}

// settings resolves the runtime settings of cmd and builds its logger.
func settings(cmd *cobra.Command) (*config.Settings, *zap.Logger, error) {
	s, err := config.LoadSettings(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(logger.Config{Level: s.LogLevel, Format: s.LogFormat, Output: s.LogOutput})
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	cmd.SetContext(logger.WithContext(cmd.Context(), log))
	return s, log, nil
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w (run 'glengine init' to create one)", err)
	}
	return cfg, nil
}
