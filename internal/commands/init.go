package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/glengine/internal/accounts"
	"github.com/cleared-dev/glengine/internal/config"
	"github.com/cleared-dev/glengine/internal/importer"
)

func newInitCommand() *cobra.Command {
	var name string
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a glengine project with a default configuration and chart of accounts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(absDir, name, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized glengine project at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing glengine.yaml")

	return cmd
}

func runInit(dir, name string, force bool) error {
	cfgPath := filepath.Join(dir, "glengine.yaml")
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}

	for _, d := range []string{"input", "output"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, config.Default(name)); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	svc, err := accounts.NewService(accounts.DefaultChart())
	if err != nil {
		return fmt.Errorf("building default chart: %w", err)
	}
	chartPath := filepath.Join(dir, "input", importer.Tables[0]+".csv")
	if err := svc.Save(chartPath); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}
