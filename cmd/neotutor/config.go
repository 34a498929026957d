package main

import (
	"fmt"
	"io"

	"github.com/at-ishikawa/neotutor/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCommand() *cobra.Command {
	configCommand := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}

	configCommand.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return writeConfig(cmd.OutOrStdout(), cfg)
		},
	})
	return configCommand
}

func writeConfig(out io.Writer, cfg *config.Config) error {
	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg.Masked()); err != nil {
		return fmt.Errorf("encoder.Encode > %w", err)
	}
	return encoder.Close()
}
