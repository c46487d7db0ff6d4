package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gradreader/readerpack/config"
	"github.com/gradreader/readerpack/core"
	"github.com/spf13/cobra"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a configuration file with default values",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				target = config.DefaultFile
			}
			if dir := filepath.Dir(target); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return core.WrapError(err, core.EINVALID, "cannot create directory %s", dir)
				}
			}
			if err := config.WriteDefault(target, overwrite); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote default configuration to %s\n", target)
			fmt.Fprintln(out, "Export OPENAI_API_KEY before building packs with generated stories.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite an existing configuration file")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			index, err := cfg.FontIndex(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Configuration valid: %d fonts, %s documents, %d workers\n",
				index.Len(), cfg.Document.Format, cfg.Pipeline.Workers)
			if cfg.OpenAI.APIKey == "" {
				fmt.Fprintln(out, "No OpenAI API key configured; only --dry-run builds are possible.")
			}
			return nil
		},
	}
}
