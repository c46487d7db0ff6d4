package main

import (
	"strings"
	"sync"

	"github.com/gradreader/readerpack/config"
	"github.com/gradreader/readerpack/core"
	"github.com/npillmayer/schuko/tracing"
	"github.com/spf13/cobra"
)

type commandContext struct {
	configFlag *string
	traceFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, traceFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, traceFlag: traceFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

// configureTracing sets trace levels: first the levels of the
// configuration, then the level of the --trace flag for all packages.
func (c *commandContext) configureTracing(cfg *config.Config) error {
	for key, lvl := range cfg.Tracing {
		level, ok := traceLevel(lvl)
		if !ok {
			return core.Error(core.EINVALID, "unknown trace level %q for %s", lvl, key)
		}
		tracing.Select("readerpack." + key).SetTraceLevel(level)
	}
	if c.traceFlag == nil || *c.traceFlag == "" {
		return nil
	}
	level, ok := traceLevel(*c.traceFlag)
	if !ok {
		return core.Error(core.EINVALID, "unknown trace level %q", *c.traceFlag)
	}
	for _, key := range traceKeys {
		tracing.Select("readerpack." + key).SetTraceLevel(level)
	}
	return nil
}

func traceLevel(s string) (tracing.TraceLevel, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return tracing.LevelDebug, true
	case "info":
		return tracing.LevelInfo, true
	case "error":
		return tracing.LevelError, true
	}
	return tracing.LevelError, false
}

func newRootCommand() *cobra.Command {
	var configFlag, traceFlag string
	ctx := newCommandContext(&configFlag, &traceFlag)

	rootCmd := &cobra.Command{
		Use:           "readerpack",
		Short:         "Build graded reader packs for language learners",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.configureTracing(cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&traceFlag, "trace", "", "Trace level for all packages [Debug|Info|Error]")

	rootCmd.AddCommand(newBuildCommand(ctx))
	rootCmd.AddCommand(newFontsCommand(ctx))
	rootCmd.AddCommand(newCoverageCommand(ctx))
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newConfigCommand(ctx))
	return rootCmd
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
