// gravconv converts breakable model exports into engine-ready geometry
// bundles and manifests.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Faultbox/gravity-convert/internal/config"
	"github.com/Faultbox/gravity-convert/internal/logger"
	"github.com/Faultbox/gravity-convert/internal/manifest"
)

// version is the converter release, set at build time with -ldflags.
var version = "1.1.0"

// errModelsFailed makes the process exit non-zero after a run that printed
// its own summary.
var errModelsFailed = errors.New("some models failed to convert")

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errModelsFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var overrides config.Overrides

	root := &cobra.Command{
		Use:           "gravconv",
		Short:         "Convert breakable model exports",
		Long:          "gravconv converts source models and their broken, broken-dynamic and debris variants into geometry bundles with manifests.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&overrides.ConfigPath, "config", "", "config file (.yaml or .toml)")
	root.PersistentFlags().BoolVar(&overrides.Debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&overrides.Source, "source", "", "source model directory")
	root.PersistentFlags().StringVar(&overrides.Materials, "materials", "", "material description directory (defaults to the source directory)")

	root.AddCommand(
		convertCmd(&overrides),
		scanCmd(&overrides),
		inspectCmd(),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the converter and manifest versions",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gravconv %s (manifest %s)\n", version, manifest.Version)
		},
	}
}

// setup loads the config and starts the global logger.
func setup(overrides *config.Overrides) (*config.Config, error) {
	cfg, err := config.Load(*overrides)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logger.Sugar.Debugf("config: %+v", cfg)
	return cfg, nil
}
