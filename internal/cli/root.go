// Package cli implements the geoinspect command line.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coral-mesh/geoinspect/internal/config"
	"github.com/coral-mesh/geoinspect/internal/logging"
	"github.com/coral-mesh/geoinspect/pkg/extract"
	"github.com/coral-mesh/geoinspect/pkg/loader"
	"github.com/coral-mesh/geoinspect/pkg/version"
)

// globalFlags are the persistent flags of every command.
type globalFlags struct {
	configPath string
	logLevel   string
}

// setup loads the configuration and builds the logger.
func (g *globalFlags) setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	path := g.configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	lc := cfg.LoggerConfig()
	lc.Output = cmd.ErrOrStderr()
	return cfg, logging.New(lc), nil
}

// registry returns a registry holding the built-in and configured user
// creators.
func registry(cfg *config.Config, logger zerolog.Logger) (*loader.Registry, error) {
	r := extract.NewRegistry(logger, cfg.Cache.Capacity)
	n, err := config.RegisterUserTypes(r, cfg.UserTypes)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		logger.Debug().Int("count", n).Msg("User types registered")
	}
	return r, nil
}

// NewRootCmd creates the geoinspect command tree.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "geoinspect",
		Short: "Extract geometries from debuggee memory",
		Long: `Turn debuggee variables into geometry values.

Loaders are chosen from the type of each variable: Boost.Geometry and
Boost.Polygon models, std::complex, boost::variant, R-trees and STL or Boost
containers of points, geometries or numbers. User types are added through
YAML definitions listed in the configuration.

Configuration is read from ~/.geoinspect/config.yaml, or from the file named
by GEOINSPECT_CONFIG, and may be overridden by GEOINSPECT_* variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file (default ~/.geoinspect/config.yaml)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")

	cmd.AddCommand(newLoadCmd(g))
	cmd.AddCommand(newTypesCmd(g))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("geoinspect version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Build date: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}

// Execute runs the root command.
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		return fmt.Errorf("geoinspect: %w", err)
	}
	return nil
}
