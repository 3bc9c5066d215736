// Package commands provides the workbench CLI subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/workbench/client"
	"github.com/c360studio/workbench/config"
)

// Version is stamped at build time.
var Version = "0.1.0"

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
	serverURL  string
	logLevel   string
}

// NewRootCmd builds the workbench command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "workbench",
		Short: "Design artifact workflow manager",
		Long: `Workbench manages design artifacts (discussions, ADRs, specs,
contracts, plans) through typed workflows, serves them over a REST API,
and projects their relationships as a graph.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(opts.logLevel)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	pf.StringVar(&opts.serverURL, "server", "", "API server base URL (default from config)")
	pf.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(opts),
		newStatusCmd(opts),
		newStartCmd(opts),
		newAdvanceCmd(opts),
		newResetCmd(opts),
		newBackCmd(opts),
		newArtifactCmd(opts),
		newRenderCmd(opts),
		newGraphCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("workbench version %s\n", Version)
		},
	}
}

// configureLogging installs a text slog handler at the requested level.
func configureLogging(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

// loadConfig resolves the effective configuration for a command.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	if opts.configPath != "" {
		cfg := config.DefaultConfig()
		override, err := config.LoadFromFile(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg.Merge(override)
		return cfg, cfg.Validate()
	}
	loader := config.NewLoader(slog.Default())
	return loader.Load()
}

// apiClient builds a REST client for the configured (or overridden)
// server address.
func apiClient(opts *rootOptions) (*client.Client, error) {
	if opts.serverURL != "" {
		return client.New(opts.serverURL), nil
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	addr := cfg.HTTP.Addr
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return client.New(addr), nil
}
