// Package main is the entry point for the tinyscript command.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/lemonberrylabs/tinyscript/pkg/config"

	_ "github.com/tliron/commonlog/simple"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// cli holds settings shared by all subcommands.
type cli struct {
	cfg config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{cfg: config.Default()}

	root := &cobra.Command{
		Use:           "tinyscript",
		Short:         "Tokenize, parse and run tinyscript programs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.configure(cmd)
		},
	}
	root.Version = version + " (commit=" + commit + ", built=" + date + ")"
	root.SetVersionTemplate("tinyscript version {{.Version}}\n")

	root.PersistentFlags().String("config", "", "YAML config file (env TINYSCRIPT_CONFIG)")
	root.PersistentFlags().String("syntax", "", "Lexer dialect: core or extended (default extended, env TINYSCRIPT_SYNTAX)")
	root.PersistentFlags().CountP("verbose", "v", "Increase log verbosity (repeatable)")
	root.PersistentFlags().String("log-file", "", "Write logs to this file instead of stderr")

	root.AddCommand(
		c.tokensCmd(),
		c.parseCmd(),
		c.runCmd(),
		c.replCmd(),
		c.serveCmd(),
		c.lspCmd(),
	)
	return root
}

// configure layers flags over the config file and environment, then sets up logging.
func (c *cli) configure(cmd *cobra.Command) error {
	path := envOrDefault("TINYSCRIPT_CONFIG", "")
	if v, _ := cmd.Flags().GetString("config"); v != "" {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetString("syntax"); v != "" {
		cfg.Syntax = config.Syntax(v)
	}
	if v, _ := cmd.Flags().GetCount("verbose"); v > 0 {
		cfg.Log.Verbosity = v
	}
	if v, _ := cmd.Flags().GetString("log-file"); v != "" {
		cfg.Log.File = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	var logFile *string
	if cfg.Log.File != "" {
		logFile = &cfg.Log.File
	}
	commonlog.Configure(cfg.Log.Verbosity, logFile)
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
