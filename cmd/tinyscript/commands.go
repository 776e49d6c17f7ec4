package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	"gopkg.in/yaml.v3"

	"github.com/lemonberrylabs/tinyscript/pkg/api"
	grpcapi "github.com/lemonberrylabs/tinyscript/pkg/api/grpc"
	"github.com/lemonberrylabs/tinyscript/pkg/ast"
	"github.com/lemonberrylabs/tinyscript/pkg/config"
	"github.com/lemonberrylabs/tinyscript/pkg/diag"
	"github.com/lemonberrylabs/tinyscript/pkg/lexer"
	"github.com/lemonberrylabs/tinyscript/pkg/lsp"
	"github.com/lemonberrylabs/tinyscript/pkg/parser"
	"github.com/lemonberrylabs/tinyscript/pkg/repl"
	"github.com/lemonberrylabs/tinyscript/pkg/runtime"
	"github.com/lemonberrylabs/tinyscript/pkg/store"
	"github.com/lemonberrylabs/tinyscript/web"
)

const historyFile = ".tinyscript_history"

func (c *cli) tokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens FILE",
		Short: "Print the token stream of a script, one token per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}

			l := lexer.New(src, c.cfg.LexerOptions()...)
			for {
				tok, err := l.NextToken()
				if err != nil {
					return sourceError(args[0], src, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), tok)
				if tok.Kind == lexer.EOF {
					return nil
				}
			}
		},
	}
}

func (c *cli) parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Print the syntax tree of a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if format != "yaml" && format != "json" {
				return fmt.Errorf("unknown format %q (want yaml or json)", format)
			}

			src, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}
			stmts, err := parser.ParseSource(src, c.cfg.LexerOptions()...)
			if err != nil {
				return sourceError(args[0], src, err)
			}

			var out []byte
			if format == "json" {
				out, err = json.MarshalIndent(ast.Tree(stmts), "", "  ")
				out = append(out, '\n')
			} else {
				out, err = ast.EncodeYAML(stmts)
			}
			if err != nil {
				return fmt.Errorf("encoding tree: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().String("format", "yaml", "Output format: yaml or json")
	return cmd
}

func (c *cli) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run FILE",
		Short: "Run a script and print its global bindings as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}

			interp, runErr := runtime.Run(src, c.cfg.LexerOptions()...)
			bindings := interp.Environment().Bindings()
			if len(bindings) > 0 {
				out, err := yaml.Marshal(bindings)
				if err != nil {
					return fmt.Errorf("encoding bindings: %w", err)
				}
				if _, err := cmd.OutOrStdout().Write(out); err != nil {
					return err
				}
			}
			if runErr != nil {
				return sourceError(args[0], src, runErr)
			}
			return nil
		},
	}
}

func (c *cli) replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var histPath string
			if home, err := os.UserHomeDir(); err == nil {
				histPath = filepath.Join(home, historyFile)
			}
			return repl.Interactive(histPath, c.cfg.LexerOptions()...)
		},
	}
}

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, gRPC API and web playground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srvCfg := c.cfg.Server
			if v, _ := cmd.Flags().GetInt("port"); v != 0 {
				srvCfg.Port = v
			}
			if v, _ := cmd.Flags().GetInt("grpc-port"); v != 0 {
				srvCfg.GRPCPort = v
			}
			if v, _ := cmd.Flags().GetString("host"); v != "" {
				srvCfg.Host = v
			}
			if v, _ := cmd.Flags().GetString("scripts-dir"); v != "" {
				srvCfg.ScriptsDir = v
			}
			return serve(srvCfg, store.New(c.cfg.LexerOptions()...))
		},
	}
	cmd.Flags().Int("port", 0, "HTTP server port (default 8787, env PORT)")
	cmd.Flags().Int("grpc-port", 0, "gRPC server port (default 8788, env GRPC_PORT)")
	cmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")
	cmd.Flags().String("scripts-dir", "", "Directory of .tiny scripts to load as sessions (env SCRIPTS_DIR)")
	return cmd
}

func (c *cli) lspCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Run the language server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return lsp.New(version, c.cfg.LexerOptions()...).RunStdio()
		},
	}
}

func serve(cfg config.Server, s *store.Store) error {
	log := commonlog.GetLogger("tinyscript.serve")
	server := api.New(s)

	if cfg.ScriptsDir != "" {
		if err := server.LoadDir(cfg.ScriptsDir); err != nil {
			log.Warningf("failed to load scripts directory: %v", err)
		}
	}

	web.New(s).Register(server.App())

	// Start gRPC server
	grpcServer := grpcapi.New(s)
	go func() {
		log.Noticef("gRPC server listening on %s", cfg.GRPCAddr())
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			log.Criticalf("gRPC server error: %v", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Noticef("shutting down")
		grpcServer.GracefulStop()
		if err := server.Shutdown(); err != nil {
			log.Errorf("error during shutdown: %v", err)
		}
	}()

	log.Noticef("tinyscript listening on %s", cfg.Addr())
	return server.Listen(cfg.Addr())
}

// readSource reads a script file, or standard input when path is "-".
func readSource(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading script: %w", err)
	}
	return string(data), nil
}

// sourceError prefixes pipeline errors with a file:line:column location when
// the error carries a span.
func sourceError(path, src string, err error) error {
	d := diag.Describe(err)
	if d == nil {
		return err
	}
	if path == "-" {
		path = "<stdin>"
	}
	if d.Span == nil {
		return fmt.Errorf("%s: %s error: %w", path, d.Stage, err)
	}
	pos := diag.PositionAt(src, d.Span.Start)
	return fmt.Errorf("%s:%d:%d: %s error: %w", path, pos.Line+1, pos.Column+1, d.Stage, err)
}
