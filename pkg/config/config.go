// Package config loads tinyscript settings from an optional YAML file and the
// environment. Command-line flags are applied on top by the CLI.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/lemonberrylabs/tinyscript/pkg/lexer"
)

// Syntax selects the lexer dialect.
type Syntax string

const (
	// SyntaxCore lexes only strings, identifiers, keywords and ( ) { } ;.
	SyntaxCore Syntax = "core"
	// SyntaxExtended adds numbers and operator punctuation.
	SyntaxExtended Syntax = "extended"
)

// Config is the full set of settings.
type Config struct {
	Syntax Syntax `yaml:"syntax"`
	Log    Log    `yaml:"log"`
	Server Server `yaml:"server"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `yaml:"verbosity"`
	File      string `yaml:"file"`
}

// Server configures the serve command.
type Server struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	GRPCPort   int    `yaml:"grpcPort"`
	ScriptsDir string `yaml:"scriptsDir"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Syntax: SyntaxExtended,
		Server: Server{
			Host:     "0.0.0.0",
			Port:     8787,
			GRPCPort: 8788,
		},
	}
}

// Load builds a Config from defaults, then the YAML file at path (skipped when
// path is empty), then environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("TINYSCRIPT_SYNTAX"); v != "" {
		c.Syntax = Syntax(v)
	}
	if v := getenv("HOST"); v != "" {
		c.Server.Host = v
	}
	if v := getenv("SCRIPTS_DIR"); v != "" {
		c.Server.ScriptsDir = v
	}
	for key, dst := range map[string]*int{"PORT": &c.Server.Port, "GRPC_PORT": &c.Server.GRPCPort} {
		v := getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = n
	}
	return nil
}

// Validate checks field values.
func (c Config) Validate() error {
	switch c.Syntax {
	case SyntaxCore, SyntaxExtended:
	default:
		return fmt.Errorf("unknown syntax %q (want %q or %q)", c.Syntax, SyntaxCore, SyntaxExtended)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc port %d", c.Server.GRPCPort)
	}
	return nil
}

// LexerOptions returns the lexer options for the configured syntax.
func (c Config) LexerOptions() []lexer.Option {
	if c.Syntax == SyntaxExtended {
		return []lexer.Option{lexer.WithExtendedSyntax()}
	}
	return nil
}

// Addr returns the HTTP listen address.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GRPCAddr returns the gRPC listen address.
func (s Server) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.GRPCPort)
}
