package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level mcpmux configuration.
type Config struct {
	MCPServers []ServerConfig `yaml:"mcp_servers"`
}

// ServerConfig describes one MCP server subprocess. Servers are registered in
// document order.
type ServerConfig struct {
	Name         string            `yaml:"name"`
	Command      string            `yaml:"command"`
	Args         []string          `yaml:"args"`
	Env          map[string]string `yaml:"env"`
	ExcludeTools []string          `yaml:"exclude_tools"`
	Enabled      *bool             `yaml:"enabled"` // Defaults to true when omitted.
}

// IsEnabled reports whether the server should be connected.
func (s ServerConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Error reports a missing, unreadable, unparsable or invalid configuration.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config: %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Load reads a YAML (or JSON) file and returns a validated Config.
// Variables referenced as ${VAR} or $VAR are expanded from environ before
// parsing so secrets can live in the environment instead of the file.
// Unknown variables expand to the empty string.
func Load(path string, environ map[string]string) (Config, error) {
	if path == "" {
		return Config{}, &Error{Err: fmt.Errorf("path is required")}
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, &Error{Path: path, Err: err}
	}

	cfg, err := Parse(data, environ)
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return Config{}, err
	}

	return cfg, nil
}

// Parse expands variables from environ, then decodes and validates
// configuration bytes.
func Parse(data []byte, environ map[string]string) (Config, error) {
	expanded := os.Expand(string(data), func(key string) string {
		return environ[key]
	})

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, &Error{Err: fmt.Errorf("parse: %w", err)}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that server names are present and unique and that every
// server has a command.
func (c Config) Validate() error {
	names := make(map[string]struct{}, len(c.MCPServers))
	for _, s := range c.MCPServers {
		if s.Name == "" {
			return &Error{Err: fmt.Errorf("mcp server name is required")}
		}
		if s.Command == "" {
			return &Error{Err: fmt.Errorf("mcp server %q: command is required", s.Name)}
		}
		if _, dup := names[s.Name]; dup {
			return &Error{Err: fmt.Errorf("duplicate mcp server name %q", s.Name)}
		}
		names[s.Name] = struct{}{}
	}

	return nil
}

// Providers resolves the enabled servers into Providers, in registration
// order. When include is non-empty only the named servers are returned.
// environ is overlaid on each server's own env, so the caller's environment
// wins on conflicts.
func (c Config) Providers(include []string, environ map[string]string) ([]Provider, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	providers := make([]Provider, 0, len(c.MCPServers))
	for _, s := range c.MCPServers {
		if !s.IsEnabled() {
			continue
		}
		if len(include) > 0 && !slices.Contains(include, s.Name) {
			continue
		}

		exclude := make(map[string]struct{}, len(s.ExcludeTools))
		for _, name := range s.ExcludeTools {
			exclude[name] = struct{}{}
		}

		providers = append(providers, Provider{
			Name:         s.Name,
			Command:      s.Command,
			Args:         slices.Clone(s.Args),
			Env:          MergeEnv(s.Env, environ),
			ExcludeTools: exclude,
		})
	}

	return providers, nil
}

// Provider is a resolved server registration: the connection parameters of
// one enabled MCP server. It is not modified after resolution.
type Provider struct {
	Name         string
	Command      string
	Args         []string
	Env          map[string]string
	ExcludeTools map[string]struct{}
}

// Excludes reports whether the named tool is hidden for this provider.
func (p Provider) Excludes(tool string) bool {
	_, ok := p.ExcludeTools[tool]
	return ok
}

// Environ returns Env as sorted KEY=VALUE pairs, suitable for exec.Cmd.Env.
func (p Provider) Environ() []string {
	env := make([]string, 0, len(p.Env))
	for k, v := range p.Env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}

// MergeEnv returns base with overlay applied on top of it. Neither input is
// modified.
func MergeEnv(base, overlay map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}

// Environ returns the current process environment as a map.
func Environ() map[string]string {
	return ParseEnviron(os.Environ())
}

// ParseEnviron converts KEY=VALUE pairs into a map. Entries without '=' are
// skipped.
func ParseEnviron(pairs []string) map[string]string {
	env := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}
