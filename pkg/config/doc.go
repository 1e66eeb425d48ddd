// Package config loads the mcpmux YAML configuration and resolves it into
// Providers: the ordered, enabled MCP server registrations together with
// their subprocess command, arguments, environment and excluded tools.
//
// Resolution takes the process environment as an explicit parameter. Each
// provider's env is used as the base and the given environment is laid on
// top of it, so the caller's environment wins on conflicts.
package config
