package mcpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/germanamz/mcpmux/pkg/config"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pmezard/go-difflib/difflib"
)

// ErrClosed is returned by calls on a session that has been closed.
var ErrClosed = errors.New("mcpclient: session closed")

// ConnectError reports that a provider subprocess failed to start or to
// complete the MCP handshake.
type ConnectError struct {
	Server string
	Err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("mcpclient: connect %q: %v", e.Server, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ProtocolError reports a transport-level failure of a list or call request
// on a live session. The session stays open.
type ProtocolError struct {
	Server string
	Op     string
	Err    error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("mcpclient: %s %q: %v", e.Op, e.Server, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// toolSet is an immutable snapshot of supported tool names.
type toolSet map[string]struct{}

// Session is one live connection to an MCP server. It remembers which tools
// the server supported, after exclusions, on the most recent ListTools call.
type Session struct {
	provider config.Provider
	log      *slog.Logger
	client   *mcp.Client
	session  *mcp.ClientSession

	// supported is replaced wholesale by every ListTools call and never
	// mutated in place, so readers always see one consistent listing.
	supported atomic.Pointer[toolSet]
	listed    atomic.Bool

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// CommandTransport returns a transport that spawns the provider's command
// with its resolved environment.
func CommandTransport(p config.Provider) mcp.Transport {
	cmd := exec.Command(p.Command, p.Args...) //nolint:gosec // command comes from configuration
	cmd.Env = p.Environ()

	return &mcp.CommandTransport{Command: cmd}
}

// Connect spawns the provider's MCP server process and performs the
// handshake.
func Connect(ctx context.Context, p config.Provider, log *slog.Logger) (*Session, error) {
	return ConnectTransport(ctx, p, CommandTransport(p), log)
}

// ConnectTransport connects to a provider over an arbitrary transport. The
// SDK performs initialization during Connect.
func ConnectTransport(ctx context.Context, p config.Provider, transport mcp.Transport, log *slog.Logger) (*Session, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("server", p.Name)

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "mcpmux",
		Version: "0.1.0",
	}, &mcp.ClientOptions{Logger: log})

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, &ConnectError{Server: p.Name, Err: err}
	}

	s := &Session{
		provider: p,
		log:      log,
		client:   client,
		session:  session,
	}
	s.supported.Store(&toolSet{})

	log.InfoContext(ctx, "mcp server connected")

	return s, nil
}

// Name returns the provider name this session belongs to.
func (s *Session) Name() string { return s.provider.Name }

// ListTools fetches the server's tools, drops excluded ones, and replaces the
// supported tool set with exactly the names returned. Tools are returned in
// the order the server listed them.
func (s *Session) ListTools(ctx context.Context) ([]*mcp.Tool, error) {
	if s.closed.Load() {
		return nil, &ProtocolError{Server: s.Name(), Op: "list tools", Err: ErrClosed}
	}

	var tools []*mcp.Tool
	for tool, err := range s.session.Tools(ctx, nil) {
		if err != nil {
			return nil, &ProtocolError{Server: s.Name(), Op: "list tools", Err: err}
		}
		if s.provider.Excludes(tool.Name) {
			continue
		}
		tools = append(tools, tool)
	}

	set := make(toolSet, len(tools))
	for _, t := range tools {
		set[t.Name] = struct{}{}
	}
	prev := s.supported.Swap(&set)

	if s.listed.Swap(true) {
		if diff := listingDiff(prev.names(), set.names()); diff != "" {
			s.log.InfoContext(ctx, "tool listing changed", "diff", diff)
		}
	}
	s.log.DebugContext(ctx, "listed tools", "tools", len(tools))

	return tools, nil
}

// Supports reports whether name was among the tools returned by the most
// recent ListTools call.
func (s *Session) Supports(name string) bool {
	_, ok := (*s.supported.Load())[name]
	return ok
}

// SupportedTools returns the current supported tool names, sorted.
func (s *Session) SupportedTools() []string {
	return s.supported.Load().names()
}

func (ts *toolSet) names() []string {
	names := make([]string, 0, len(*ts))
	for name := range *ts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// listingDiff returns a unified diff between two sorted name lists, or an
// empty string when they are equal.
func listingDiff(prev, next []string) string {
	diff := difflib.UnifiedDiff{
		A:        lines(prev),
		B:        lines(next),
		FromFile: "previous",
		ToFile:   "current",
		Context:  0,
	}

	result, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return fmt.Sprintf("(diff error: %v)", err)
	}

	return result
}

func lines(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = name + "\n"
	}
	return out
}

// CallTool calls a named tool on the server. It does not check Supports;
// routing is the caller's job. A result with IsError set is returned as-is,
// not as an error.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	if s.closed.Load() {
		return nil, &ProtocolError{Server: s.Name(), Op: "call tool", Err: ErrClosed}
	}

	if args == nil {
		args = map[string]any{}
	}

	s.log.DebugContext(ctx, "calling tool", "tool", name)

	result, err := s.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return nil, &ProtocolError{Server: s.Name(), Op: "call tool", Err: fmt.Errorf("%s: %w", name, err)}
	}

	return result, nil
}

// Close terminates the session and releases resources. Only the first call
// does any work; later calls return the first call's error. For command
// transports the SDK closes stdin, waits, and escalates through
// SIGTERM/SIGKILL.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.session.Close()
		s.log.Info("mcp server disconnected")
	})
	return s.closeErr
}
