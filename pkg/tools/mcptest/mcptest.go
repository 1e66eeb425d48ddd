// Package mcptest provides in-process MCP servers for tests. Servers are real
// go-sdk servers connected over in-memory transports, instrumented with
// counters for tool calls, connections and closed client connections.
package mcptest

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Handler produces the result of a tool call from its decoded arguments.
type Handler func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error)

// Tool is a tool served by a test Server.
type Tool struct {
	Name        string
	Description string
	Schema      map[string]any // Defaults to {"type":"object"}.
	Handler     Handler        // Defaults to Text(Name).
}

// Text returns a handler replying with one TextContent per part.
func Text(parts ...string) Handler {
	return func(context.Context, map[string]any) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{Content: textContent(parts)}, nil
	}
}

// Failure returns a handler replying with IsError set and the given text parts.
func Failure(parts ...string) Handler {
	return func(context.Context, map[string]any) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{Content: textContent(parts), IsError: true}, nil
	}
}

// Echo replies with the JSON encoding of the arguments as a single text part.
func Echo(_ context.Context, args map[string]any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(b)}}}, nil
}

func textContent(parts []string) []mcp.Content {
	content := make([]mcp.Content, 0, len(parts))
	for _, p := range parts {
		content = append(content, &mcp.TextContent{Text: p})
	}
	return content
}

// Server is an instrumented MCP server.
type Server struct {
	name  string
	tools []Tool

	// OnClose, if set, runs when a client connection is closed for the first
	// time.
	OnClose func()
	// CloseErr, if set, is returned by every Close of a client connection
	// after the connection has been closed.
	CloseErr error

	mu        sync.Mutex
	callNames []string

	calls    atomic.Int64
	connects atomic.Int64
	closes   atomic.Int64
}

// NewServer returns a server that will serve the given tools. Like any go-sdk
// server it lists tools sorted by name.
func NewServer(name string, tools ...Tool) *Server {
	return &Server{name: name, tools: tools}
}

// Calls returns the number of tool calls the server handled.
func (s *Server) Calls() int64 { return s.calls.Load() }

// CallNames returns the names of the called tools in call order.
func (s *Server) CallNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.callNames...)
}

// Connects returns the number of client connections established.
func (s *Server) Connects() int64 { return s.connects.Load() }

// Closes returns the number of client connections closed by the client side.
func (s *Server) Closes() int64 { return s.closes.Load() }

// Transport starts a fresh server instance and returns the client half of an
// in-memory transport pair. The server is stopped when the test ends.
func (s *Server) Transport(t testing.TB) mcp.Transport {
	t.Helper()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    s.name,
		Version: "1.0.0",
	}, nil)

	for _, tool := range s.tools {
		schema := tool.Schema
		if schema == nil {
			schema = map[string]any{"type": "object"}
		}
		handler := tool.Handler
		if handler == nil {
			handler = Text(tool.Name)
		}
		name := tool.Name

		server.AddTool(&mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: schema,
		}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			s.calls.Add(1)
			s.mu.Lock()
			s.callNames = append(s.callNames, name)
			s.mu.Unlock()

			var args map[string]any
			if len(req.Params.Arguments) > 0 {
				if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
					return nil, err
				}
			}
			return handler(ctx, args)
		})
	}

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Run(ctx, serverTransport)
	}()
	t.Cleanup(func() {
		cancel()
		<-serverDone
	})

	return &countingTransport{Transport: clientTransport, server: s}
}

// FailingTransport returns a transport whose Connect always fails with err.
func FailingTransport(err error) mcp.Transport {
	return failingTransport{err: err}
}

type failingTransport struct{ err error }

func (f failingTransport) Connect(context.Context) (mcp.Connection, error) {
	return nil, f.err
}

type countingTransport struct {
	mcp.Transport
	server *Server
}

func (c *countingTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	conn, err := c.Transport.Connect(ctx)
	if err != nil {
		return nil, err
	}
	c.server.connects.Add(1)
	return &countingConn{Connection: conn, server: c.server}, nil
}

// countingConn counts a connection as closed once, no matter how many times
// Close is called on it.
type countingConn struct {
	mcp.Connection
	server *Server
	once   sync.Once
}

func (c *countingConn) Read(ctx context.Context) (jsonrpc.Message, error) {
	return c.Connection.Read(ctx)
}

func (c *countingConn) Write(ctx context.Context, msg jsonrpc.Message) error {
	return c.Connection.Write(ctx, msg)
}

func (c *countingConn) Close() error {
	c.once.Do(func() {
		c.server.closes.Add(1)
		if c.server.OnClose != nil {
			c.server.OnClose()
		}
	})
	err := c.Connection.Close()
	if c.server.CloseErr != nil {
		return c.server.CloseErr
	}
	return err
}
