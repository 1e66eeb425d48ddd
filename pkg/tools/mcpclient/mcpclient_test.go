package mcpclient

import (
	"context"
	"errors"
	"testing"

	"github.com/germanamz/mcpmux/pkg/config"
	"github.com/germanamz/mcpmux/pkg/tools/mcptest"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connectTestServer connects a Session to srv over an in-memory transport.
// The session is closed when the test ends.
func connectTestServer(t *testing.T, srv *mcptest.Server, exclude ...string) *Session {
	t.Helper()

	p := config.Provider{Name: "test", ExcludeTools: map[string]struct{}{}}
	for _, name := range exclude {
		p.ExcludeTools[name] = struct{}{}
	}

	s, err := ConnectTransport(context.Background(), p, srv.Transport(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestConnectTransport(t *testing.T) {
	srv := mcptest.NewServer("fs", mcptest.Tool{Name: "list_directory"})
	s := connectTestServer(t, srv)

	assert.Equal(t, "test", s.Name())
	assert.Equal(t, int64(1), srv.Connects())
	assert.Empty(t, s.SupportedTools(), "nothing is supported before the first listing")
}

func TestConnectTransport_Failure(t *testing.T) {
	boom := errors.New("spawn failed")

	_, err := ConnectTransport(context.Background(), config.Provider{Name: "broken"}, mcptest.FailingTransport(boom), nil)
	require.Error(t, err)

	var ce *ConnectError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "broken", ce.Server)
	assert.ErrorIs(t, err, boom)
}

func TestConnect_MissingCommand(t *testing.T) {
	p := config.Provider{Name: "ghost", Command: "/no/such/mcp-server-binary"}

	_, err := Connect(context.Background(), p, nil)
	var ce *ConnectError
	assert.True(t, errors.As(err, &ce))
}

func TestCommandTransportEnv(t *testing.T) {
	p := config.Provider{Command: "mcp-fs", Args: []string{"/tmp"}, Env: map[string]string{"A": "1"}}

	tr, ok := CommandTransport(p).(*mcp.CommandTransport)
	require.True(t, ok)
	assert.Equal(t, []string{"mcp-fs", "/tmp"}, tr.Command.Args)
	assert.Equal(t, []string{"A=1"}, tr.Command.Env)
}

func TestListTools(t *testing.T) {
	srv := mcptest.NewServer("fs",
		mcptest.Tool{Name: "read_file", Description: "Read a file"},
		mcptest.Tool{Name: "list_directory", Description: "List a directory"},
	)
	s := connectTestServer(t, srv)

	tools, err := s.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 2)
	// The SDK server lists tools by name.
	assert.Equal(t, "list_directory", tools[0].Name)
	assert.Equal(t, "List a directory", tools[0].Description)
	assert.Equal(t, "read_file", tools[1].Name)
	assert.Equal(t, "Read a file", tools[1].Description)

	assert.True(t, s.Supports("read_file"))
	assert.True(t, s.Supports("list_directory"))
	assert.Equal(t, []string{"list_directory", "read_file"}, s.SupportedTools())
}

func TestListTools_Excludes(t *testing.T) {
	srv := mcptest.NewServer("fs",
		mcptest.Tool{Name: "read_file"},
		mcptest.Tool{Name: "write_file"},
		mcptest.Tool{Name: "list_directory"},
	)
	s := connectTestServer(t, srv, "write_file")

	tools, err := s.ListTools(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"list_directory", "read_file"}, names)
	assert.False(t, s.Supports("write_file"))
}

func TestListTools_ExcludeEverything(t *testing.T) {
	srv := mcptest.NewServer("fs", mcptest.Tool{Name: "a"})
	s := connectTestServer(t, srv, "a")

	tools, err := s.ListTools(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tools)
	assert.Empty(t, s.SupportedTools())
}

func TestCallTool(t *testing.T) {
	srv := mcptest.NewServer("fs", mcptest.Tool{
		Name:    "list_directory",
		Handler: mcptest.Text("[FILE] .localized", "[DIR] Shared"),
	})
	s := connectTestServer(t, srv)

	result, err := s.CallTool(context.Background(), "list_directory", map[string]any{"path": "/Users"})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 2)
	assert.Equal(t, "[FILE] .localized", result.Content[0].(*mcp.TextContent).Text)
	assert.Equal(t, "[DIR] Shared", result.Content[1].(*mcp.TextContent).Text)
	assert.Equal(t, int64(1), srv.Calls())
}

func TestCallTool_PassesArguments(t *testing.T) {
	srv := mcptest.NewServer("echo", mcptest.Tool{Name: "echo", Handler: mcptest.Echo})
	s := connectTestServer(t, srv)

	result, err := s.CallTool(context.Background(), "echo", map[string]any{"msg": "hello"})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	assert.JSONEq(t, `{"msg":"hello"}`, result.Content[0].(*mcp.TextContent).Text)
}

func TestCallTool_IsErrorIsNotAnError(t *testing.T) {
	srv := mcptest.NewServer("fs", mcptest.Tool{Name: "fail", Handler: mcptest.Failure("boom")})
	s := connectTestServer(t, srv)

	result, err := s.CallTool(context.Background(), "fail", nil)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestCallTool_IgnoresSupportedSet(t *testing.T) {
	srv := mcptest.NewServer("fs", mcptest.Tool{Name: "hidden", Handler: mcptest.Text("ok")})
	s := connectTestServer(t, srv, "hidden")

	_, err := s.ListTools(context.Background())
	require.NoError(t, err)
	require.False(t, s.Supports("hidden"))

	result, err := s.CallTool(context.Background(), "hidden", nil)
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestCallTool_HandlerError(t *testing.T) {
	srv := mcptest.NewServer("fs", mcptest.Tool{
		Name: "broken",
		Handler: func(context.Context, map[string]any) (*mcp.CallToolResult, error) {
			return nil, errors.New("handler exploded")
		},
	})
	s := connectTestServer(t, srv)

	result, err := s.CallTool(context.Background(), "broken", nil)
	if err != nil {
		var pe *ProtocolError
		assert.True(t, errors.As(err, &pe))
		return
	}
	// Newer SDKs report handler errors as tool errors.
	assert.True(t, result.IsError)
}

func TestClosedSession(t *testing.T) {
	srv := mcptest.NewServer("fs", mcptest.Tool{Name: "a"})
	s := connectTestServer(t, srv)

	require.NoError(t, s.Close())

	_, err := s.ListTools(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	_, err = s.CallTool(context.Background(), "a", nil)
	assert.ErrorIs(t, err, ErrClosed)

	var pe *ProtocolError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, "call tool", pe.Op)
	assert.Equal(t, int64(0), srv.Calls())
}

func TestCloseIdempotent(t *testing.T) {
	srv := mcptest.NewServer("fs", mcptest.Tool{Name: "a"})
	s := connectTestServer(t, srv)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.Equal(t, int64(1), srv.Closes())
}

func TestListingDiff(t *testing.T) {
	assert.Empty(t, listingDiff([]string{"a", "b"}, []string{"a", "b"}))
	assert.Empty(t, listingDiff(nil, nil))

	diff := listingDiff([]string{"a", "b"}, []string{"b", "c"})
	assert.Contains(t, diff, "--- previous")
	assert.Contains(t, diff, "+++ current")
	assert.Contains(t, diff, "-a\n")
	assert.Contains(t, diff, "+c\n")
	assert.NotContains(t, diff, "-b\n")
}

func TestListTools_RepeatedListingKeepsSet(t *testing.T) {
	srv := mcptest.NewServer("fs", mcptest.Tool{Name: "a"}, mcptest.Tool{Name: "b"})
	s := connectTestServer(t, srv)

	for range 2 {
		_, err := s.ListTools(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, s.SupportedTools())
	}
}
