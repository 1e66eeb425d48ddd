package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/germanamz/mcpmux/pkg/tools/adapter"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool is a tool ready to be served: its MCP definition and the handler that
// answers calls to it.
type Tool struct {
	Def     *mcp.Tool
	Handler mcp.ToolHandler
}

// Forward adapts bindings into gateway tools. Calls are decoded, passed
// through the validator and forwarded to the owning session; the upstream
// result is returned unchanged so content parts and IsError survive the hop.
type Forward struct{}

// Adapt implements adapter.Adapter.
func (Forward) Adapt(b adapter.Binding) (Tool, error) {
	schema, err := normalizeSchema(b.Tool.InputSchema)
	if err != nil {
		return Tool{}, err
	}

	def := &mcp.Tool{
		Name:        b.Tool.Name,
		Title:       b.Tool.Title,
		Description: b.Tool.Description,
		InputSchema: schema,
		Annotations: b.Tool.Annotations,
	}

	return Tool{
		Def: def,
		Handler: func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args, err := adapter.DecodeArguments(req.Params.Arguments)
			if err != nil {
				return errorResult(err), nil
			}

			substitute, result, err := b.Call(ctx, args)
			if err != nil {
				return errorResult(err), nil
			}
			if result == nil {
				return &mcp.CallToolResult{
					Content: []mcp.Content{&mcp.TextContent{Text: substitute}},
				}, nil
			}

			return result, nil
		},
	}, nil
}

// MCPServer serves aggregated tools over the MCP protocol.
type MCPServer struct {
	server *mcp.Server
	log    *slog.Logger
	names  map[string]struct{}
}

// New creates a new MCPServer with the given name and version. A nil log
// uses slog.Default().
func New(name, version string, log *slog.Logger) *MCPServer {
	if log == nil {
		log = slog.Default()
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, &mcp.ServerOptions{Logger: log})

	return &MCPServer{
		server: server,
		log:    log,
		names:  make(map[string]struct{}),
	}
}

// Register adds tools to the server in order. As with hub routing, the first
// tool registered under a name wins and later duplicates are skipped.
// Register reports how many tools were added.
func (s *MCPServer) Register(tools ...Tool) int {
	added := 0
	for _, t := range tools {
		if _, dup := s.names[t.Def.Name]; dup {
			s.log.Warn("duplicate tool skipped", "tool", t.Def.Name)
			continue
		}
		s.names[t.Def.Name] = struct{}{}
		s.server.AddTool(t.Def, t.Handler)
		added++
	}
	return added
}

// Serve starts serving MCP requests. It reads requests from in and writes
// responses to out. It blocks until ctx is cancelled or the transport closes.
func (s *MCPServer) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	transport := &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	}

	return s.run(ctx, transport)
}

// run is split from Serve so tests can use in-memory transports.
func (s *MCPServer) run(ctx context.Context, transport mcp.Transport) error {
	s.log.InfoContext(ctx, "gateway serving", "tools", len(s.names))
	return s.server.Run(ctx, transport)
}

// normalizeSchema returns the schema as a JSON object with type "object",
// which the SDK requires of every served tool. Upstream servers are not
// always that strict.
func normalizeSchema(schema any) (map[string]any, error) {
	m := map[string]any{}
	if schema != nil {
		data, err := json.Marshal(schema)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &m); err != nil || m == nil {
			m = map[string]any{}
		}
	}

	if typ, ok := m["type"]; !ok || typ != "object" {
		return map[string]any{"type": "object", "properties": propertiesOf(m)}, nil
	}
	return m, nil
}

func propertiesOf(m map[string]any) map[string]any {
	if props, ok := m["properties"].(map[string]any); ok {
		return props
	}
	return map[string]any{}
}

func errorResult(err error) *mcp.CallToolResult {
	var ae *adapter.ArgumentsError
	text := err.Error()
	if errors.As(err, &ae) {
		text = "invalid arguments: " + ae.Err.Error()
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// nopWriteCloser wraps an io.Writer as an io.WriteCloser with a no-op Close.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
