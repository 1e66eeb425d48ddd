package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/germanamz/mcpmux/pkg/tools/validator"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Caller is the part of an MCP session a Binding invokes.
type Caller interface {
	Name() string
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
}

// Binding ties one listed tool to the session that listed it. Bindings are
// built once per listing and borrowed by adapters.
type Binding struct {
	Tool       *mcp.Tool
	Owner      Caller
	Validators *validator.Registry
}

// Call runs the tool's validator and, unless the validator answers, calls the
// owning session. On success exactly one of substitute (non-empty) and result
// (non-nil) is set.
func (b Binding) Call(ctx context.Context, args map[string]any) (substitute string, result *mcp.CallToolResult, err error) {
	if msg, ok := b.Validators.Check(b.Tool.Name, args); ok {
		return msg, nil, nil
	}

	if b.Owner == nil {
		return "", nil, fmt.Errorf("adapter: tool %q has no owning session", b.Tool.Name)
	}

	result, err = b.Owner.CallTool(ctx, b.Tool.Name, args)
	if err != nil {
		return "", nil, err
	}
	return "", result, nil
}

// Adapter converts a Binding into one consumer shape.
type Adapter[T any] interface {
	Adapt(b Binding) (T, error)
}

// AdaptAll converts bindings in order.
func AdaptAll[T any](a Adapter[T], bindings []Binding) ([]T, error) {
	out := make([]T, 0, len(bindings))
	for _, b := range bindings {
		v, err := a.Adapt(b)
		if err != nil {
			return nil, fmt.Errorf("adapter: tool %q: %w", b.Tool.Name, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// SplitContent separates text parts from all other content, preserving order
// within each group.
func SplitContent(content []mcp.Content) (texts []string, other []mcp.Content) {
	texts = []string{}
	for _, c := range content {
		if tc, ok := c.(*mcp.TextContent); ok {
			texts = append(texts, tc.Text)
			continue
		}
		other = append(other, c)
	}
	return texts, other
}

// JoinText concatenates the text parts of a result with sep.
func JoinText(result *mcp.CallToolResult, sep string) string {
	if result == nil {
		return ""
	}
	texts, _ := SplitContent(result.Content)
	return strings.Join(texts, sep)
}
