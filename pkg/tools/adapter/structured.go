package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Output is the content and artifact pair returned by a StructuredTool.
type Output struct {
	// Content is a string when the result had exactly one text part, and a
	// []string of all text parts otherwise.
	Content any
	// Artifact holds the non-text parts, or nil when there are none.
	Artifact []mcp.Content
}

// ToolError is returned by StructuredTool.Invoke when the server reports the
// call as failed. Content has the same shape as Output.Content.
type ToolError struct {
	Content any
}

func (e *ToolError) Error() string {
	switch c := e.Content.(type) {
	case string:
		return c
	case []string:
		return strings.Join(c, "\n")
	default:
		return fmt.Sprint(c)
	}
}

// StructuredTool is a tool that returns structured content and artifacts.
type StructuredTool struct {
	Name        string
	Description string
	ArgsSchema  any
	Invoke      func(ctx context.Context, args map[string]any) (Output, error)
}

// Structured adapts bindings into StructuredTool values.
type Structured struct{}

// Adapt implements Adapter.
func (Structured) Adapt(b Binding) (StructuredTool, error) {
	return StructuredTool{
		Name:        b.Tool.Name,
		Description: b.Tool.Description,
		ArgsSchema:  b.Tool.InputSchema,
		Invoke: func(ctx context.Context, args map[string]any) (Output, error) {
			if args == nil {
				args = map[string]any{}
			}

			substitute, result, err := b.Call(ctx, args)
			if err != nil {
				return Output{}, err
			}
			if result == nil {
				return Output{Content: substitute}, nil
			}

			return ConvertResult(result)
		},
	}, nil
}

// ConvertResult splits a call result into an Output. A result with IsError set
// becomes a *ToolError carrying the content half.
func ConvertResult(result *mcp.CallToolResult) (Output, error) {
	texts, other := SplitContent(result.Content)

	var content any = texts
	if len(texts) == 1 {
		content = texts[0]
	}

	if result.IsError {
		return Output{}, &ToolError{Content: content}
	}

	return Output{Content: content, Artifact: other}, nil
}
