package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/germanamz/mcpmux/pkg/tools/toolbox"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Bound adapts bindings into toolbox.Tool values. The handler decodes its
// JSON input, consults the validator, and calls the owning session. A result
// with IsError set yields the concatenated text parts as ordinary output;
// any other result yields its JSON encoding.
type Bound struct{}

// Adapt implements Adapter.
func (Bound) Adapt(b Binding) (toolbox.Tool, error) {
	schema, err := json.Marshal(b.Tool.InputSchema)
	if err != nil {
		return toolbox.Tool{}, fmt.Errorf("marshal input schema: %w", err)
	}

	return toolbox.Tool{
		Name:        b.Tool.Name,
		Description: b.Tool.Description,
		InputSchema: json.RawMessage(schema),
		Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
			args, err := DecodeArguments(input)
			if err != nil {
				return "", err
			}

			substitute, result, err := b.Call(ctx, args)
			if err != nil {
				return "", err
			}
			if result == nil {
				return substitute, nil
			}

			return ResultString(result)
		},
	}, nil
}

// ResultString renders a call result the way bound tools return it.
func ResultString(result *mcp.CallToolResult) (string, error) {
	if result.IsError {
		return JoinText(result, ""), nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("adapter: marshal result: %w", err)
	}
	return string(data), nil
}
