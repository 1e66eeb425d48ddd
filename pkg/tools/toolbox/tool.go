package toolbox

import (
	"context"
	"encoding/json"
)

// Handler executes a tool with JSON input and returns a text result. Input
// may be empty, meaning no arguments.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Tool is a bound callable: a tool description together with the handler
// that invokes it. This is the shape consumed by function-calling agent
// runtimes.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     Handler
}
