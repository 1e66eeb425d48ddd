package toolbox

import (
	"context"
	"encoding/json"
	"fmt"
)

// ToolBox is an ordered collection of bound tools. Names are resolved the
// same way the hub routes calls: the first tool registered under a name wins
// and later duplicates are ignored.
type ToolBox struct {
	order []string
	tools map[string]Tool
}

// New creates a new ToolBox ready for use.
func New() *ToolBox {
	return &ToolBox{
		tools: make(map[string]Tool),
	}
}

// Register adds tools in order. A tool whose name is already present is
// skipped; Register reports how many tools were added.
func (tb *ToolBox) Register(tools ...Tool) int {
	added := 0
	for _, t := range tools {
		if _, dup := tb.tools[t.Name]; dup {
			continue
		}
		tb.tools[t.Name] = t
		tb.order = append(tb.order, t.Name)
		added++
	}
	return added
}

// Get returns a tool by name and a boolean indicating whether it was found.
func (tb *ToolBox) Get(name string) (Tool, bool) {
	t, ok := tb.tools[name]
	return t, ok
}

// Len returns the number of tools.
func (tb *ToolBox) Len() int { return len(tb.order) }

// Tools returns all tools in registration order.
func (tb *ToolBox) Tools() []Tool {
	result := make([]Tool, 0, len(tb.order))
	for _, name := range tb.order {
		result = append(result, tb.tools[name])
	}
	return result
}

// Call executes the named tool with JSON input.
func (tb *ToolBox) Call(ctx context.Context, name string, input json.RawMessage) (string, error) {
	t, ok := tb.tools[name]
	if !ok {
		return "", fmt.Errorf("toolbox: tool not found: %s", name)
	}
	if t.Handler == nil {
		return "", fmt.Errorf("toolbox: tool %s has no handler", name)
	}

	return t.Handler(ctx, input)
}
