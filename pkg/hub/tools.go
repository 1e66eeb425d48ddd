package hub

import (
	"context"
	"fmt"

	"github.com/germanamz/mcpmux/pkg/tools/adapter"
	"github.com/germanamz/mcpmux/pkg/tools/toolbox"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Bindings lists every session's tools, in registration order and then in
// server order, and binds each tool to the session that listed it. Each
// session's supported tool set is refreshed as a side effect. Duplicate names
// across sessions are all returned.
func (h *Hub) Bindings(ctx context.Context) ([]adapter.Binding, error) {
	sessions, err := h.openSessions()
	if err != nil {
		return nil, err
	}

	var bindings []adapter.Binding
	for _, s := range sessions {
		tools, err := s.ListTools(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range tools {
			bindings = append(bindings, adapter.Binding{
				Tool:       t,
				Owner:      s,
				Validators: h.validators,
			})
		}
	}

	return bindings, nil
}

// Tools lists all tools and converts them with a.
func Tools[T any](ctx context.Context, h *Hub, a adapter.Adapter[T]) ([]T, error) {
	bindings, err := h.Bindings(ctx)
	if err != nil {
		return nil, err
	}
	return adapter.AdaptAll(a, bindings)
}

// Schemas returns function schemas for all tools.
func (h *Hub) Schemas(ctx context.Context) ([]adapter.FunctionSchema, error) {
	return Tools[adapter.FunctionSchema](ctx, h, adapter.Schema{})
}

// BoundTools returns bound callables for all tools.
func (h *Hub) BoundTools(ctx context.Context) ([]toolbox.Tool, error) {
	return Tools[toolbox.Tool](ctx, h, adapter.Bound{})
}

// ToolBox returns the bound tools collected into a ToolBox. Duplicate names
// resolve to the first server, matching Invoke.
func (h *Hub) ToolBox(ctx context.Context) (*toolbox.ToolBox, error) {
	tools, err := h.BoundTools(ctx)
	if err != nil {
		return nil, err
	}

	tb := toolbox.New()
	if skipped := len(tools) - tb.Register(tools...); skipped > 0 {
		h.log.DebugContext(ctx, "duplicate tool names shadowed", "tools", skipped)
	}
	return tb, nil
}

// StructuredTools returns structured tools for all tools.
func (h *Hub) StructuredTools(ctx context.Context) ([]adapter.StructuredTool, error) {
	return Tools[adapter.StructuredTool](ctx, h, adapter.Structured{})
}

// Result is the outcome of Invoke. Message is set when a validator answered
// the call; otherwise Call holds the server's result. The zero Result is
// neither.
type Result struct {
	Message string
	Call    *mcp.CallToolResult
}

// Intercepted reports whether a validator answered the call.
func (r Result) Intercepted() bool { return r.Call == nil && r.Message != "" }

// Text returns the validator message, or the call's text parts joined by
// newlines.
func (r Result) Text() string {
	if r.Call == nil {
		return r.Message
	}
	return adapter.JoinText(r.Call, "\n")
}

// Invoke calls a tool by name. args may be a map or JSON text; malformed JSON
// fails with *adapter.ArgumentsError before anything else happens. A
// registered validator is consulted next and may answer the call itself.
// Otherwise the call goes to the first session, in registration order, whose
// latest listing contained name. When no session supports name, Invoke
// returns ok == false and a nil error. A failed call returns ok == false, the
// zero Result and the error; the hub and its other sessions stay usable.
func (h *Hub) Invoke(ctx context.Context, name string, args any) (res Result, ok bool, err error) {
	sessions, err := h.openSessions()
	if err != nil {
		return Result{}, false, err
	}

	params, err := adapter.DecodeArguments(args)
	if err != nil {
		return Result{}, false, err
	}

	if msg, intercepted := h.validators.Check(name, params); intercepted {
		h.log.DebugContext(ctx, "tool call intercepted", "tool", name)
		return Result{Message: msg}, true, nil
	}

	for _, s := range sessions {
		if !s.Supports(name) {
			continue
		}
		call, err := s.CallTool(ctx, name, params)
		if err != nil {
			h.log.WarnContext(ctx, "tool call failed", "server", s.Name(), "tool", name, "err", err)
			return Result{}, false, fmt.Errorf("hub: invoke %q: %w", name, err)
		}
		return Result{Call: call}, true, nil
	}

	h.log.DebugContext(ctx, "tool not found", "tool", name)
	return Result{}, false, nil
}
