// Package validator holds per-tool interception functions. A validator sees
// the parsed arguments of a call before it reaches the MCP server and can
// answer the call itself, for example to ask a human for confirmation.
package validator

import "sync"

// Func inspects the arguments of a tool call. An empty return lets the call
// proceed; anything else is used as the tool result and the server is never
// contacted.
type Func func(args map[string]any) string

// Registry maps tool names to validators. A nil *Registry has no validators.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Register sets the validator for a tool, replacing any previous one.
func (r *Registry) Register(tool string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.funcs == nil {
		r.funcs = make(map[string]Func)
	}
	r.funcs[tool] = fn
}

// Lookup returns the validator registered for tool.
func (r *Registry) Lookup(tool string) (Func, bool) {
	if r == nil {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.funcs[tool]
	return fn, ok && fn != nil
}

// Check runs the validator for tool, if any. It returns the substitute result
// and true when the call must be short-circuited.
func (r *Registry) Check(tool string, args map[string]any) (string, bool) {
	fn, ok := r.Lookup(tool)
	if !ok {
		return "", false
	}

	if msg := fn(args); msg != "" {
		return msg, true
	}
	return "", false
}
