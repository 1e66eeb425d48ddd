package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/germanamz/mcpmux/pkg/config"
	"github.com/germanamz/mcpmux/pkg/display"
	"github.com/germanamz/mcpmux/pkg/tools/mcpclient"
	"github.com/germanamz/mcpmux/pkg/tools/validator"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrNotOpen is returned by operations on a Hub that is not Open.
var ErrNotOpen = errors.New("hub: not open")

// State is the lifecycle state of a Hub.
type State int

const (
	StateClosed State = iota
	StateOpening
	StateOpen
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Dialer returns the transport used to reach a provider.
type Dialer func(ctx context.Context, p config.Provider) (mcp.Transport, error)

// CommandDialer spawns the provider's command. It is the default Dialer.
func CommandDialer(_ context.Context, p config.Provider) (mcp.Transport, error) {
	return mcpclient.CommandTransport(p), nil
}

// Options configures Open.
type Options struct {
	// Include restricts the hub to the named servers. Empty means all.
	Include []string
	// Environ is laid over each server's env and used to expand variables
	// in config files. Nil means the process environment.
	Environ map[string]string
	// Validators intercept tool calls. Nil creates an empty registry.
	Validators *validator.Registry
	// Dialer defaults to CommandDialer.
	Dialer Dialer
	// Display, when set, receives the table of available tools once all
	// servers are connected.
	Display io.Writer
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Hub owns the sessions of all connected MCP servers and routes tool calls
// between them.
type Hub struct {
	log        *slog.Logger
	validators *validator.Registry

	mu       sync.RWMutex
	state    State
	sessions []*mcpclient.Session
}

// environ returns the environment providers are started with.
func (o Options) environ() map[string]string {
	if o.Environ == nil {
		return config.Environ()
	}
	return o.Environ
}

// OpenFile loads the configuration at path and opens a Hub from it.
func OpenFile(ctx context.Context, path string, opts Options) (*Hub, error) {
	opts.Environ = opts.environ()

	cfg, err := config.Load(path, opts.Environ)
	if err != nil {
		return nil, err
	}
	return Open(ctx, cfg, opts)
}

// Open connects to every enabled (and included) server in registration order
// and lists each one's tools. Servers are connected sequentially. On any
// failure all sessions opened so far are closed and the error is returned.
func Open(ctx context.Context, cfg config.Config, opts Options) (*Hub, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	validators := opts.Validators
	if validators == nil {
		validators = validator.New()
	}
	dial := opts.Dialer
	if dial == nil {
		dial = CommandDialer
	}

	providers, err := cfg.Providers(opts.Include, opts.environ())
	if err != nil {
		return nil, err
	}

	h := &Hub{
		log:        log,
		validators: validators,
		state:      StateOpening,
	}

	for _, p := range providers {
		s, err := h.connect(ctx, dial, p)
		if err != nil {
			_ = h.shutdown()
			return nil, err
		}
		h.sessions = append(h.sessions, s)
	}

	h.mu.Lock()
	h.state = StateOpen
	h.mu.Unlock()

	log.InfoContext(ctx, "hub open", "servers", len(h.sessions))

	if opts.Display != nil {
		rows, err := h.Available(ctx)
		if err == nil {
			err = display.Render(opts.Display, rows)
		}
		if err != nil {
			_ = h.Close()
			return nil, fmt.Errorf("hub: display tools: %w", err)
		}
	}

	return h, nil
}

// connect opens one session and primes its supported tool set.
func (h *Hub) connect(ctx context.Context, dial Dialer, p config.Provider) (*mcpclient.Session, error) {
	transport, err := dial(ctx, p)
	if err != nil {
		return nil, &mcpclient.ConnectError{Server: p.Name, Err: err}
	}

	s, err := mcpclient.ConnectTransport(ctx, p, transport, h.log)
	if err != nil {
		return nil, err
	}

	if _, err := s.ListTools(ctx); err != nil {
		_ = s.Close()
		return nil, &mcpclient.ConnectError{Server: p.Name, Err: err}
	}

	return s, nil
}

// State returns the current lifecycle state.
func (h *Hub) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Validators returns the hub's validator registry.
func (h *Hub) Validators() *validator.Registry { return h.validators }

// RegisterValidator sets the validator for a tool, replacing any previous
// one. See validator.Func for the contract.
func (h *Hub) RegisterValidator(tool string, fn validator.Func) {
	h.validators.Register(tool, fn)
}

// Sessions returns the server names in registration order.
func (h *Hub) Sessions() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.sessions))
	for _, s := range h.sessions {
		names = append(names, s.Name())
	}
	return names
}

// openSessions returns the sessions if the hub is Open.
func (h *Hub) openSessions() ([]*mcpclient.Session, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.state != StateOpen {
		return nil, fmt.Errorf("%w (state %s)", ErrNotOpen, h.state)
	}
	return h.sessions, nil
}

// Close closes all sessions in reverse order of connection. Every session is
// closed even if some fail; the failures are joined. Closing a closed Hub is
// a no-op.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.state != StateOpen {
		h.mu.Unlock()
		return nil
	}
	h.state = StateClosing
	h.mu.Unlock()

	return h.shutdown()
}

// shutdown closes sessions in reverse order and leaves the hub Closed.
func (h *Hub) shutdown() error {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = nil
	h.mu.Unlock()

	var errs []error
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		if err := s.Close(); err != nil {
			h.log.Warn("close mcp server", "server", s.Name(), "err", err)
			errs = append(errs, fmt.Errorf("hub: close %q: %w", s.Name(), err))
		}
	}

	h.mu.Lock()
	h.state = StateClosed
	h.mu.Unlock()

	return errors.Join(errs...)
}
