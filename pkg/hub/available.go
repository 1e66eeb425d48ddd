package hub

import (
	"context"

	"github.com/germanamz/mcpmux/pkg/display"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
)

// Available lists every session's tools concurrently and returns one row per
// distinct (server, tool) pair, in registration order. It is meant for
// presentation and does not affect routing beyond the refreshed listings.
func (h *Hub) Available(ctx context.Context) ([]display.Row, error) {
	sessions, err := h.openSessions()
	if err != nil {
		return nil, err
	}

	listings := make([][]*mcp.Tool, len(sessions))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range sessions {
		g.Go(func() error {
			tools, err := s.ListTools(gctx)
			if err != nil {
				return err
			}
			listings[i] = tools
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	type key struct{ server, tool string }
	seen := make(map[key]struct{})

	var rows []display.Row
	for i, s := range sessions {
		for _, t := range listings[i] {
			k := key{server: s.Name(), tool: t.Name}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			rows = append(rows, display.Row{
				Server:      s.Name(),
				Tool:        t.Name,
				Description: t.Description,
			})
		}
	}

	return rows, nil
}
