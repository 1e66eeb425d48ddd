package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/germanamz/mcpmux/pkg/hub"
	"github.com/germanamz/mcpmux/pkg/tools/mcpserver"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the tools of every configured server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.openHub(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			a.closeHub(h)
			return nil
		},
	}
}

func newSchemasCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "Print function-calling schemas for all tools as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.openHub(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.closeHub(h)

			schemas, err := h.Schemas(cmd.Context())
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(schemas, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal schemas: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

func newCallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "call <tool> [json-args]",
		Short: "Call a tool through the server that owns it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			input := ""
			if len(args) == 2 {
				input = args[1]
			}

			h, err := a.openHub(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.closeHub(h)

			res, ok, err := h.Invoke(cmd.Context(), name, input)
			if err != nil {
				return err
			}
			if !ok {
				return exitError(exitNotFound, "tool %q not found", name)
			}

			if _, err := fmt.Fprintln(cmd.OutOrStdout(), res.Text()); err != nil {
				return err
			}
			if res.Call != nil && res.Call.IsError {
				return exitError(exitToolErr, "tool %q reported an error", name)
			}
			return nil
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the aggregated tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			h, err := a.openHub(ctx, nil)
			if err != nil {
				return err
			}
			defer a.closeHub(h)

			tools, err := hub.Tools[mcpserver.Tool](ctx, h, mcpserver.Forward{})
			if err != nil {
				return err
			}

			srv := mcpserver.New("mcpmux", version, a.log)
			srv.Register(tools...)

			err = srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
