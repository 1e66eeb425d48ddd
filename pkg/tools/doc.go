// Package tools provides the MCP (Model Context Protocol) building blocks of
// the aggregator.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/mcpmux/pkg/tools/mcpclient]: one live session with an external MCP server process, with tool exclusion and the supported tool set used for routing
//   - [github.com/germanamz/mcpmux/pkg/tools/validator]: per-tool validators that may answer a call before it reaches a server
//   - [github.com/germanamz/mcpmux/pkg/tools/adapter]: conversion of listed tools into consumer formats (function schemas, bound callables, structured tools)
//   - [github.com/germanamz/mcpmux/pkg/tools/toolbox]: the bound-callable Tool type and an ordered ToolBox
//   - [github.com/germanamz/mcpmux/pkg/tools/mcpserver]: a gateway that re-exposes aggregated tools over MCP
//   - [github.com/germanamz/mcpmux/pkg/tools/mcptest]: in-process MCP servers for tests
//
// The mcpclient and mcpserver packages are thin wrappers around the official
// MCP Go SDK (github.com/modelcontextprotocol/go-sdk). The hub package ties
// them together.
package tools
