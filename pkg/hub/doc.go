// Package hub aggregates the tools of several MCP servers behind one routing
// point.
//
// [Open] connects every enabled server in registration order, one handshake
// at a time. If any server fails to connect, the ones already connected are
// closed before Open returns. A Hub moves through the states Closed, Opening,
// Open and Closing. Listing and invocation are only valid while Open.
//
// Duplicate tool names across servers are handled differently by the three
// listing paths:
//   - schema and tool listings ([Hub.Bindings], [Hub.Schemas], [Tools]) keep
//     every duplicate;
//   - [Hub.Invoke] routes a name to the first server, in registration order,
//     whose latest listing contained it, and [Hub.ToolBox] resolves names the
//     same way;
//   - [Hub.Available] deduplicates by (server, tool) for presentation.
package hub
