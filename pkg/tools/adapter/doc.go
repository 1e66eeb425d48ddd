// Package adapter converts tools listed by MCP sessions into the shapes
// expected by agent runtimes.
//
// Every listed tool becomes a [Binding]: the tool descriptor, the session
// that listed it and the validator registry. An [Adapter] turns a Binding into
// one consumer shape:
//   - [Schema] produces OpenAI-style function schemas. Invocation goes through
//     the hub separately.
//   - [Bound] produces [toolbox.Tool] values whose handler returns a string.
//     Tool errors become plain string output.
//   - [Structured] produces [StructuredTool] values returning a content and
//     artifact pair. Tool errors fail with a [*ToolError].
//
// Adapters are stateless; the validator and session lookups live in Binding
// so they are written once for all formats.
package adapter
