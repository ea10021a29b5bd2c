// Package metatools implements the seven meta-tools the daemon exposes to
// every session (spec.md §4.7): search_tools, list_tools_meta, tool_info,
// get_required_keys_for_tool, call_tool_chain, register_manual, and
// deregister_manual. Individual backend tools are never exposed directly;
// a session only ever sees this fixed surface plus the resources and
// prompts declared alongside it.
//
// Provider wires the handlers, resources, and prompts onto an mcp-go
// server. Handlers translate between registry.Registry / backend.Engine and
// MCP's JSON-RPC shapes; firstsentence.go and paramnames.go implement the
// brief/full rendering rules; usage.go tracks per-tool call counts for
// list_tools_meta's ordering.
package metatools
