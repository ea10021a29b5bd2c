// Package session adapts one accepted IPC connection (or, in --direct mode,
// the process's own stdio) to the MCP protocol using mark3labs/mcp-go's
// server package, and fans out list_changed notifications to every live
// session when the shared registry mutates (spec.md §4.12 "Session
// server").
package session
