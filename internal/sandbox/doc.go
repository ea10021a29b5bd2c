// Package sandbox implements call_tool_chain's three-tier dispatch
// (spec.md §4.8): direct JSON, a regex fast path over a single call
// expression, and a goja-backed JavaScript sandbox for anything else
// (spec.md §4.9).
package sandbox
