// Package logging provides the structured subsystem logger used across the
// gatemini daemon and proxy.
//
// Every call site tags its message with a subsystem name ("Backend-Engine",
// "Health-Supervisor", "Sandbox", ...), which lets log aggregation tools filter by
// component without parsing message text. Output is slog-backed text on the
// configured writer (normally stderr, so stdout stays free for the proxy's
// byte pipe and for --direct mode's own MCP traffic).
package logging
