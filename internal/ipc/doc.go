// Package ipc implements the proxy/daemon split that lets many short-lived
// CLI invocations share one long-running backend-hosting process (spec.md
// §4.10 "IPC proxy", §4.11 "IPC daemon"). The proxy is the thing an agent's
// MCP client actually execs; it either finds a daemon already listening or
// spins one up, then becomes a dumb byte pipe between its own stdio and the
// daemon's socket. The daemon binds the socket only after config load,
// secret resolution, and backend startup have finished; a proxy that
// connects during that window finds no socket and keeps polling for it
// until its wait budget runs out.
package ipc
