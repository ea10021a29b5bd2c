// Package app wires config, registry, backend engine, health supervisor,
// sandbox dispatcher, and session server into one daemon instance, and owns
// the startup/shutdown ordering between them (spec.md §4.11).
package app
