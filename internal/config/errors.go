package config

import (
	"fmt"
	"strings"
)

// ConfigurationError represents a structured error encountered while loading
// or reloading config.yaml.
type ConfigurationError struct {
	FilePath    string   // full path to the file that caused the error
	Section     string   // top-level config section ("backends", "secrets", "semantic", ...)
	ErrorType   string   // "parse", "validation", "io", "secret"
	Message     string   // human-readable error message
	Details     string   // additional context
	LineNumber  int      // line number where the error occurred, if known
	Suggestions []string // actionable suggestions to fix the error
}

// Error implements the error interface.
func (ce ConfigurationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", ce.Section, ce.ErrorType, ce.Message)
}

// DetailedError returns a multi-line message with all available context.
func (ce ConfigurationError) DetailedError() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Configuration error in %s", ce.FilePath))
	parts = append(parts, fmt.Sprintf("  Section: %s", ce.Section))
	parts = append(parts, fmt.Sprintf("  Type: %s", ce.ErrorType))
	if ce.LineNumber > 0 {
		parts = append(parts, fmt.Sprintf("  Line: %d", ce.LineNumber))
	}
	parts = append(parts, fmt.Sprintf("  Error: %s", ce.Message))
	if ce.Details != "" {
		parts = append(parts, fmt.Sprintf("  Details: %s", ce.Details))
	}
	if len(ce.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, s := range ce.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", s))
		}
	}
	return strings.Join(parts, "\n")
}

// ConfigurationErrorCollection holds every error found during a single load
// or reload pass, so the caller can report all of them at once instead of
// failing on the first.
type ConfigurationErrorCollection struct {
	Errors []ConfigurationError
}

// NewConfigurationErrorCollection returns an empty collection.
func NewConfigurationErrorCollection() *ConfigurationErrorCollection {
	return &ConfigurationErrorCollection{}
}

// Error implements the error interface for the collection.
func (cec ConfigurationErrorCollection) Error() string {
	switch len(cec.Errors) {
	case 0:
		return "no configuration errors"
	case 1:
		return cec.Errors[0].Error()
	default:
		return fmt.Sprintf("%d configuration errors: %s (and %d more)",
			len(cec.Errors), cec.Errors[0].Error(), len(cec.Errors)-1)
	}
}

// HasErrors reports whether the collection is non-empty.
func (cec *ConfigurationErrorCollection) HasErrors() bool {
	return len(cec.Errors) > 0
}

// Add appends err to the collection.
func (cec *ConfigurationErrorCollection) Add(err ConfigurationError) {
	cec.Errors = append(cec.Errors, err)
}

// AddError appends a basic error built from its parts.
func (cec *ConfigurationErrorCollection) AddError(filePath, section, errorType, message string) {
	cec.Add(ConfigurationError{
		FilePath:  filePath,
		Section:   section,
		ErrorType: errorType,
		Message:   message,
	})
}

// GetErrorsBySection filters the collection down to one section.
func (cec *ConfigurationErrorCollection) GetErrorsBySection(section string) []ConfigurationError {
	var filtered []ConfigurationError
	for _, err := range cec.Errors {
		if err.Section == section {
			filtered = append(filtered, err)
		}
	}
	return filtered
}

// GetDetailedReport renders every error in the collection.
func (cec *ConfigurationErrorCollection) GetDetailedReport() string {
	if len(cec.Errors) == 0 {
		return "No configuration errors to report"
	}
	var parts []string
	parts = append(parts, fmt.Sprintf("Configuration error report (%d errors):", len(cec.Errors)))
	parts = append(parts, strings.Repeat("=", 60))
	for i, err := range cec.Errors {
		parts = append(parts, fmt.Sprintf("\nError %d:", i+1))
		parts = append(parts, err.DetailedError())
		if i < len(cec.Errors)-1 {
			parts = append(parts, strings.Repeat("-", 40))
		}
	}
	return strings.Join(parts, "\n")
}
