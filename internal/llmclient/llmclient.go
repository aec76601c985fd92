// Package llmclient declares the abstract structured-completion capability.
// The B6 session-text stage is its only caller; the controller's Classifier
// holds a Completer without calling it, and the extractor has none. LLM provider
// mechanics are explicitly out of scope per spec.md §1; this package has no
// provider wiring, only the boundary interface and schema-validation
// failure type.
package llmclient

import "context"

// SchemaError reports that a completion's output did not satisfy the
// caller-supplied schema. Callers (notably B6) fall back to a deterministic
// template rather than retrying the completion.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string { return "llmclient: schema validation failed: " + e.Reason }

// Completer returns a validated, schema-constrained object for a prompt.
// Implementations own provider selection, auth, and retries; this interface
// carries none of that.
type Completer interface {
	// Complete renders prompt against context and decodes the result into a
	// value matching schema's shape, returning *SchemaError if it doesn't.
	Complete(ctx context.Context, prompt string, schema map[string]any) (map[string]any, error)
}
