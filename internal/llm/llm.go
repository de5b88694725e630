// Package llm maps free-form request text onto catalog operations. The
// primary resolver calls the Gemini API with the catalog advertised as
// callable functions; a rule-based resolver serves as an offline fallback.
package llm

import "context"

// Resolution is an operation pick with raw, unvalidated arguments. The
// dispatcher binds it against the catalog before executing anything.
type Resolution struct {
	Operation string
	Args      map[string]any
}

// Resolver turns request text into a Resolution. Implementations return
// domain.ErrNoMatch when the text maps to no operation and wrap
// domain.ErrUnavailable for transient upstream failures.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, text string) (Resolution, error)
}
