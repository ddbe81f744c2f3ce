package port

import "context"

// Generator is the external text-generation capability. It is network-bound,
// fallible and time-limited; callers own retry and fallback policy.
type Generator interface {
	// Generate answers userPrompt constrained by systemPrompt using the
	// named provider. Failures are *domain.GenerationError.
	Generate(ctx context.Context, systemPrompt, userPrompt, provider string) (string, error)

	// Providers lists the configured provider names.
	Providers() []string
}
