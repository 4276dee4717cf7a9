package ports

import "context"

// Contract for the generative planning oracle. The planner supplies a
// system prompt demanding machine-checkable JSON and a user prompt with the
// constraint description; the adapter returns the raw completion text.
type CompletionClient interface {
	Complete(ctx context.Context, system string, user string) (string, error)
}
