package application

import "context"

// Worker represents a background processor of feed messages.
// Implementations must run until the context is canceled.
type Worker interface {
	Start(ctx context.Context)
}
