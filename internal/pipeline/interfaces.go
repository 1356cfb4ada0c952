package pipeline

import (
	"context"
	"time"
)

// Fetcher retrieves a remote document. Implementations never cache.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (RawDocument, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
