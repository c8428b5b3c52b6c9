package executor

import (
	"context"

	"github.com/ons3/Pfe-Project-Final/internal/domain/query"
)

// Executor performs one network round trip for a query descriptor.
// On success the response's data object is decoded into out.
// Failures are *fetch.Error values of kind network, protocol or server.
type Executor interface {
	Execute(ctx context.Context, q query.Descriptor, vars map[string]any, out any) error
}
