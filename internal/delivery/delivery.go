// Package delivery holds the transports that expose the usecases: the API server and the mail worker.
package delivery

import "context"

// Delivery is a long-running server started by the fx graph.
type Delivery interface {
	Serve(ctx context.Context) error
}
