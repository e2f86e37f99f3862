package lifecycle

import "time"

// DefaultTimeout bounds fx start/stop hooks and graceful server shutdown.
const DefaultTimeout = 10 * time.Second
