package constants

// Deployment environments.
const (
	EnvDevelop    = "develop"
	EnvStaging    = "staging"
	EnvProduction = "production"
)

// Event publisher providers.
const (
	PubSubProviderNoop   = "noop"
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

// DefaultTenant is the only tenant the identity provider is called with.
const DefaultTenant = "public"

// Push message attributes.
const (
	AttributeRequestID = "request_id"
	AttributeEventType = "event_type"
)
