package starter

import "github.com/oriumgames/starter/internal/pipeline"

var (
	// ErrConfiguration marks startup failures caused by how pipelines were populated.
	ErrConfiguration = pipeline.ErrConfiguration
	// ErrLifecycle marks calls made out of lifecycle order.
	ErrLifecycle = pipeline.ErrLifecycle
	// ErrSystemFailure marks a system callback that returned an error or panicked.
	ErrSystemFailure = pipeline.ErrSystemFailure
)

type (
	// ConfigError is returned by Inject for unresolved dependencies.
	ConfigError = pipeline.ConfigError
	// LifecycleError is returned, or panicked by Add, for out-of-order calls.
	LifecycleError = pipeline.LifecycleError
	// SystemError wraps a failing system callback.
	SystemError = pipeline.SystemError
)
