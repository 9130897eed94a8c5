package starter

import "github.com/oriumgames/starter/internal/pipeline"

// Phase identifies the host phase a pipeline is bound to.
type Phase = pipeline.Phase

const (
	// Init runs once, at startup.
	Init = pipeline.Init
	// Update runs on every variable-rate tick.
	Update = pipeline.Update
	// FixedUpdate runs on every fixed-rate tick.
	FixedUpdate = pipeline.FixedUpdate
	// LateUpdate runs on every late variable-rate tick, after Update.
	LateUpdate = pipeline.LateUpdate
	// Debug labels the debug overlay pipeline.
	Debug = pipeline.Debug
)

// State is the lifecycle state of a pipeline.
type State = pipeline.State

const (
	Building    = pipeline.Building
	Initialized = pipeline.Initialized
	Destroyed   = pipeline.Destroyed
)

// phases lists the primary phases in startup order.
var phases = [...]Phase{Init, Update, FixedUpdate, LateUpdate}
