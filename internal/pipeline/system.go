package pipeline

import (
	"fmt"
	"time"

	"github.com/mlange-42/ark/ecs"
	"github.com/oriumgames/starter/internal/inject"
)

// Phase identifies the host phase a pipeline is bound to.
type Phase int

const (
	Init Phase = iota
	Update
	FixedUpdate
	LateUpdate
	// Debug is the phase label of the debug overlay pipeline.
	Debug
)

func (p Phase) String() string {
	switch p {
	case Init:
		return "Init"
	case Update:
		return "Update"
	case FixedUpdate:
		return "FixedUpdate"
	case LateUpdate:
		return "LateUpdate"
	case Debug:
		return "Debug"
	default:
		return "Unknown"
	}
}

// State is the lifecycle state of a pipeline.
type State int

const (
	Building State = iota
	Initialized
	Destroyed
)

func (s State) String() string {
	switch s {
	case Building:
		return "Building"
	case Initialized:
		return "Initialized"
	case Destroyed:
		return "Destroyed"
	default:
		return "Unknown"
	}
}

// System is any value registered in a pipeline. It takes part in a callback
// only if it implements the matching interface below.
type System any

// InitSystem runs once when its pipeline is initialized.
type InitSystem interface {
	Init(w *ecs.World) error
}

// RunSystem runs on every tick of its pipeline.
type RunSystem interface {
	Run(w *ecs.World) error
}

// DestroySystem runs once when its pipeline is destroyed.
type DestroySystem interface {
	Destroy(w *ecs.World) error
}

// Dependent systems declare slots resolved by Inject.
type Dependent interface {
	Dependencies() []inject.Slot
}

// Named systems report a custom name to diagnostics and errors.
type Named interface {
	Name() string
}

// Diagnostics observes system callbacks.
type Diagnostics interface {
	SystemStart(name string, phase Phase)
	SystemEnd(name string, phase Phase, err error, duration time.Duration)
}

// entry is a registered system with its cached name.
type entry struct {
	name string
	sys  System
}

func systemName(sys System) string {
	if n, ok := sys.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", sys)
}
