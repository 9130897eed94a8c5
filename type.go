package starter

import (
	"github.com/mlange-42/ark/ecs"
	"github.com/oriumgames/starter/internal/inject"
	"github.com/oriumgames/starter/internal/overlay"
	"github.com/oriumgames/starter/internal/pipeline"
)

type World = ecs.World
type Entity = ecs.Entity

type ResourceID = ecs.ResID

// AddResource stores res in the world, where Res slots can find it.
func AddResource[T any](w *World, res *T) ResourceID {
	return ecs.AddResource[T](w, res)
}

// Pipeline is an ordered, lifecycle-managed group of systems.
type Pipeline = pipeline.Pipeline

type System = pipeline.System
type InitSystem = pipeline.InitSystem
type RunSystem = pipeline.RunSystem
type DestroySystem = pipeline.DestroySystem
type Dependent = pipeline.Dependent
type Named = pipeline.Named

// SharedContext is the application-owned registry injected into systems.
type SharedContext = inject.Context

// NewSharedContext creates an empty shared context.
func NewSharedContext() *SharedContext {
	return inject.NewContext()
}

// Provide registers v in the shared context under its type.
func Provide[T any](c *SharedContext, v *T) {
	inject.Provide(c, v)
}

// Lookup returns the value of type T held by the shared context.
func Lookup[T any](c *SharedContext) (*T, bool) {
	return inject.Lookup[T](c)
}

// Slot is one declared dependency of a system.
type Slot = inject.Slot

// Use is a required value from the shared context.
type Use[T any] = inject.Use[T]

// Res is a world resource, falling back to the shared context.
type Res[T any] = inject.Res[T]

// Map is a component mapper for T.
type Map[T any] = inject.Map[T]

// Filter is a query filter over entities holding T.
type Filter[T any] = inject.Filter[T]

// WorldRef binds the world itself.
type WorldRef = inject.WorldRef

// Missing describes an unresolved slot in a ConfigError.
type Missing = inject.Missing

// OverlaySink receives the entity and component changes seen by the debug overlay.
type OverlaySink = overlay.Sink

// OverlayRecorder is an OverlaySink that keeps every change in memory.
type OverlayRecorder = overlay.Recorder

// OverlayComponentChange is one component event kept by an OverlayRecorder.
type OverlayComponentChange = overlay.ComponentChange

// NewWorldDebugSystem returns the overlay system reporting to sink, for use
// with WithOverlay.
func NewWorldDebugSystem(sink OverlaySink) System {
	return overlay.NewWorldDebugSystem(sink)
}
