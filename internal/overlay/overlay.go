// Package overlay implements the debug overlay that watches the world for
// structural changes. It only reads the world and never creates or removes
// entities.
package overlay

import (
	"log/slog"
	"reflect"

	"github.com/mlange-42/ark/ecs"
)

// Sink receives world changes seen by the overlay.
//
// The component lists passed to ComponentsAdded and ComponentsRemoved hold
// the entity's full component set at the time of the change: after the
// addition, or before the removal.
type Sink interface {
	EntityCreated(e ecs.Entity)
	EntityRemoved(e ecs.Entity)
	ComponentsAdded(e ecs.Entity, comps []reflect.Type)
	ComponentsRemoved(e ecs.Entity, comps []reflect.Type)
	Summary(alive, created, removed int)
}

type changeKind uint8

const (
	entityCreated changeKind = iota
	entityRemoved
	componentsAdded
	componentsRemoved
)

type change struct {
	kind   changeKind
	entity ecs.Entity
	comps  []reflect.Type
}

// WorldDebugSystem observes entity and component events from its Init
// onward. Events are buffered as they happen and handed to the sink on
// every refresh, so entities that live and die between two refreshes are
// still reported.
type WorldDebugSystem struct {
	sink      Sink
	world     *ecs.World
	observers []*ecs.Observer
	pending   []change
	alive     int
	created   int
	removed   int
}

// NewWorldDebugSystem creates the overlay system reporting to sink.
func NewWorldDebugSystem(sink Sink) *WorldDebugSystem {
	return &WorldDebugSystem{sink: sink}
}

func (s *WorldDebugSystem) Name() string { return "WorldDebugSystem" }

func (s *WorldDebugSystem) Init(w *ecs.World) error {
	s.world = w

	q := ecs.NewFilter0(w).Query()
	s.alive = q.Count()
	q.Close()

	s.observers = []*ecs.Observer{
		ecs.Observe(ecs.OnCreateEntity).Do(func(e ecs.Entity) {
			s.alive++
			s.created++
			s.pending = append(s.pending, change{kind: entityCreated, entity: e})
		}).Register(w),
		ecs.Observe(ecs.OnRemoveEntity).Do(func(e ecs.Entity) {
			s.alive--
			s.removed++
			s.pending = append(s.pending, change{kind: entityRemoved, entity: e})
		}).Register(w),
		ecs.Observe(ecs.OnAddComponents).Do(func(e ecs.Entity) {
			s.pending = append(s.pending, change{kind: componentsAdded, entity: e, comps: s.components(e)})
		}).Register(w),
		ecs.Observe(ecs.OnRemoveComponents).Do(func(e ecs.Entity) {
			s.pending = append(s.pending, change{kind: componentsRemoved, entity: e, comps: s.components(e)})
		}).Register(w),
	}
	return nil
}

// Run refreshes the overlay.
func (s *WorldDebugSystem) Run(*ecs.World) error {
	s.flush()
	return nil
}

func (s *WorldDebugSystem) Destroy(w *ecs.World) error {
	for _, o := range s.observers {
		o.Unregister(w)
	}
	s.observers = nil
	s.flush()
	s.sink.Summary(s.alive, s.created, s.removed)
	s.world = nil
	return nil
}

func (s *WorldDebugSystem) flush() {
	for _, c := range s.pending {
		switch c.kind {
		case entityCreated:
			s.sink.EntityCreated(c.entity)
		case entityRemoved:
			s.sink.EntityRemoved(c.entity)
		case componentsAdded:
			s.sink.ComponentsAdded(c.entity, c.comps)
		case componentsRemoved:
			s.sink.ComponentsRemoved(c.entity, c.comps)
		}
	}
	clear(s.pending)
	s.pending = s.pending[:0]
}

// components lists the component types of a live entity.
func (s *WorldDebugSystem) components(e ecs.Entity) []reflect.Type {
	ids := s.world.Unsafe().IDs(e)
	types := make([]reflect.Type, 0, ids.Len())
	for i := 0; i < ids.Len(); i++ {
		if info, ok := ecs.ComponentInfo(s.world, ids.Get(i)); ok {
			types = append(types, info.Type)
		}
	}
	return types
}

// LogSink writes overlay events to a structured logger at debug level.
type LogSink struct {
	log *slog.Logger
}

// NewLogSink creates a sink logging to l.
func NewLogSink(l *slog.Logger) *LogSink {
	return &LogSink{log: l.With("component", "overlay")}
}

func (s *LogSink) EntityCreated(e ecs.Entity) {
	s.log.Debug("entity created", "entity", e)
}

func (s *LogSink) EntityRemoved(e ecs.Entity) {
	s.log.Debug("entity removed", "entity", e)
}

func (s *LogSink) ComponentsAdded(e ecs.Entity, comps []reflect.Type) {
	s.log.Debug("components added", "entity", e, "components", typeNames(comps))
}

func (s *LogSink) ComponentsRemoved(e ecs.Entity, comps []reflect.Type) {
	s.log.Debug("components removed", "entity", e, "components", typeNames(comps))
}

func (s *LogSink) Summary(alive, created, removed int) {
	s.log.Info("overlay closed", "alive", alive, "created", created, "removed", removed)
}

func typeNames(types []reflect.Type) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return names
}

// ComponentChange is one component event kept by a Recorder.
type ComponentChange struct {
	Entity     ecs.Entity
	Components []reflect.Type
}

// Recorder keeps every reported change in memory.
type Recorder struct {
	Created      []ecs.Entity
	Removed      []ecs.Entity
	Added        []ComponentChange
	Dropped      []ComponentChange
	Alive        int
	TotalCreated int
	TotalRemoved int
	Closed       bool
}

func (r *Recorder) EntityCreated(e ecs.Entity) { r.Created = append(r.Created, e) }

func (r *Recorder) EntityRemoved(e ecs.Entity) { r.Removed = append(r.Removed, e) }

func (r *Recorder) ComponentsAdded(e ecs.Entity, comps []reflect.Type) {
	r.Added = append(r.Added, ComponentChange{Entity: e, Components: comps})
}

func (r *Recorder) ComponentsRemoved(e ecs.Entity, comps []reflect.Type) {
	r.Dropped = append(r.Dropped, ComponentChange{Entity: e, Components: comps})
}

func (r *Recorder) Summary(alive, created, removed int) {
	r.Alive = alive
	r.TotalCreated = created
	r.TotalRemoved = removed
	r.Closed = true
}
