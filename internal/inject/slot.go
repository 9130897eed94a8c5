package inject

import (
	"reflect"

	"github.com/mlange-42/ark/ecs"
)

// Slot is a single declared dependency of a system.
// Resolve binds the slot against the world and shared context and reports
// whether the dependency could be satisfied.
type Slot interface {
	Type() reflect.Type
	Resolve(w *ecs.World, c *Context) bool
}

// Use is a required value taken from the shared context.
type Use[T any] struct {
	v *T
}

func (s *Use[T]) Type() reflect.Type { return TypeOf[T]() }

func (s *Use[T]) Resolve(_ *ecs.World, c *Context) bool {
	v, ok := Lookup[T](c)
	if !ok || v == nil {
		return false
	}
	s.v = v
	return true
}

// Get returns the resolved value, or nil before injection.
func (s *Use[T]) Get() *T { return s.v }

// Res is an ark world resource. When the world holds no resource of type T
// the shared context is consulted.
type Res[T any] struct {
	v *T
}

func (s *Res[T]) Type() reflect.Type { return TypeOf[T]() }

func (s *Res[T]) Resolve(w *ecs.World, c *Context) bool {
	if w != nil {
		res := ecs.NewResource[T](w)
		if res.Has() {
			s.v = res.Get()
			return true
		}
	}
	v, ok := Lookup[T](c)
	if !ok || v == nil {
		return false
	}
	s.v = v
	return true
}

// Get returns the resolved resource, or nil before injection.
func (s *Res[T]) Get() *T { return s.v }

// Map is a component mapper for T.
type Map[T any] struct {
	*ecs.Map1[T]
}

func (s *Map[T]) Type() reflect.Type { return TypeOf[T]() }

func (s *Map[T]) Resolve(w *ecs.World, _ *Context) bool {
	if w == nil {
		return false
	}
	s.Map1 = ecs.NewMap1[T](w)
	return true
}

// Filter is a query filter over entities holding T.
type Filter[T any] struct {
	*ecs.Filter1[T]
}

func (s *Filter[T]) Type() reflect.Type { return TypeOf[T]() }

func (s *Filter[T]) Resolve(w *ecs.World, _ *Context) bool {
	if w == nil {
		return false
	}
	s.Filter1 = ecs.NewFilter1[T](w)
	return true
}

// WorldRef binds the world itself.
type WorldRef struct {
	w *ecs.World
}

func (s *WorldRef) Type() reflect.Type { return TypeOf[ecs.World]() }

func (s *WorldRef) Resolve(w *ecs.World, _ *Context) bool {
	if w == nil {
		return false
	}
	s.w = w
	return true
}

// Get returns the bound world.
func (s *WorldRef) Get() *ecs.World { return s.w }

// Missing describes a slot that could not be resolved.
type Missing struct {
	System string
	Type   reflect.Type
}

// ResolveAll resolves every slot and returns those that failed, in order.
func ResolveAll(system string, slots []Slot, w *ecs.World, c *Context) []Missing {
	var missing []Missing
	for _, s := range slots {
		if s == nil {
			missing = append(missing, Missing{System: system})
			continue
		}
		if !s.Resolve(w, c) {
			missing = append(missing, Missing{System: system, Type: s.Type()})
		}
	}
	return missing
}
