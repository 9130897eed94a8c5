package pipeline

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/mlange-42/ark/ecs"
	"github.com/oriumgames/starter/internal/inject"
)

// Pipeline is an ordered group of systems bound to one world and one phase.
// It moves Building -> Initialized -> Destroyed and never back.
// All methods run synchronously on the caller's goroutine.
type Pipeline struct {
	phase    Phase
	world    *ecs.World
	shared   *inject.Context
	diag     Diagnostics
	systems  []entry
	state    State
	injected bool
	err      error // first registration error, reported by Inject
}

// New creates an empty pipeline in the Building state.
// The world and shared context are borrowed, never owned.
func New(phase Phase, w *ecs.World, shared *inject.Context, diag Diagnostics) *Pipeline {
	return &Pipeline{
		phase:  phase,
		world:  w,
		shared: shared,
		diag:   diag,
	}
}

// Add appends a system. It panics with a *LifecycleError once the pipeline
// has left the Building state.
func (p *Pipeline) Add(sys System) *Pipeline {
	if p.state != Building {
		panic(p.violation("Add"))
	}
	if sys == nil {
		if p.err == nil {
			p.err = fmt.Errorf("nil system registered at position %d", len(p.systems))
		}
		return p
	}
	p.systems = append(p.systems, entry{name: systemName(sys), sys: sys})
	p.injected = false
	return p
}

// Inject resolves the declared dependencies of every system.
// All unresolved slots are reported together in a *ConfigError.
func (p *Pipeline) Inject() error {
	if p.state != Building {
		return p.violation("Inject")
	}
	if p.err != nil {
		return &ConfigError{Phase: p.phase, Cause: p.err}
	}

	var missing []inject.Missing
	for _, e := range p.systems {
		dep, ok := e.sys.(Dependent)
		if !ok {
			continue
		}
		missing = append(missing, inject.ResolveAll(e.name, dep.Dependencies(), p.world, p.shared)...)
	}
	if len(missing) > 0 {
		return &ConfigError{Phase: p.phase, Missing: missing}
	}

	p.injected = true
	return nil
}

// Init runs every InitSystem in registration order. If a system fails, the
// systems already set up are torn down in reverse order and the pipeline
// ends up Destroyed.
func (p *Pipeline) Init() error {
	if p.state != Building {
		return p.violation("Init")
	}
	if !p.injected {
		return p.violation("Init before Inject")
	}
	p.state = Initialized

	for i, e := range p.systems {
		s, ok := e.sys.(InitSystem)
		if !ok {
			continue
		}
		if err := p.call(e.name, "Init", s.Init); err != nil {
			unwind := p.teardown(p.systems[:i])
			p.systems = nil
			p.state = Destroyed
			return errors.Join(err, unwind)
		}
	}
	return nil
}

// Run executes every RunSystem in registration order. The first failure
// aborts the remaining systems of this tick.
func (p *Pipeline) Run() error {
	if p.state != Initialized {
		return p.violation("Run")
	}
	for _, e := range p.systems {
		s, ok := e.sys.(RunSystem)
		if !ok {
			continue
		}
		if err := p.call(e.name, "Run", s.Run); err != nil {
			return err
		}
	}
	return nil
}

// Destroy runs every DestroySystem in reverse registration order. Every
// system is torn down even if an earlier one fails.
func (p *Pipeline) Destroy() error {
	if p.state != Initialized {
		return p.violation("Destroy")
	}
	err := p.teardown(p.systems)
	p.systems = nil
	p.state = Destroyed
	return err
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State { return p.state }

// Phase returns the phase the pipeline is bound to.
func (p *Pipeline) Phase() Phase { return p.phase }

// World returns the borrowed world.
func (p *Pipeline) World() *ecs.World { return p.world }

// Shared returns the borrowed shared context.
func (p *Pipeline) Shared() *inject.Context { return p.shared }

// Len returns the number of registered systems.
func (p *Pipeline) Len() int { return len(p.systems) }

// Names returns the system names in registration order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.systems))
	for i, e := range p.systems {
		names[i] = e.name
	}
	return names
}

func (p *Pipeline) teardown(systems []entry) error {
	var errs []error
	for i := len(systems) - 1; i >= 0; i-- {
		e := systems[i]
		s, ok := e.sys.(DestroySystem)
		if !ok {
			continue
		}
		if err := p.call(e.name, "Destroy", s.Destroy); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// call executes a single callback with diagnostics and panic capture.
func (p *Pipeline) call(name, callback string, fn func(*ecs.World) error) (err error) {
	if p.diag != nil {
		p.diag.SystemStart(name, p.phase)
	}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = &SystemError{
				Phase:    p.phase,
				System:   name,
				Callback: callback,
				Cause:    panicCause(r),
				Stack:    debug.Stack(),
			}
		}
		if p.diag != nil {
			p.diag.SystemEnd(name, p.phase, err, time.Since(start))
		}
	}()

	if cerr := fn(p.world); cerr != nil {
		return &SystemError{Phase: p.phase, System: name, Callback: callback, Cause: cerr}
	}
	return nil
}

// panicCause keeps the error chain of a panic value that is an error.
func panicCause(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}

func (p *Pipeline) violation(op string) *LifecycleError {
	return &LifecycleError{Phase: p.phase, Op: op, State: p.state}
}
