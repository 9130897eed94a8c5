package starter

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"
	"github.com/oriumgames/starter/internal/overlay"
	"github.com/oriumgames/starter/internal/pipeline"
)

// Extension populates the four phase pipelines. Each hook is called exactly
// once by Host.Start with a fresh, empty pipeline.
type Extension interface {
	SetInitSystems(p *Pipeline)
	SetUpdateSystems(p *Pipeline)
	SetFixedUpdateSystems(p *Pipeline)
	SetLateUpdateSystems(p *Pipeline)
}

// Hooks is an Extension built from functions. Nil hooks register nothing.
type Hooks struct {
	Init        func(p *Pipeline)
	Update      func(p *Pipeline)
	FixedUpdate func(p *Pipeline)
	LateUpdate  func(p *Pipeline)
}

func (h Hooks) SetInitSystems(p *Pipeline)        { callHook(h.Init, p) }
func (h Hooks) SetUpdateSystems(p *Pipeline)      { callHook(h.Update, p) }
func (h Hooks) SetFixedUpdateSystems(p *Pipeline) { callHook(h.FixedUpdate, p) }
func (h Hooks) SetLateUpdateSystems(p *Pipeline)  { callHook(h.LateUpdate, p) }

func callHook(fn func(*Pipeline), p *Pipeline) {
	if fn != nil {
		fn(p)
	}
}

// Host owns one World and drives the phase pipelines from the host loop.
// It is not safe for concurrent use; every call runs to completion on the
// caller's goroutine.
type Host struct {
	id     uuid.UUID
	world  *ecs.World
	shared *SharedContext
	ext    Extension
	log    *slog.Logger
	diag   *internalDiagnostics

	debug          bool
	overlaySystems []System

	pipelines [len(phases)]*Pipeline
	overlay   *Pipeline

	started bool
	running bool
	stopped bool
}

// NewHost creates a host and its world. shared may be nil, in which case an
// empty shared context is used.
func NewHost(ext Extension, shared *SharedContext, opts ...Option) *Host {
	if ext == nil {
		ext = Hooks{}
	}
	if shared == nil {
		shared = NewSharedContext()
	}
	w := ecs.NewWorld()
	h := &Host{
		id:     uuid.New(),
		world:  &w,
		shared: shared,
		ext:    ext,
		log:    slog.Default(),
		diag:   &internalDiagnostics{d: NopDiagnostics{}},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With("host_id", h.id.String())

	switch {
	case len(h.overlaySystems) > 0:
		h.debug = true
	case h.debug:
		h.overlaySystems = []System{overlay.NewWorldDebugSystem(overlay.NewLogSink(h.log))}
	}
	return h
}

// Start creates the pipelines, lets the extension populate them in the
// order Init, Update, FixedUpdate, LateUpdate, and injects and initializes
// each one right after its hook returns. The debug overlay, when enabled,
// is initialized before the Init pipeline.
//
// Any failure aborts startup. Pipelines initialized so far are released by
// Shutdown.
func (h *Host) Start() error {
	if h.started || h.stopped {
		return fmt.Errorf("starter: Start called twice or after Shutdown: %w", ErrLifecycle)
	}
	h.started = true

	for _, ph := range phases {
		h.pipelines[ph] = pipeline.New(ph, h.world, h.shared, h.diag)
	}

	for _, ph := range phases {
		p := h.pipelines[ph]
		h.register(ph, p)

		if ph == Init && h.debug {
			h.overlay = pipeline.New(Debug, h.world, h.shared, h.diag)
			for _, sys := range h.overlaySystems {
				h.overlay.Add(sys)
			}
			if err := h.prepare(h.overlay); err != nil {
				return err
			}
		}
		if err := h.prepare(p); err != nil {
			return err
		}
	}

	h.running = true
	h.log.Info("host started", "overlay", h.overlay != nil)
	return nil
}

func (h *Host) register(ph Phase, p *Pipeline) {
	switch ph {
	case Init:
		h.ext.SetInitSystems(p)
	case Update:
		h.ext.SetUpdateSystems(p)
	case FixedUpdate:
		h.ext.SetFixedUpdateSystems(p)
	case LateUpdate:
		h.ext.SetLateUpdateSystems(p)
	}
}

func (h *Host) prepare(p *Pipeline) error {
	if err := p.Inject(); err != nil {
		h.log.Error("pipeline injection failed", "phase", p.Phase().String(), "error", err)
		return fmt.Errorf("starter: inject %s pipeline: %w", p.Phase(), err)
	}
	if err := p.Init(); err != nil {
		h.log.Error("pipeline init failed", "phase", p.Phase().String(), "error", err)
		return fmt.Errorf("starter: init %s pipeline: %w", p.Phase(), err)
	}
	h.log.Debug("pipeline initialized", "phase", p.Phase().String(), "systems", p.Len())
	return nil
}

// Update handles a variable-rate tick: it runs the Update pipeline and then
// refreshes the debug overlay.
func (h *Host) Update() error {
	if err := h.tick(h.bound(Update)); err != nil {
		return err
	}
	return h.tick(h.boundOverlay())
}

// FixedUpdate handles a fixed-rate tick.
func (h *Host) FixedUpdate() error {
	return h.tick(h.bound(FixedUpdate))
}

// LateUpdate handles the late variable-rate tick that follows Update.
func (h *Host) LateUpdate() error {
	return h.tick(h.bound(LateUpdate))
}

// tick runs p. An unbound pipeline is skipped silently.
func (h *Host) tick(p *Pipeline) error {
	if p == nil {
		return nil
	}
	if err := p.Run(); err != nil {
		return fmt.Errorf("starter: %s tick: %w", p.Phase(), err)
	}
	return nil
}

func (h *Host) bound(ph Phase) *Pipeline {
	if !h.running {
		return nil
	}
	return h.pipelines[ph]
}

func (h *Host) boundOverlay() *Pipeline {
	if !h.running {
		return nil
	}
	return h.overlay
}

// Shutdown destroys the debug overlay, then the Init pipeline, then the
// LateUpdate, FixedUpdate and Update pipelines. Each reference is cleared
// once destroyed, so calling Shutdown again is a no-op. Teardown errors
// from every pipeline are joined.
func (h *Host) Shutdown() error {
	if h.stopped {
		return nil
	}
	h.stopped = true
	h.running = false

	errs := []error{h.destroy(&h.overlay)}
	for _, ph := range [...]Phase{Init, LateUpdate, FixedUpdate, Update} {
		errs = append(errs, h.destroy(&h.pipelines[ph]))
	}
	err := errors.Join(errs...)
	if err != nil {
		h.log.Error("host stopped with errors", "error", err)
	} else if h.started {
		h.log.Info("host stopped")
	}
	return err
}

// destroy tears down *ref if it was initialized and clears the reference.
func (h *Host) destroy(ref **Pipeline) error {
	p := *ref
	*ref = nil
	if p == nil || p.State() != Initialized {
		return nil
	}
	if err := p.Destroy(); err != nil {
		return fmt.Errorf("starter: destroy %s pipeline: %w", p.Phase(), err)
	}
	return nil
}

// ID returns the host's run identifier, attached to every log line.
func (h *Host) ID() uuid.UUID { return h.id }

// World returns the host's world.
func (h *Host) World() *World { return h.world }

// Shared returns the shared context injected into every pipeline.
func (h *Host) Shared() *SharedContext { return h.shared }

// Pipeline returns the pipeline bound to ph, or nil when none is bound.
// Debug returns the overlay pipeline.
func (h *Host) Pipeline(ph Phase) *Pipeline {
	if ph == Debug {
		return h.overlay
	}
	if ph < 0 || int(ph) >= len(h.pipelines) {
		return nil
	}
	return h.pipelines[ph]
}

// Overlay returns the debug overlay pipeline, or nil when it is disabled.
func (h *Host) Overlay() *Pipeline { return h.overlay }

// Running reports whether Start succeeded and Shutdown has not been called.
func (h *Host) Running() bool { return h.running }
