package starter_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/oriumgames/starter"
)

type position struct{ X, Y float32 }

type gameData struct{ Spawn int }

// recorder is a system logging every callback it receives.
type recorder struct {
	name   string
	log    *[]string
	failOn string
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) hit(cb string) error {
	*r.log = append(*r.log, cb+":"+r.name)
	if r.failOn == cb {
		return errors.New("boom")
	}
	return nil
}

func (r *recorder) Init(*starter.World) error    { return r.hit("init") }
func (r *recorder) Run(*starter.World) error     { return r.hit("run") }
func (r *recorder) Destroy(*starter.World) error { return r.hit("destroy") }

// spawner creates gameData.Spawn entities during Init.
type spawner struct {
	cfg starter.Use[gameData]
	pos starter.Map[position]
}

func (s *spawner) Dependencies() []starter.Slot { return []starter.Slot{&s.cfg, &s.pos} }

func (s *spawner) Init(*starter.World) error {
	for i := 0; i < s.cfg.Get().Spawn; i++ {
		s.pos.NewEntity(&position{X: float32(i)})
	}
	return nil
}

type velocity struct{ DX, DY float32 }

// churner creates a short-lived entity and reshapes a second one during Init.
type churner struct {
	pos starter.Map[position]
	vel starter.Map[velocity]
}

func (c *churner) Dependencies() []starter.Slot { return []starter.Slot{&c.pos, &c.vel} }

func (c *churner) Init(w *starter.World) error {
	e := w.NewEntity()
	w.RemoveEntity(e)
	kept := c.pos.NewEntity(&position{})
	c.vel.Add(kept, &velocity{DX: 1})
	return nil
}

// extension records hook calls and registers one recorder per phase.
type extension struct {
	log   *[]string
	hooks []string
	extra map[starter.Phase][]starter.System
}

func newExtension() *extension {
	return &extension{log: &[]string{}, extra: map[starter.Phase][]starter.System{}}
}

func (e *extension) populate(ph starter.Phase, p *starter.Pipeline) {
	e.hooks = append(e.hooks, ph.String())
	if p.State() != starter.Building || p.Len() != 0 {
		panic("hook received a non-empty pipeline")
	}
	p.Add(&recorder{name: ph.String(), log: e.log})
	for _, sys := range e.extra[ph] {
		p.Add(sys)
	}
}

func (e *extension) SetInitSystems(p *starter.Pipeline)        { e.populate(starter.Init, p) }
func (e *extension) SetUpdateSystems(p *starter.Pipeline)      { e.populate(starter.Update, p) }
func (e *extension) SetFixedUpdateSystems(p *starter.Pipeline) { e.populate(starter.FixedUpdate, p) }
func (e *extension) SetLateUpdateSystems(p *starter.Pipeline)  { e.populate(starter.LateUpdate, p) }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestStartupOrder(t *testing.T) {
	ext := newExtension()
	h := starter.NewHost(ext, nil, starter.WithLogger(quietLogger()))

	if err := h.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if diff := cmp.Diff([]string{"Init", "Update", "FixedUpdate", "LateUpdate"}, ext.hooks); diff != "" {
		t.Errorf("hook order (-want +got):\n%s", diff)
	}
	want := []string{"init:Init", "init:Update", "init:FixedUpdate", "init:LateUpdate"}
	if diff := cmp.Diff(want, *ext.log); diff != "" {
		t.Errorf("init order (-want +got):\n%s", diff)
	}
	for _, ph := range []starter.Phase{starter.Init, starter.Update, starter.FixedUpdate, starter.LateUpdate} {
		p := h.Pipeline(ph)
		if p == nil || p.State() != starter.Initialized || p.World() != h.World() || p.Shared() != h.Shared() {
			t.Errorf("%s pipeline not initialized against the host world and context", ph)
		}
	}
	if h.Pipeline(starter.Debug) != nil {
		t.Error("overlay must be absent by default")
	}
	if !h.Running() {
		t.Error("host should be running")
	}
}

func TestTickDispatch(t *testing.T) {
	ext := newExtension()
	h := starter.NewHost(ext, nil, starter.WithLogger(quietLogger()))
	if err := h.Start(); err != nil {
		t.Fatal(err)
	}
	*ext.log = (*ext.log)[:0]

	steps := []func() error{h.Update, h.FixedUpdate, h.FixedUpdate, h.LateUpdate}
	for _, step := range steps {
		if err := step(); err != nil {
			t.Fatal(err)
		}
	}

	want := []string{"run:Update", "run:FixedUpdate", "run:FixedUpdate", "run:LateUpdate"}
	if diff := cmp.Diff(want, *ext.log); diff != "" {
		t.Errorf("tick dispatch (-want +got):\n%s", diff)
	}
}

func TestTicksWithoutBoundPipelineAreNoOps(t *testing.T) {
	ext := newExtension()
	h := starter.NewHost(ext, nil, starter.WithLogger(quietLogger()))

	for _, tick := range []func() error{h.Update, h.FixedUpdate, h.LateUpdate} {
		if err := tick(); err != nil {
			t.Errorf("tick before Start returned %v", err)
		}
	}
	if len(*ext.log) != 0 {
		t.Errorf("no system may run before Start, got %v", *ext.log)
	}

	if err := h.Start(); err != nil {
		t.Fatal(err)
	}
	if err := h.Shutdown(); err != nil {
		t.Fatal(err)
	}
	*ext.log = (*ext.log)[:0]
	for _, tick := range []func() error{h.Update, h.FixedUpdate, h.LateUpdate} {
		if err := tick(); err != nil {
			t.Errorf("tick after Shutdown returned %v", err)
		}
	}
	if len(*ext.log) != 0 {
		t.Errorf("no system may run after Shutdown, got %v", *ext.log)
	}
}

func TestShutdownOrderAndIdempotence(t *testing.T) {
	ext := newExtension()
	rec := &starter.OverlayRecorder{}
	overlayLog := &recorder{name: "Overlay", log: ext.log}
	h := starter.NewHost(ext, nil,
		starter.WithLogger(quietLogger()),
		starter.WithOverlay(starter.NewWorldDebugSystem(rec), overlayLog),
	)
	if err := h.Start(); err != nil {
		t.Fatal(err)
	}
	*ext.log = (*ext.log)[:0]

	if err := h.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	want := []string{
		"destroy:Overlay",
		"destroy:Init",
		"destroy:LateUpdate",
		"destroy:FixedUpdate",
		"destroy:Update",
	}
	if diff := cmp.Diff(want, *ext.log); diff != "" {
		t.Errorf("shutdown order (-want +got):\n%s", diff)
	}
	if !rec.Closed {
		t.Error("overlay system was not destroyed")
	}

	*ext.log = (*ext.log)[:0]
	if err := h.Shutdown(); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
	if len(*ext.log) != 0 {
		t.Errorf("second Shutdown re-ran teardown: %v", *ext.log)
	}
	for _, ph := range []starter.Phase{starter.Debug, starter.Init, starter.Update, starter.FixedUpdate, starter.LateUpdate} {
		if h.Pipeline(ph) != nil {
			t.Errorf("%s pipeline reference not cleared", ph)
		}
	}
}

func TestStartTwiceIsLifecycleViolation(t *testing.T) {
	h := starter.NewHost(nil, nil, starter.WithLogger(quietLogger()))
	if err := h.Start(); err != nil {
		t.Fatal(err)
	}
	if err := h.Start(); !errors.Is(err, starter.ErrLifecycle) {
		t.Errorf("second Start err = %v, want ErrLifecycle", err)
	}
	if err := h.Shutdown(); err != nil {
		t.Fatal(err)
	}

	h2 := starter.NewHost(nil, nil, starter.WithLogger(quietLogger()))
	if err := h2.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := h2.Start(); !errors.Is(err, starter.ErrLifecycle) {
		t.Errorf("Start after Shutdown err = %v, want ErrLifecycle", err)
	}
}

func TestMissingDependencyAbortsStartup(t *testing.T) {
	ext := newExtension()
	ext.extra[starter.Update] = []starter.System{&spawner{}}
	h := starter.NewHost(ext, nil, starter.WithLogger(quietLogger()))

	err := h.Start()
	if !errors.Is(err, starter.ErrConfiguration) {
		t.Fatalf("Start err = %v, want ErrConfiguration", err)
	}
	var ce *starter.ConfigError
	if !errors.As(err, &ce) || ce.Phase != starter.Update {
		t.Fatalf("unexpected config error %#v", ce)
	}
	if h.Running() {
		t.Error("host must not be running after a failed start")
	}

	// The Init pipeline came up before the failure; nothing in Update did.
	if diff := cmp.Diff([]string{"init:Init"}, *ext.log); diff != "" {
		t.Errorf("setup calls (-want +got):\n%s", diff)
	}
	if err := h.Update(); err != nil {
		t.Errorf("tick after failed start returned %v", err)
	}

	*ext.log = (*ext.log)[:0]
	if err := h.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"destroy:Init"}, *ext.log); diff != "" {
		t.Errorf("shutdown after failed start (-want +got):\n%s", diff)
	}
}

func TestOverlayObservesInitEntities(t *testing.T) {
	shared := starter.NewSharedContext()
	starter.Provide(shared, &gameData{Spawn: 3})

	ext := newExtension()
	ext.extra[starter.Init] = []starter.System{&spawner{}}
	rec := &starter.OverlayRecorder{}
	h := starter.NewHost(ext, shared,
		starter.WithLogger(quietLogger()),
		starter.WithOverlay(starter.NewWorldDebugSystem(rec)),
	)
	if err := h.Start(); err != nil {
		t.Fatal(err)
	}
	if h.Overlay() == nil {
		t.Fatal("overlay pipeline missing")
	}
	if err := h.Update(); err != nil {
		t.Fatal(err)
	}
	if len(rec.Created) != 3 {
		t.Errorf("overlay saw %d created entities, want 3", len(rec.Created))
	}
	if err := h.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if rec.Alive != 3 {
		t.Errorf("overlay summary alive = %d, want 3", rec.Alive)
	}
}

func TestOverlayObservesInitChurn(t *testing.T) {
	ext := newExtension()
	ext.extra[starter.Init] = []starter.System{&churner{}}
	rec := &starter.OverlayRecorder{}
	h := starter.NewHost(ext, nil,
		starter.WithLogger(quietLogger()),
		starter.WithOverlay(starter.NewWorldDebugSystem(rec)),
	)
	if err := h.Start(); err != nil {
		t.Fatal(err)
	}
	if err := h.Update(); err != nil {
		t.Fatal(err)
	}
	if len(rec.Created) != 2 || len(rec.Removed) != 1 {
		t.Errorf("overlay saw created=%v removed=%v, want 2 created and 1 removed", rec.Created, rec.Removed)
	}
	if len(rec.Added) != 1 || len(rec.Added[0].Components) != 2 {
		t.Errorf("overlay saw component additions %+v, want one entity with 2 components", rec.Added)
	}
	if err := h.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if rec.Alive != 1 {
		t.Errorf("overlay summary alive = %d, want 1", rec.Alive)
	}
}

func TestOverlayInitializedBeforeInitPipeline(t *testing.T) {
	ext := newExtension()
	overlayLog := &recorder{name: "Overlay", log: ext.log}
	h := starter.NewHost(ext, nil, starter.WithLogger(quietLogger()), starter.WithOverlay(overlayLog))
	if err := h.Start(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"init:Overlay", "init:Init"}, (*ext.log)[:2]); diff != "" {
		t.Errorf("overlay init order (-want +got):\n%s", diff)
	}

	*ext.log = (*ext.log)[:0]
	if err := h.Update(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"run:Update", "run:Overlay"}, *ext.log); diff != "" {
		t.Errorf("variable tick (-want +got):\n%s", diff)
	}
}

func TestOverlayDoesNotChangePrimaryBehaviour(t *testing.T) {
	run := func(opts ...starter.Option) []string {
		shared := starter.NewSharedContext()
		starter.Provide(shared, &gameData{Spawn: 2})
		ext := newExtension()
		ext.extra[starter.Init] = []starter.System{&spawner{}}
		h := starter.NewHost(ext, shared, append(opts, starter.WithLogger(quietLogger()))...)
		if err := h.Start(); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 2; i++ {
			if err := h.Update(); err != nil {
				t.Fatal(err)
			}
			if err := h.FixedUpdate(); err != nil {
				t.Fatal(err)
			}
			if err := h.LateUpdate(); err != nil {
				t.Fatal(err)
			}
		}
		if err := h.Shutdown(); err != nil {
			t.Fatal(err)
		}
		return *ext.log
	}

	plain := run()
	debug := run(starter.WithDebugOverlay(true))
	if diff := cmp.Diff(plain, debug); diff != "" {
		t.Errorf("overlay changed primary callbacks (-plain +debug):\n%s", diff)
	}
}

func TestTickFailurePropagates(t *testing.T) {
	ext := newExtension()
	ext.extra[starter.FixedUpdate] = []starter.System{&recorder{name: "bad", log: &[]string{}, failOn: "run"}}
	h := starter.NewHost(ext, nil, starter.WithLogger(quietLogger()))
	if err := h.Start(); err != nil {
		t.Fatal(err)
	}

	err := h.FixedUpdate()
	if !errors.Is(err, starter.ErrSystemFailure) {
		t.Fatalf("FixedUpdate err = %v, want ErrSystemFailure", err)
	}
	var se *starter.SystemError
	if !errors.As(err, &se) || se.System != "bad" || se.Phase != starter.FixedUpdate {
		t.Errorf("unexpected system error %#v", se)
	}
	if !h.Running() {
		t.Error("a tick failure must not stop the host")
	}
}

func TestHooksExtension(t *testing.T) {
	var got []string
	h := starter.NewHost(starter.Hooks{
		Init: func(p *starter.Pipeline) { got = append(got, "init") },
		LateUpdate: func(p *starter.Pipeline) {
			got = append(got, "late")
		},
	}, nil, starter.WithLogger(quietLogger()))
	if err := h.Start(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"init", "late"}, got); diff != "" {
		t.Errorf("hooks (-want +got):\n%s", diff)
	}
}

func TestLifecycleLogging(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := starter.NewHost(newExtension(), nil, starter.WithLogger(l), starter.WithDiagnostics(starter.NewLogDiagnostics(l)))
	if err := h.Start(); err != nil {
		t.Fatal(err)
	}
	if err := h.Shutdown(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"host started", "pipeline initialized", "phase=LateUpdate", "system finished", "host stopped", "host_id=" + h.ID().String()} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q", want)
		}
	}
}
