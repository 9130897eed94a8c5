package main

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"github.com/oriumgames/starter"
)

func newTestHost(t *testing.T, data *GameData) *starter.Host {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	shared := starter.NewSharedContext()
	starter.Provide(shared, data)
	starter.Provide(shared, logger)

	h := starter.NewHost(Game{}, shared, starter.WithLogger(logger))
	starter.AddResource(h.World(), &Stats{})
	return h
}

func TestBodiesStayInBounds(t *testing.T) {
	data := &GameData{Bodies: 20, Width: 10, Height: 5, MaxSpeed: 40, FixedStep: "10ms", ReportEvery: 7}
	h := newTestHost(t, data)
	if err := h.Start(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 50; i++ {
		if err := h.Update(); err != nil {
			t.Fatal(err)
		}
		for j := 0; j < 2; j++ {
			if err := h.FixedUpdate(); err != nil {
				t.Fatal(err)
			}
		}
		if err := h.LateUpdate(); err != nil {
			t.Fatal(err)
		}
	}

	res := ecs.NewResource[Stats](h.World())
	stats := res.Get()
	if stats.Frames != 50 || stats.FixedTicks != 100 {
		t.Errorf("stats = %+v, want 50 frames and 100 fixed ticks", stats)
	}

	n := 0
	q := ecs.NewFilter1[Position](h.World()).Query()
	for q.Next() {
		p := q.Get()
		n++
		if p.X() < 0 || p.X() > 10 || p.Y() < 0 || p.Y() > 5 {
			t.Errorf("body out of bounds: %v", p.Vec2)
		}
	}
	if n != 20 {
		t.Errorf("found %d bodies, want 20", n)
	}

	if err := h.Shutdown(); err != nil {
		t.Fatal(err)
	}
}

func TestMissingGameDataFailsStartup(t *testing.T) {
	h := starter.NewHost(Game{}, nil, starter.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	err := h.Start()
	if !errors.Is(err, starter.ErrConfiguration) {
		t.Fatalf("Start err = %v, want ErrConfiguration", err)
	}
	if err := h.Shutdown(); err != nil {
		t.Fatal(err)
	}
}

func TestInvalidFixedStep(t *testing.T) {
	h := newTestHost(t, &GameData{Bodies: 1, Width: 1, Height: 1, FixedStep: "soon"})
	err := h.Start()
	if !errors.Is(err, starter.ErrSystemFailure) {
		t.Fatalf("Start err = %v, want ErrSystemFailure", err)
	}
}
