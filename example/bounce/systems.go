package main

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"
	"github.com/oriumgames/starter"
)

// GameData is the shared game configuration, decoded from gamedata.hcl.
type GameData struct {
	Bodies      int     `hcl:"bodies"`
	Width       float64 `hcl:"width"`
	Height      float64 `hcl:"height"`
	MaxSpeed    float64 `hcl:"max_speed,optional"`
	FixedStep   string  `hcl:"fixed_step,optional"`
	FrameRate   int     `hcl:"frame_rate,optional"`
	ReportEvery int     `hcl:"report_every,optional"`
}

func (g *GameData) Step() (time.Duration, error) {
	if g.FixedStep == "" {
		return 20 * time.Millisecond, nil
	}
	d, err := time.ParseDuration(g.FixedStep)
	if err != nil {
		return 0, fmt.Errorf("fixed_step: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("fixed_step must be positive, got %s", d)
	}
	return d, nil
}

type Position struct {
	mgl32.Vec2
}

type Velocity struct {
	mgl32.Vec2
}

// Stats is a world resource shared by the per-frame systems.
type Stats struct {
	Frames     int
	FixedTicks int
	Bounces    int
}

// Game registers the demo systems into the four phases.
type Game struct{}

func (Game) SetInitSystems(p *starter.Pipeline) {
	p.Add(&SpawnSystem{})
}

func (Game) SetUpdateSystems(p *starter.Pipeline) {
	p.Add(&FrameCounterSystem{})
}

func (Game) SetFixedUpdateSystems(p *starter.Pipeline) {
	p.Add(&MoveSystem{}).Add(&BounceSystem{})
}

func (Game) SetLateUpdateSystems(p *starter.Pipeline) {
	p.Add(&ReportSystem{})
}

// SpawnSystem creates the bodies with random velocities.
type SpawnSystem struct {
	data starter.Use[GameData]
	pos  starter.Map[Position]
	vel  starter.Map[Velocity]
}

func (s *SpawnSystem) Dependencies() []starter.Slot {
	return []starter.Slot{&s.data, &s.pos, &s.vel}
}

func (s *SpawnSystem) Init(*ecs.World) error {
	gd := s.data.Get()
	if gd.Bodies < 0 {
		return fmt.Errorf("bodies must not be negative, got %d", gd.Bodies)
	}
	maxSpeed := float32(gd.MaxSpeed)
	for i := 0; i < gd.Bodies; i++ {
		e := s.pos.NewEntity(&Position{mgl32.Vec2{
			rand.Float32() * float32(gd.Width),
			rand.Float32() * float32(gd.Height),
		}})
		s.vel.Add(e, &Velocity{mgl32.Vec2{
			(rand.Float32()*2 - 1) * maxSpeed,
			(rand.Float32()*2 - 1) * maxSpeed,
		}})
	}
	return nil
}

// FrameCounterSystem counts variable-rate frames.
type FrameCounterSystem struct {
	stats starter.Res[Stats]
}

func (s *FrameCounterSystem) Dependencies() []starter.Slot { return []starter.Slot{&s.stats} }

func (s *FrameCounterSystem) Run(*ecs.World) error {
	s.stats.Get().Frames++
	return nil
}

// MoveSystem integrates positions on the fixed step.
type MoveSystem struct {
	data   starter.Use[GameData]
	stats  starter.Res[Stats]
	filter *ecs.Filter2[Position, Velocity]
	dt     float32
}

func (s *MoveSystem) Dependencies() []starter.Slot { return []starter.Slot{&s.data, &s.stats} }

func (s *MoveSystem) Init(w *ecs.World) error {
	step, err := s.data.Get().Step()
	if err != nil {
		return err
	}
	s.dt = float32(step.Seconds())
	s.filter = ecs.NewFilter2[Position, Velocity](w)
	return nil
}

func (s *MoveSystem) Run(*ecs.World) error {
	q := s.filter.Query()
	for q.Next() {
		pos, vel := q.Get()
		pos.Vec2 = pos.Add(vel.Mul(s.dt))
	}
	s.stats.Get().FixedTicks++
	return nil
}

// BounceSystem reflects bodies that left the play field.
type BounceSystem struct {
	data   starter.Use[GameData]
	stats  starter.Res[Stats]
	filter starter.Filter[Position]
	vel    starter.Map[Velocity]
}

func (s *BounceSystem) Dependencies() []starter.Slot {
	return []starter.Slot{&s.data, &s.stats, &s.filter, &s.vel}
}

func (s *BounceSystem) Run(*ecs.World) error {
	gd := s.data.Get()
	bounds := mgl32.Vec2{float32(gd.Width), float32(gd.Height)}
	q := s.filter.Query()
	for q.Next() {
		pos := q.Get()
		vel := s.vel.Get(q.Entity())
		if vel == nil {
			continue
		}
		for axis := 0; axis < 2; axis++ {
			switch {
			case pos.Vec2[axis] < 0:
				pos.Vec2[axis] = -pos.Vec2[axis]
				vel.Vec2[axis] = -vel.Vec2[axis]
				s.stats.Get().Bounces++
			case pos.Vec2[axis] > bounds[axis]:
				pos.Vec2[axis] = 2*bounds[axis] - pos.Vec2[axis]
				vel.Vec2[axis] = -vel.Vec2[axis]
				s.stats.Get().Bounces++
			}
		}
	}
	return nil
}

// ReportSystem logs the swarm centroid every few frames.
type ReportSystem struct {
	data   starter.Use[GameData]
	log    starter.Use[slog.Logger]
	stats  starter.Res[Stats]
	filter starter.Filter[Position]
}

func (s *ReportSystem) Dependencies() []starter.Slot {
	return []starter.Slot{&s.data, &s.log, &s.stats, &s.filter}
}

func (s *ReportSystem) Run(*ecs.World) error {
	every := s.data.Get().ReportEvery
	stats := s.stats.Get()
	if every <= 0 || stats.Frames%every != 0 {
		return nil
	}
	var sum mgl32.Vec2
	n := 0
	q := s.filter.Query()
	for q.Next() {
		sum = sum.Add(q.Get().Vec2)
		n++
	}
	if n > 0 {
		sum = sum.Mul(1 / float32(n))
	}
	s.log.Get().Info("swarm",
		"frames", stats.Frames,
		"fixed_ticks", stats.FixedTicks,
		"bounces", stats.Bounces,
		"bodies", n,
		"centroid", fmt.Sprintf("(%.2f, %.2f)", sum.X(), sum.Y()),
	)
	return nil
}

func (s *ReportSystem) Destroy(*ecs.World) error {
	stats := s.stats.Get()
	s.log.Get().Info("final", "frames", stats.Frames, "fixed_ticks", stats.FixedTicks, "bounces", stats.Bounces)
	return nil
}
