package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oriumgames/starter"
)

func main() {
	configPath := flag.String("config", "host.hcl", "Path to the host config file.")
	dataPath := flag.String("data", "gamedata.hcl", "Path to the game data file.")
	frames := flag.Int("frames", 0, "Stop after this many frames. 0 runs until interrupted.")
	flag.Parse()

	if err := run(*configPath, *dataPath, *frames); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, dataPath string, frames int) error {
	cfg, err := starter.LoadConfig(configPath)
	if err != nil {
		return err
	}
	logger := cfg.Logger(os.Stderr)

	data := &GameData{FrameRate: 60}
	if err := starter.DecodeFile(dataPath, data); err != nil {
		return err
	}
	step, err := data.Step()
	if err != nil {
		return err
	}
	if data.FrameRate <= 0 {
		return fmt.Errorf("frame_rate must be positive, got %d", data.FrameRate)
	}

	shared := starter.NewSharedContext()
	starter.Provide(shared, data)
	starter.Provide(shared, logger)

	host := starter.NewHost(Game{}, shared,
		starter.WithConfig(*cfg),
		starter.WithLogger(logger),
		starter.WithDiagnostics(starter.NewLogDiagnostics(logger)),
	)
	starter.AddResource(host.World(), &Stats{})

	if err := host.Start(); err != nil {
		return errors.Join(err, host.Shutdown())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	loopErr := loop(ctx, host, time.Second/time.Duration(data.FrameRate), step, frames)
	return errors.Join(loopErr, host.Shutdown())
}

// loop drives the host: one variable tick per frame, as many fixed ticks as
// the elapsed time allows, then the late tick.
func loop(ctx context.Context, host *starter.Host, frame, step time.Duration, frames int) error {
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	var acc time.Duration
	last := time.Now()
	for n := 0; frames == 0 || n < frames; n++ {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			acc += now.Sub(last)
			last = now
		}

		if err := host.Update(); err != nil {
			return err
		}
		for ; acc >= step; acc -= step {
			if err := host.FixedUpdate(); err != nil {
				return err
			}
		}
		if err := host.LateUpdate(); err != nil {
			return err
		}
	}
	return nil
}
