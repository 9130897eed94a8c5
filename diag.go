package starter

import (
	"log/slog"
	"time"

	"github.com/oriumgames/starter/internal/pipeline"
)

// Diagnostics is the interface for system execution diagnostics.
type Diagnostics interface {
	SystemStart(name string, phase Phase)
	SystemEnd(name string, phase Phase, err error, duration time.Duration)
}

// NopDiagnostics is a no-op diagnostics implementation.
type NopDiagnostics struct{}

func (NopDiagnostics) SystemStart(string, Phase)                     {}
func (NopDiagnostics) SystemEnd(string, Phase, error, time.Duration) {}

// LogDiagnostics logs every system callback to a structured logger.
type LogDiagnostics struct {
	log *slog.Logger
}

// NewLogDiagnostics creates a diagnostics handler that logs to the given logger.
func NewLogDiagnostics(log *slog.Logger) *LogDiagnostics {
	return &LogDiagnostics{log: log}
}

func (d *LogDiagnostics) SystemStart(name string, phase Phase) {
	d.log.Debug("system started", "system", name, "phase", phase.String())
}

func (d *LogDiagnostics) SystemEnd(name string, phase Phase, err error, duration time.Duration) {
	if err != nil {
		d.log.Error("system failed", "system", name, "phase", phase.String(), "duration", duration, "error", err)
		return
	}
	d.log.Debug("system finished", "system", name, "phase", phase.String(), "duration", duration)
}

// internalDiagnostics guards pipeline callbacks against a nil Diagnostics.
type internalDiagnostics struct {
	d Diagnostics
}

var _ pipeline.Diagnostics = (*internalDiagnostics)(nil)

func (da *internalDiagnostics) SystemStart(name string, phase pipeline.Phase) {
	if da.d != nil {
		da.d.SystemStart(name, phase)
	}
}

func (da *internalDiagnostics) SystemEnd(name string, phase pipeline.Phase, err error, duration time.Duration) {
	if da.d != nil {
		da.d.SystemEnd(name, phase, err, duration)
	}
}
