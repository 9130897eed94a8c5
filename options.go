package starter

import (
	"log/slog"
	"os"
)

// Option configures a Host at construction time.
type Option func(*Host)

// WithLogger sets the logger used for lifecycle messages and the default overlay sink.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.log = l
		}
	}
}

// WithDiagnostics installs a diagnostics hook around every system callback.
func WithDiagnostics(d Diagnostics) Option {
	return func(h *Host) {
		h.diag.d = d
	}
}

// WithDebugOverlay enables or disables the default debug overlay pipeline.
// It has no effect once WithOverlay supplied overlay systems.
func WithDebugOverlay(enabled bool) Option {
	return func(h *Host) {
		h.debug = enabled
	}
}

// WithOverlay enables the debug overlay with the given systems in place of
// the default world debug system. Overlay systems passed here are always
// run, whatever WithConfig or WithDebugOverlay say and in whichever order
// the options are given.
func WithOverlay(systems ...System) Option {
	return func(h *Host) {
		h.debug = true
		h.overlaySystems = append(h.overlaySystems, systems...)
	}
}

// WithConfig applies a Config: the overlay switch and a logger on stderr.
// A later WithLogger overrides the logger. Config.Debug cannot disable
// systems supplied through WithOverlay.
func WithConfig(cfg Config) Option {
	return func(h *Host) {
		h.debug = cfg.Debug
		h.log = cfg.Logger(os.Stderr)
	}
}
