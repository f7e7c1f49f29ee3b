package pair

import (
	"fmt"
	"os"
	"time"

	"github.com/racewindow/fuzzysync/internal/fzsync/stat"
)

// Config holds the values a caller chooses once, at construction time, and
// that survive across Reset calls: alpha, min samples, the iteration/time
// budget, and the CPU-pinning policy choice. Everything else on a Pair is
// reinitialized by Reset.
type Config struct {
	// Alpha is the EMA smoothing factor used by every Stat the coordinator
	// maintains. Default 0.25.
	Alpha float64

	// MinSamples is the minimum number of samples required before the
	// engine may switch out of sampling mode into amplify mode. Default
	// 1024; tests raise it to 10000 or more to force extended sampling on
	// harder races.
	MinSamples int64

	// ExecLoops is a hard upper bound on iterations. Zero means no
	// iteration bound (only the ExecBudget, if any, can end the run).
	ExecLoops int64

	// ExecBudget clamps total wall-clock runtime. Zero means unbounded.
	ExecBudget time.Duration

	// Pin requests CPU affinity pinning of A to one CPU and B to another,
	// to stabilize timing measurements. When the runtime cannot guarantee
	// two CPUs are available, the coordinator ignores this and falls back
	// to a cooperative-yield spin instead.
	Pin bool

	// Printf is the diagnostic printer hook invoked for one-shot progress
	// messages (e.g. at exec_loop==5000). Defaults to writing one line to
	// os.Stderr.
	Printf func(format string, args ...any)
}

// Option configures a Config value: a small set of named knobs rather
// than a wide constructor.
type Option func(*Config)

// WithAlpha overrides the default EMA smoothing factor.
func WithAlpha(alpha float64) Option {
	return func(c *Config) { c.Alpha = alpha }
}

// WithMinSamples overrides the default sampling-mode sample count.
func WithMinSamples(n int64) Option {
	return func(c *Config) { c.MinSamples = n }
}

// WithExecLoops sets a hard upper bound on iterations.
func WithExecLoops(n int64) Option {
	return func(c *Config) { c.ExecLoops = n }
}

// WithExecBudget sets a wall-clock runtime budget.
func WithExecBudget(d time.Duration) Option {
	return func(c *Config) { c.ExecBudget = d }
}

// WithCPUPinning requests A/B CPU affinity pinning.
func WithCPUPinning(pin bool) Option {
	return func(c *Config) { c.Pin = pin }
}

// WithPrintf overrides the diagnostic printer hook.
func WithPrintf(fn func(format string, args ...any)) Option {
	return func(c *Config) { c.Printf = fn }
}

func defaultConfig() Config {
	return Config{
		Alpha:      stat.DefaultAlpha,
		MinSamples: 1024,
	}
}

func defaultPrintf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
}
