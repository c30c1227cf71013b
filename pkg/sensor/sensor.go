package sensor

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"datacap-hq/datacap/pkg/metering/account"
)

// Engine is the subset of the metering engine the sensor drives.
type Engine interface {
	Consume(amount uint64, category account.Category) error
	RecordTraffic(counter uint64) error
}

// Config configures the network sensor.
type Config struct {
	// Interfaces are the interface names whose receive counters are
	// summed. Default: eth0, wlp3s0, tun0.
	Interfaces []string

	// Interval is the polling period. Default: 500ms.
	Interval time.Duration

	// ProcPath is the counters file. Default: /proc/net/dev. Overridable
	// for tests.
	ProcPath string
}

// DefaultConfig returns the default sensor configuration.
func DefaultConfig() Config {
	return Config{
		Interfaces: []string{"eth0", "wlp3s0", "tun0"},
		Interval:   500 * time.Millisecond,
		ProcPath:   "/proc/net/dev",
	}
}

// Sensor polls interface byte counters and feeds deltas into the engine.
type Sensor struct {
	engine    Engine
	config    Config
	logger    *slog.Logger
	lastBytes uint64
}

// New creates a sensor over the given engine. Zero config fields take
// their defaults.
func New(engine Engine, config Config) *Sensor {
	def := DefaultConfig()
	if len(config.Interfaces) == 0 {
		config.Interfaces = def.Interfaces
	}
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.ProcPath == "" {
		config.ProcPath = def.ProcPath
	}
	return &Sensor{
		engine: engine,
		config: config,
		logger: slog.Default().With("component", "sensor"),
	}
}

// Run polls until ctx is cancelled. It blocks; callers run it in its own
// goroutine.
func (s *Sensor) Run(ctx context.Context) {
	s.logger.Info("network sensor started",
		"interfaces", strings.Join(s.config.Interfaces, ","),
		"interval", s.config.Interval.String(),
	)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("network sensor stopped")
			return
		case <-ticker.C:
			s.poll()
		}
	}
}

// poll reads the counters once and feeds the delta since the last poll.
func (s *Sensor) poll() {
	content, err := os.ReadFile(s.config.ProcPath)
	if err != nil {
		// Missing /proc/net/dev (non-Linux, containers) is not an error
		// worth repeating every tick.
		s.logger.Debug("counters unreadable", "path", s.config.ProcPath, "error", err)
		return
	}

	counter, ok := rxBytes(string(content), s.config.Interfaces)
	if !ok {
		return
	}

	if s.lastBytes > 0 && counter > s.lastBytes {
		diff := counter - s.lastBytes
		// Real traffic maps to the Social pool for demo visibility.
		_ = s.engine.Consume(diff, account.CategorySocial)
	}
	s.lastBytes = counter
	_ = s.engine.RecordTraffic(counter)
}

// rxBytes sums the receive-byte counters of the named interfaces from
// /proc/net/dev content. Returns false when none of the interfaces are
// present.
func rxBytes(content string, interfaces []string) (uint64, bool) {
	var total uint64
	found := false

	for _, line := range strings.Split(content, "\n") {
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if !matches(name, interfaces) {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		bytes, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			continue
		}
		total += bytes
		found = true
	}
	return total, found
}

func matches(name string, interfaces []string) bool {
	for _, want := range interfaces {
		if name == want {
			return true
		}
	}
	return false
}
