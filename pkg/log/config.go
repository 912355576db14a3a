package log

import (
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level       string `mapstructure:"level"`
	Pretty      bool   `mapstructure:"pretty"`
	ServiceName string `mapstructure:"service_name"`
	// Instance is the node's advertise address. It matches the value stored
	// in redis presence keys, so a user's key points at the node's log stream.
	Instance string `mapstructure:"instance"`

	// Output overrides stdout. Tests use it to capture entries.
	Output io.Writer `mapstructure:"-"`
}

var (
	global = zerolog.New(os.Stdout).With().Timestamp().Logger()
	once   sync.Once
)

// New builds a logger without touching global state.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	ctx := zerolog.New(out).Level(ParseLevel(cfg.Level)).With().Timestamp()
	if cfg.ServiceName != "" {
		ctx = ctx.Str(FieldService, cfg.ServiceName)
	}
	if cfg.Instance != "" {
		ctx = ctx.Str(FieldInstance, cfg.Instance)
	}
	return ctx.Logger()
}

// Init sets the global logger once per process. Durations (heartbeat,
// sweep interval, push latency) are written as milliseconds, and stdlib log
// output from gorm, firebase and apns2 is routed through zerolog.
func Init(cfg Config) {
	once.Do(func() {
		zerolog.DurationFieldUnit = time.Millisecond
		global = New(cfg)

		stdlog.SetFlags(0)
		stdlog.SetOutput(global.With().Str("source", "stdlog").Logger())
	})
}

func L() zerolog.Logger {
	return global
}

// ParseLevel accepts zerolog level names plus "warning"; anything unknown
// or empty is info.
func ParseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
