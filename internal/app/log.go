package app

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MemoryLog keeps the most recent output for postmortems.
var MemoryLog = newMemoryLog(256 << 10)

// GetLogger returns a child logger for a module, honoring a per-module level
// from the `log:` config section.
func GetLogger(module string) zerolog.Logger {
	if s, ok := modules[module]; ok {
		lvl, err := zerolog.ParseLevel(s)
		if err == nil {
			return log.Logger.Level(lvl)
		}
		log.Warn().Err(err).Caller().Send()
	}

	return log.Logger
}

// initLogger supports:
// - format: empty (autodetect color support), color, json, text
// - level:  disabled, trace, debug, info, warn, error...
func initLogger() {
	var cfg struct {
		Mod map[string]string `yaml:"log"`
	}

	cfg.Mod = modules // defaults

	LoadConfig(&cfg)

	var writer io.Writer = os.Stdout

	if format := modules["format"]; format != "json" {
		console := &zerolog.ConsoleWriter{Out: writer, TimeFormat: "15:04:05.000"}

		switch format {
		case "text":
			console.NoColor = true
		case "color":
			console.NoColor = false
		default:
			console.NoColor = !isatty.IsTerminal(os.Stdout.Fd())
		}

		writer = console
	}

	writer = zerolog.MultiLevelWriter(writer, MemoryLog)

	lvl, _ := zerolog.ParseLevel(modules["level"])
	log.Logger = zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
}

// modules log levels
var modules = map[string]string{
	"format": "",
	"level":  "info",
}

// memoryLog is a fixed ring of bytes holding the log tail. Log lines land
// whole per Write, so old output degrades line by line; a torn first line
// after a long run is acceptable for a dump buffer.
type memoryLog struct {
	mu   sync.Mutex
	buf  []byte
	off  int  // next write position
	full bool // the ring has wrapped at least once
}

func newMemoryLog(size int) *memoryLog {
	return &memoryLog{buf: make([]byte, size)}
}

func (m *memoryLog) Write(p []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n = len(p)

	if n >= len(m.buf) {
		copy(m.buf, p[n-len(m.buf):])
		m.off = 0
		m.full = true
		return
	}

	if m.off+n >= len(m.buf) {
		m.full = true
	}
	w := copy(m.buf[m.off:], p)
	copy(m.buf, p[w:])
	m.off = (m.off + n) % len(m.buf)
	return
}

// WriteTo dumps the retained output, oldest first.
func (m *memoryLog) WriteTo(w io.Writer) (n int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.full {
		nn, err := w.Write(m.buf[m.off:])
		n = int64(nn)
		if err != nil {
			return n, err
		}
	}

	nn, err := w.Write(m.buf[:m.off])
	return n + int64(nn), err
}
