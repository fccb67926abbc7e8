package streams

import (
	"sync"

	"github.com/bcview/bcview/internal/app"
	"github.com/rs/zerolog"
)

func Init() {
	var cfg struct {
		Streams map[string]any `yaml:"streams"`
		Preload []string       `yaml:"preload"`
	}

	app.LoadConfig(&cfg)

	log = app.GetLogger("streams")

	for name, item := range cfg.Streams {
		streams[name] = NewStream(item)
	}

	for _, name := range cfg.Preload {
		if stream := Get(name); stream != nil {
			go Preload(name, stream)
		} else {
			log.Warn().Str("stream", name).Msg("[streams] preload of unknown stream")
		}
	}
}

func Get(name string) *Stream {
	streamsMu.Lock()
	defer streamsMu.Unlock()
	return streams[name]
}

func New(name string, source any) *Stream {
	stream := NewStream(source)
	streamsMu.Lock()
	streams[name] = stream
	streamsMu.Unlock()
	return stream
}

func GetAll() (names []string) {
	streamsMu.Lock()
	for name := range streams {
		names = append(names, name)
	}
	streamsMu.Unlock()
	return
}

func Delete(name string) {
	streamsMu.Lock()
	delete(streams, name)
	streamsMu.Unlock()
}

var log zerolog.Logger
var streams = map[string]*Stream{}
var streamsMu sync.Mutex
