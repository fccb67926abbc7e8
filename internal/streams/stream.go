package streams

import (
	"errors"
	"sync"

	"github.com/bcview/bcview/pkg/core"
)

type Stream struct {
	producers []*Producer
	consumers []core.Consumer
	mu        sync.Mutex
}

func NewStream(source any) *Stream {
	s := new(Stream)
	switch source := source.(type) {
	case string:
		s.producers = append(s.producers, &Producer{url: source})
	case []any:
		for _, src := range source {
			if url, ok := src.(string); ok {
				s.producers = append(s.producers, &Producer{url: url})
			}
		}
	case map[string]any:
		return NewStream(source["url"])
	case nil:
	}
	return s
}

func (s *Stream) Sources() (sources []string) {
	for _, prod := range s.producers {
		sources = append(sources, prod.url)
	}
	return
}

// AddConsumer matches the consumer's medias against every producer media and
// wires each one that fits, using the first codec pair MatchMedia finds.
// Producers are dialed on demand and started once a track is attached.
func (s *Stream) AddConsumer(cons core.Consumer) error {
	var started []*Producer
	var errs []error

	for _, consMedia := range cons.GetMedias() {
		for _, prod := range s.producers {
			if err := prod.Dial(); err != nil {
				errs = append(errs, err)
				continue
			}

			for _, prodMedia := range prod.GetMedias() {
				prodCodec, consCodec := prodMedia.MatchMedia(consMedia)
				if prodCodec == nil {
					continue
				}

				track, err := prod.GetTrack(prodMedia, prodCodec)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				if err = cons.AddTrack(consMedia, consCodec, track); err != nil {
					errs = append(errs, err)
					continue
				}

				started = append(started, prod)
			}
		}
	}

	if len(started) == 0 {
		if len(errs) > 0 {
			return errs[0]
		}
		return errors.New("streams: no matching producer")
	}

	s.mu.Lock()
	s.consumers = append(s.consumers, cons)
	s.mu.Unlock()

	for _, prod := range started {
		prod.start()
	}

	return nil
}

func (s *Stream) RemoveConsumer(cons core.Consumer) {
	_ = cons.Stop()

	s.mu.Lock()
	for i, consumer := range s.consumers {
		if consumer == cons {
			s.consumers = append(s.consumers[:i], s.consumers[i+1:]...)
			break
		}
	}
	empty := len(s.consumers) == 0
	s.mu.Unlock()

	if empty {
		for _, prod := range s.producers {
			prod.stop()
		}
	}
}
