package streams

import (
	"sync"

	"github.com/bcview/bcview/pkg/core"
)

type state byte

const (
	stateNone state = iota
	stateDialed
	stateStarted
)

// Producer wraps a scheme handler's core.Producer with lazy dialing.
type Producer struct {
	url string

	producer core.Producer
	state    state
	mu       sync.Mutex
}

func (p *Producer) Dial() (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != stateNone {
		return nil
	}

	if p.producer, err = GetProducer(p.url); err != nil {
		return err
	}

	p.state = stateDialed
	return nil
}

func (p *Producer) GetMedias() []*core.Media {
	if p.producer == nil {
		return nil
	}
	return p.producer.GetMedias()
}

func (p *Producer) GetTrack(media *core.Media, codec *core.Codec) (*core.Receiver, error) {
	return p.producer.GetTrack(media, codec)
}

func (p *Producer) start() {
	p.mu.Lock()
	if p.state != stateDialed {
		p.mu.Unlock()
		return
	}
	p.state = stateStarted
	producer := p.producer
	p.mu.Unlock()

	log.Debug().Str("url", p.url).Msg("[streams] start producer")

	go func() {
		if err := producer.Start(); err != nil {
			log.Warn().Err(err).Str("url", p.url).Msg("[streams] producer")
		}
		p.stop()
	}()
}

func (p *Producer) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.producer == nil {
		return
	}

	log.Debug().Str("url", p.url).Msg("[streams] stop producer")

	_ = p.producer.Stop()
	p.producer = nil
	p.state = stateNone
}
