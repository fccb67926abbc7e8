package streams

import (
	"sync/atomic"
	"time"

	"github.com/bcview/bcview/pkg/core"
	"github.com/pion/rtp"
)

const preloadWatchdog = 15 * time.Second

// Preload keeps a stream's producers online without a real output attached:
// a counting consumer accepts any codec, and a watchdog redials the session
// when packets stop flowing.
func Preload(name string, stream *Stream) {
	backoff := time.Second

	for {
		cons := newPreloadConsumer()

		if err := stream.AddConsumer(cons); err != nil {
			log.Warn().Err(err).Str("stream", name).Msg("[streams] preload")

			time.Sleep(backoff)
			if backoff < time.Minute {
				backoff *= 2
			}
			continue
		}

		backoff = time.Second
		log.Info().Str("stream", name).Msg("[streams] preload online")

		var last uint64
		for {
			time.Sleep(preloadWatchdog)
			n := atomic.LoadUint64(&cons.packets)
			if n == last {
				break
			}
			last = n
		}

		stream.RemoveConsumer(cons)
		log.Warn().Str("stream", name).Msg("[streams] preload stalled, reconnecting")
	}
}

type preloadConsumer struct {
	medias  []*core.Media
	senders []*core.Sender
	packets uint64
}

func newPreloadConsumer() *preloadConsumer {
	return &preloadConsumer{
		medias: []*core.Media{
			{
				Kind:      core.KindVideo,
				Direction: core.DirectionSendonly,
				Codecs:    []*core.Codec{{Name: core.CodecAll}},
			},
			{
				Kind:      core.KindAudio,
				Direction: core.DirectionSendonly,
				Codecs:    []*core.Codec{{Name: core.CodecAll}},
			},
		},
	}
}

func (c *preloadConsumer) GetMedias() []*core.Media {
	return c.medias
}

func (c *preloadConsumer) AddTrack(media *core.Media, codec *core.Codec, track *core.Receiver) error {
	sender := core.NewSender(media, codec)
	sender.Handler = func(packet *rtp.Packet) {
		atomic.AddUint64(&c.packets, 1)
	}
	sender.HandleRTP(track)
	c.senders = append(c.senders, sender)
	return nil
}

func (c *preloadConsumer) Stop() error {
	for _, sender := range c.senders {
		sender.Close()
	}
	return nil
}
