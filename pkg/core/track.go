package core

import (
	"errors"
	"sync"

	"github.com/pion/rtp"
)

var ErrCantGetTrack = errors.New("can't get track")

// Receiver fans packets from one producer track out to any number of sender
// buffers. WriteRTP never blocks: a full sender buffer drops the packet and
// counts the overflow.
type Receiver struct {
	Codec *Codec
	Media *Media

	senders map[*Sender]chan *rtp.Packet
	mu      sync.RWMutex
	bytes   int
}

func NewReceiver(media *Media, codec *Codec) *Receiver {
	return &Receiver{Codec: codec, Media: media}
}

func (t *Receiver) WriteRTP(packet *rtp.Packet) {
	t.mu.Lock()
	t.bytes += len(packet.Payload)
	for sender, buffer := range t.senders {
		select {
		case buffer <- packet:
		default:
			sender.overflow++
		}
	}
	t.mu.Unlock()
}

func (t *Receiver) Close() {
	t.mu.Lock()
	for _, buffer := range t.senders {
		close(buffer)
	}
	t.senders = nil
	t.mu.Unlock()
}

// HandlerFunc like http.HandlerFunc
type HandlerFunc func(packet *rtp.Packet)

type Sender struct {
	Codec *Codec
	Media *Media

	Handler HandlerFunc

	receivers []*Receiver
	mu        sync.Mutex
	bytes     int
	overflow  int
}

func NewSender(media *Media, codec *Codec) *Sender {
	return &Sender{Codec: codec, Media: media}
}

func (s *Sender) HandleRTP(track *Receiver) {
	bufferSize := 100
	if GetKind(track.Codec.Name) == KindVideo {
		bufferSize = 50
	}

	buffer := make(chan *rtp.Packet, bufferSize)

	track.mu.Lock()
	if track.senders == nil {
		track.senders = map[*Sender]chan *rtp.Packet{}
	}
	track.senders[s] = buffer
	track.mu.Unlock()

	s.mu.Lock()
	s.receivers = append(s.receivers, track)
	s.mu.Unlock()

	go func() {
		// drain until the receiver closes the buffer
		for packet := range buffer {
			s.bytes += len(packet.Payload)
			s.Handler(packet)
		}

		s.mu.Lock()
		for i, receiver := range s.receivers {
			if receiver == track {
				s.receivers = append(s.receivers[:i], s.receivers[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
	}()
}

func (s *Sender) Close() {
	s.mu.Lock()
	for _, receiver := range s.receivers {
		receiver.mu.Lock()
		if buffer := receiver.senders[s]; buffer != nil {
			delete(receiver.senders, s)
			close(buffer)
		}
		receiver.mu.Unlock()
	}
	s.receivers = nil
	s.mu.Unlock()
}

func GetKind(name string) string {
	switch name {
	case CodecH264, CodecH265:
		return KindVideo
	case CodecAAC, CodecPCMA, CodecADPC:
		return KindAudio
	}
	return ""
}
