package baichuan

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// StreamType selects one of the camera's encoder outputs.
type StreamType byte

const (
	StreamMain StreamType = iota
	StreamSub
	StreamExtern
)

func (t StreamType) String() string {
	switch t {
	case StreamSub:
		return "subStream"
	case StreamExtern:
		return "externStream"
	}
	return "mainStream"
}

// Handle is the numeric handle the Preview body carries for this type.
func (t StreamType) Handle() uint32 {
	switch t {
	case StreamSub:
		return 256
	case StreamExtern:
		return 1024
	}
	return 0
}

// Stats counts what the stream has delivered so far.
type Stats struct {
	Frames  uint64
	Bytes   uint64
	IFrames uint64
	PFrames uint64
}

const (
	previewTimeout = 5 * time.Second
	receiveTimeout = time.Second
)

// Stream runs one preview session over a logged-in connection. Frames are
// delivered on the receive goroutine: callbacks must hand off quickly, they
// are blocking the socket.
type Stream struct {
	conn *Conn
	log  zerolog.Logger

	id      string
	channel uint8
	typ     StreamType
	num     uint16

	onFrame func(*Frame)
	onInfo  func(*Info)
	onError func(error)

	running int32
	done    chan struct{}

	demux Demuxer

	infoOnce sync.Once

	frames  uint64
	bytes   uint64
	iFrames uint64
	pFrames uint64
}

// NewStream prepares a preview session. The connection must be logged in and
// quiescent; the stream borrows it until Stop.
func NewStream(conn *Conn, log zerolog.Logger, channel uint8, typ StreamType) *Stream {
	return &Stream{
		conn:    conn,
		log:     log,
		id:      ulid.Make().String(),
		channel: channel,
		typ:     typ,
		demux:   Demuxer{Log: log},
	}
}

// ID is the session identifier handed back to callers of stream start.
func (s *Stream) ID() string {
	return s.id
}

func (s *Stream) OnFrame(cb func(*Frame)) { s.onFrame = cb }
func (s *Stream) OnInfo(cb func(*Info))   { s.onInfo = cb }
func (s *Stream) OnError(cb func(error))  { s.onError = cb }

func (s *Stream) Running() bool {
	return atomic.LoadInt32(&s.running) != 0
}

func (s *Stream) Stats() Stats {
	return Stats{
		Frames:  atomic.LoadUint64(&s.frames),
		Bytes:   atomic.LoadUint64(&s.bytes),
		IFrames: atomic.LoadUint64(&s.iFrames),
		PFrames: atomic.LoadUint64(&s.pFrames),
	}
}

// Start sends the Preview request and, on acceptance, launches the receive
// loop in a goroutine.
func (s *Stream) Start() error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return fmt.Errorf("baichuan: stream already running")
	}

	s.num = s.conn.NextNum()

	xml := PreviewXML(s.channel, s.typ.Handle(), s.typ.String())
	if err := s.conn.WriteMessage(NewMessage(MsgVideo, s.num, xml)); err != nil {
		atomic.StoreInt32(&s.running, 0)
		return err
	}

	msg, err := s.conn.ReadMessage(previewTimeout)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		return err
	}
	if msg.Header.Code != CodeOK {
		atomic.StoreInt32(&s.running, 0)
		return fmt.Errorf("%w: preview response code %d", ErrProtocol, msg.Header.Code)
	}

	// the acceptance usually flags the msg_num binary right away
	if len(msg.Extension) > 0 {
		if ext := ParseExtension(string(msg.Extension)); ext.BinaryData == 1 {
			s.conn.SetBinary(msg.Header.Num)
		}
	}

	s.log.Info().
		Str("session", s.id).
		Uint8("channel", s.channel).
		Stringer("stream", s.typ).
		Msg("[baichuan] stream started")

	s.done = make(chan struct{})
	go s.receiveLoop()

	return nil
}

// Stop flips the running flag, best-effort sends a VideoStop with the same
// Preview body, waits out the receive goroutine and clears the binary-mode
// set.
func (s *Stream) Stop() {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return
	}

	xml := PreviewXML(s.channel, s.typ.Handle(), s.typ.String())
	if err := s.conn.WriteMessage(NewMessage(MsgVideoStop, s.conn.NextNum(), xml)); err != nil {
		s.log.Warn().Err(err).Msg("[baichuan] stop request")
	}

	<-s.done

	s.conn.ClearBinary()

	s.log.Info().Str("session", s.id).Msg("[baichuan] stream stopped")
}

// receiveLoop drains the connection until Stop or a fatal error. Read
// timeouts are benign - the camera pauses between GOPs under low light.
func (s *Stream) receiveLoop() {
	defer close(s.done)

	for s.Running() {
		msg, err := s.conn.ReadMessage(receiveTimeout)
		if err != nil {
			if IsTimeout(err) {
				continue
			}
			if s.Running() {
				atomic.StoreInt32(&s.running, 0)
				if s.onError != nil {
					s.onError(err)
				}
			}
			return
		}

		if msg.Header.MsgID != MsgVideo {
			continue
		}

		// binary-mode marks from the extension are recorded by the
		// connection during decrypt; nothing to repeat here
		if len(msg.Payload) > 0 {
			atomic.AddUint64(&s.bytes, uint64(len(msg.Payload)))
			s.demux.Write(msg.Payload, s.deliver)
		}
	}
}

func (s *Stream) deliver(frame *Frame) {
	atomic.AddUint64(&s.frames, 1)

	switch frame.Type {
	case FrameInfo:
		info := frame.Info
		s.infoOnce.Do(func() {
			s.log.Info().
				Uint32("width", info.Width).
				Uint32("height", info.Height).
				Uint8("fps", info.FPS).
				Msg("[baichuan] stream info")
			if s.onInfo != nil {
				s.onInfo(&info)
			}
		})
	case FrameIFrame:
		atomic.AddUint64(&s.iFrames, 1)
	case FramePFrame:
		atomic.AddUint64(&s.pFrames, 1)
	}

	if s.onFrame != nil {
		s.onFrame(frame)
	}
}
