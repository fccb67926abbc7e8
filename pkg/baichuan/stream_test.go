package baichuan

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// streamCamera accepts one preview session under BCEncrypt and pushes the
// given media chunks, then waits for the stop request.
type streamCamera struct {
	conn   net.Conn
	chunks [][]byte

	sendOffset uint32
	recvOffset uint32

	previewBody string
	stopBody    string
	gotStop     chan struct{}
}

func (f *streamCamera) readXML() (Header, string, error) {
	hdr, body, err := rawRead(f.conn)
	if err != nil {
		return hdr, "", err
	}
	body = bcTransform(f.recvOffset, body)
	f.recvOffset += hdr.BodyLen
	return hdr, string(body), nil
}

func (f *streamCamera) run() {
	defer close(f.gotStop)

	hdr, xml, err := f.readXML()
	if err != nil || hdr.MsgID != MsgVideo {
		return
	}
	f.previewBody = xml
	num := hdr.Num

	// accept and flag the msg_num binary
	ext := []byte(BinaryExtensionXML(0))
	accept := Header{
		Magic:         Magic,
		MsgID:         MsgVideo,
		Num:           num,
		Code:          CodeOK,
		Class:         ClassModern24,
		PayloadOffset: uint32(len(ext)),
	}
	if rawWrite(f.conn, accept, bcTransform(f.sendOffset, ext)) != nil {
		return
	}
	f.sendOffset += uint32(len(ext))

	// first chunk goes with a binary extension, the rest bare: those carry
	// no per-message flag and stay binary through the sticky msg_num and
	// the video msg_id
	for i, chunk := range f.chunks {
		var hdr Header
		var body []byte

		if i == 0 {
			hdr = Header{
				Magic:         Magic,
				MsgID:         MsgVideo,
				Num:           num,
				Class:         ClassModern24,
				PayloadOffset: uint32(len(ext)),
			}
			body = append(bcTransform(f.sendOffset, ext), chunk...)
		} else {
			hdr = Header{Magic: Magic, MsgID: MsgVideo, Num: num, Class: ClassModern24}
			body = chunk
		}

		if rawWrite(f.conn, hdr, body) != nil {
			return
		}
		f.sendOffset += uint32(len(body))
	}

	if hdr, xml, err = f.readXML(); err == nil && hdr.MsgID == MsgVideoStop {
		f.stopBody = xml
		f.gotStop <- struct{}{}
	}
}

func TestStreamSession(t *testing.T) {
	iPayload := make([]byte, 1000)
	pPayload := make([]byte, 100)

	var media []byte
	media = append(media, infoUnit(1920, 1080, 25)...)
	media = append(media, videoUnit(FrameIFrame, "H264", 1000, 1700000000, iPayload)...)
	media = append(media, videoUnit(FramePFrame, "H264", 2000, 0, pPayload)...)

	// split mid-frame: the demuxer has to reassemble across messages
	camera := &streamCamera{
		chunks:  [][]byte{media[:100], media[100:]},
		gotStop: make(chan struct{}, 1),
	}

	srv, cli := net.Pipe()
	t.Cleanup(func() { srv.Close(); cli.Close() })

	camera.conn = srv
	go camera.run()

	conn := NewConn(cli, zerolog.Nop())
	conn.SetCipher(BCEncrypt())

	stream := NewStream(conn, zerolog.Nop(), 0, StreamMain)
	require.NotEmpty(t, stream.ID())

	frames := make(chan *Frame, 16)
	infos := make(chan *Info, 1)
	stream.OnFrame(func(f *Frame) { frames <- f })
	stream.OnInfo(func(i *Info) { infos <- i })

	require.Nil(t, stream.Start())
	require.True(t, stream.Running())

	var got []*Frame
	for len(got) < 3 {
		select {
		case f := <-frames:
			got = append(got, f)
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for frames")
		}
	}

	require.Equal(t, FrameInfo, got[0].Type)
	require.Equal(t, FrameIFrame, got[1].Type)
	require.Equal(t, iPayload, got[1].Payload)
	require.Equal(t, FramePFrame, got[2].Type)

	select {
	case info := <-infos:
		require.Equal(t, uint32(1920), info.Width)
		require.Equal(t, uint8(25), info.FPS)
	case <-time.After(time.Second):
		t.Fatal("no stream info")
	}

	stats := stream.Stats()
	require.Equal(t, uint64(3), stats.Frames)
	require.Equal(t, uint64(1), stats.IFrames)
	require.Equal(t, uint64(1), stats.PFrames)
	require.NotZero(t, stats.Bytes)

	stream.Stop()
	require.False(t, stream.Running())

	select {
	case <-camera.gotStop:
	case <-time.After(2 * time.Second):
		t.Fatal("camera did not receive stop")
	}

	require.True(t, strings.Contains(camera.previewBody, "<streamType>mainStream</streamType>"))
	require.True(t, strings.Contains(camera.stopBody, "<streamType>mainStream</streamType>"))

	// stopping clears every binary-mode mark
	require.False(t, conn.IsBinary(1))
}

func TestStreamStartRejected(t *testing.T) {
	srv, cli := net.Pipe()
	t.Cleanup(func() { srv.Close(); cli.Close() })

	go func() {
		hdr, _, err := rawRead(srv)
		if err != nil {
			return
		}
		reject := Header{Magic: Magic, MsgID: MsgVideo, Num: hdr.Num, Code: CodeBadRequest, Class: ClassModern24}
		_ = rawWrite(srv, reject, nil)
	}()

	conn := NewConn(cli, zerolog.Nop())
	stream := NewStream(conn, zerolog.Nop(), 0, StreamSub)

	err := stream.Start()
	require.ErrorIs(t, err, ErrProtocol)
	require.False(t, stream.Running())
}

func TestStreamTypes(t *testing.T) {
	require.Equal(t, "mainStream", StreamMain.String())
	require.Equal(t, "subStream", StreamSub.String())
	require.Equal(t, "externStream", StreamExtern.String())

	require.Equal(t, uint32(0), StreamMain.Handle())
	require.Equal(t, uint32(256), StreamSub.Handle())
	require.Equal(t, uint32(1024), StreamExtern.Handle())
}
