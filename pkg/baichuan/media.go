package baichuan

import (
	"encoding/binary"
	"time"

	"github.com/bcview/bcview/pkg/aac"
	"github.com/rs/zerolog"
)

// BcMedia magics, little-endian ASCII on the wire
const (
	magicInfoV1     uint32 = 0x31303031 // "1001"
	magicInfoV2     uint32 = 0x32303031 // "1002"
	magicIFrame     uint32 = 0x63643030 // "00dc"
	magicIFrameLast uint32 = 0x63643039
	magicPFrame     uint32 = 0x63643130 // "01dc"
	magicPFrameLast uint32 = 0x63643139
	magicAAC        uint32 = 0x62773530 // "05wb"
	magicADPCM      uint32 = 0x62773130 // "01wb"
)

// frame bodies are padded to an 8-byte boundary after the payload
const mediaPad = 8

// adpcmSampleRate - the cameras always ship ADPCM at 8 kHz
const adpcmSampleRate = 8000

// VideoCodec of a media frame, from the 4-byte ASCII tag.
type VideoCodec byte

const (
	H264 VideoCodec = iota
	H265
)

func (c VideoCodec) String() string {
	if c == H265 {
		return "H265"
	}
	return "H264"
}

// FrameType tags the closed set of BcMedia variants.
type FrameType byte

const (
	FrameInfo FrameType = iota
	FrameIFrame
	FramePFrame
	FrameAAC
	FrameADPCM
)

func (t FrameType) String() string {
	switch t {
	case FrameInfo:
		return "Info"
	case FrameIFrame:
		return "IFrame"
	case FramePFrame:
		return "PFrame"
	case FrameAAC:
		return "AAC"
	case FrameADPCM:
		return "ADPCM"
	}
	return "Unknown"
}

// Timecode is the y/m/d h:m:s sextet of the Info unit.
type Timecode struct {
	Year, Month, Day     uint8
	Hour, Minute, Second uint8
}

// Info describes the stream, sent once at session start.
type Info struct {
	Width  uint32
	Height uint32
	FPS    uint8
	Start  Timecode
	End    Timecode
}

// Frame is one demuxed BcMedia unit. Which fields are meaningful depends on
// Type: Info for FrameInfo; Codec/Micros/Payload for video, with PosixTime
// only on I-frames that carry it; Payload alone for audio.
type Frame struct {
	Type      FrameType
	Info      Info
	Codec     VideoCodec
	Micros    uint32
	PosixTime uint32 // seconds since epoch, 0 when absent
	Payload   []byte
}

// IsVideo reports whether the frame carries video payload.
func (f *Frame) IsVideo() bool {
	return f.Type == FrameIFrame || f.Type == FramePFrame
}

// Duration returns the play time of an audio frame in microseconds, zero for
// video and info frames. AAC duration comes from the ADTS header, ADPCM is
// two samples per payload byte at 8 kHz.
func (f *Frame) Duration() uint32 {
	switch f.Type {
	case FrameAAC:
		rate := aac.ADTSSampleRate(f.Payload)
		if rate == 0 {
			return 0
		}
		samples := uint32(aac.ADTSFrames(f.Payload)) * 1024
		return samples * 1000000 / rate
	case FrameADPCM:
		samples := uint32(len(f.Payload)) * 2
		return samples * 1000000 / adpcmSampleRate
	}
	return 0
}

// Demuxer re-assembles BcMedia frames from the payload byte stream of
// successive video messages. Frames are emitted in wire order; the buffer
// keeps whatever tail does not yet form a complete unit.
type Demuxer struct {
	Log zerolog.Logger

	buf      []byte
	lastWarn time.Time
	skipped  int
}

// Write appends b to the buffer and emits every complete frame.
func (d *Demuxer) Write(b []byte, emit func(*Frame)) {
	d.buf = append(d.buf, b...)

	for {
		frame, consumed := d.next()
		if frame == nil {
			break
		}
		d.buf = d.buf[:copy(d.buf, d.buf[consumed:])]
		emit(frame)
	}
}

// next tries to parse one frame from the buffer head. It returns (nil, 0)
// when more bytes are needed. Unknown magics drop a single byte: after a
// binary-mode transition a handful of resync bytes is normal, anything more
// means the stream is broken.
func (d *Demuxer) next() (*Frame, int) {
	for len(d.buf) >= 4 {
		magic := binary.LittleEndian.Uint32(d.buf)

		switch {
		case magic == magicInfoV1 || magic == magicInfoV2:
			return d.parseInfo()
		case magic >= magicIFrame && magic <= magicIFrameLast:
			return d.parseVideo(FrameIFrame)
		case magic >= magicPFrame && magic <= magicPFrameLast:
			return d.parseVideo(FramePFrame)
		case magic == magicAAC:
			return d.parseAAC()
		case magic == magicADPCM:
			return d.parseADPCM()
		}

		d.skipped++
		if now := time.Now(); now.Sub(d.lastWarn) > time.Second {
			d.Log.Warn().
				Uint32("magic", magic).
				Int("skipped", d.skipped).
				Msg("[baichuan] unknown media magic, resyncing")
			d.lastWarn = now
		}
		d.buf = d.buf[:copy(d.buf, d.buf[1:])]
	}
	return nil, 0
}

// parseInfo reads the fixed 36-byte Info unit: magic, a u32 header-size
// field, then width, height, an unknown byte, fps, start and end timecodes;
// the six bytes after the timecodes are not read.
func (d *Demuxer) parseInfo() (*Frame, int) {
	const total = 4 + 32
	if len(d.buf) < total {
		return nil, 0
	}

	b := d.buf[4:]
	frame := &Frame{
		Type: FrameInfo,
		Info: Info{
			Width:  binary.LittleEndian.Uint32(b[4:]),
			Height: binary.LittleEndian.Uint32(b[8:]),
			FPS:    b[13],
			Start:  Timecode{b[14], b[15], b[16], b[17], b[18], b[19]},
			End:    Timecode{b[20], b[21], b[22], b[23], b[24], b[25]},
		},
	}
	return frame, total
}

// parseVideo reads an I- or P-frame: a 20-byte header after the magic (4-byte
// ASCII codec tag, payload size, additional-header size, microseconds, one
// unused word), then the additional header, the payload and the pad. When the
// additional header is at least 4 bytes, its first word is POSIX seconds on
// I-frames; the remaining additional bytes are skipped, never interpreted.
func (d *Demuxer) parseVideo(typ FrameType) (*Frame, int) {
	if len(d.buf) < 4+20 {
		return nil, 0
	}

	b := d.buf[4:]
	frame := &Frame{
		Type:   typ,
		Micros: binary.LittleEndian.Uint32(b[12:]),
	}
	if b[0] == 'H' && b[1] == '2' && b[2] == '6' && b[3] == '5' {
		frame.Codec = H265
	}

	payloadSize := int(binary.LittleEndian.Uint32(b[4:]))
	extraSize := int(binary.LittleEndian.Uint32(b[8:]))

	head := 20 + extraSize
	total := 4 + head + payloadSize + pad(payloadSize)
	if len(d.buf) < total {
		return nil, 0
	}

	if extraSize >= 4 && typ == FrameIFrame {
		frame.PosixTime = binary.LittleEndian.Uint32(b[20:])
	}

	frame.Payload = append([]byte(nil), b[head:head+payloadSize]...)
	return frame, total
}

// parseAAC reads an AAC unit: u16 payload size repeated twice, the ADTS
// payload, then the pad.
func (d *Demuxer) parseAAC() (*Frame, int) {
	if len(d.buf) < 4+4 {
		return nil, 0
	}

	b := d.buf[4:]
	payloadSize := int(binary.LittleEndian.Uint16(b))

	total := 4 + 4 + payloadSize + pad(payloadSize)
	if len(d.buf) < total {
		return nil, 0
	}

	return &Frame{
		Type:    FrameAAC,
		Payload: append([]byte(nil), b[4:4+payloadSize]...),
	}, total
}

// parseADPCM reads an ADPCM unit: u16 outer size counting the 4-byte inner
// header (2 magic, 2 block size) plus the sample data.
func (d *Demuxer) parseADPCM() (*Frame, int) {
	if len(d.buf) < 4+8 {
		return nil, 0
	}

	b := d.buf[4:]
	outerSize := int(binary.LittleEndian.Uint16(b))

	total := 4 + 4 + outerSize
	if outerSize < 4 || len(d.buf) < total {
		if outerSize < 4 {
			// nonsense size, resync from the next byte
			d.buf = d.buf[:copy(d.buf, d.buf[1:])]
			return d.next()
		}
		return nil, 0
	}

	return &Frame{
		Type:    FrameADPCM,
		Payload: append([]byte(nil), b[8:4+outerSize]...),
	}, total
}

func pad(size int) int {
	return -size & (mediaPad - 1)
}
