package baichuan

import (
	"encoding/binary"
	"fmt"
)

const (
	Magic = 0x0ABCDEF0
	// MagicRev is sent by some firmwares, accepted on receive only
	MagicRev = 0x0FEDCBA0
)

// Message IDs
const (
	MsgLogin          uint32 = 1
	MsgLogout         uint32 = 2
	MsgVideo          uint32 = 3
	MsgVideoStop      uint32 = 4
	MsgTalkAbility    uint32 = 10
	MsgTalkReset      uint32 = 11
	MsgPtzControl     uint32 = 18
	MsgReboot         uint32 = 23
	MsgMotionRequest  uint32 = 31
	MsgMotion         uint32 = 33
	MsgVersion        uint32 = 80
	MsgPing           uint32 = 93
	MsgGetGeneral     uint32 = 104
	MsgSnap           uint32 = 109
	MsgUID            uint32 = 114
	MsgStreamInfoList uint32 = 146
	MsgAbilityInfo    uint32 = 151
	MsgGetSupport     uint32 = 199
)

// Message classes
const (
	ClassLegacy      uint16 = 0x6514 // 20-byte header
	ClassModern20    uint16 = 0x6614 // 20-byte header
	ClassModern24    uint16 = 0x6414 // 24-byte header with payload offset
	ClassModern24Alt uint16 = 0x0000 // observed alias of ClassModern24
)

const (
	HeaderSize20 = 20
	HeaderSize24 = 24
)

// Response codes
const (
	CodeOK         uint16 = 200
	CodeBadRequest uint16 = 400
)

// Encryption negotiation codes (client request / camera reply)
const (
	EncReqNone uint16 = 0xDC00
	EncReqBC   uint16 = 0xDC01
	EncReqAES  uint16 = 0xDC12

	EncRespNone    uint16 = 0xDD00
	EncRespBC      uint16 = 0xDD01
	EncRespAES     uint16 = 0xDD02
	EncRespFullAES uint16 = 0xDD12
)

// Header is the prelude of every message on the wire. All fields are
// little-endian. PayloadOffset exists only for the modern-24 classes and
// splits the body into a leading XML extension and a trailing payload.
type Header struct {
	Magic         uint32
	MsgID         uint32
	BodyLen       uint32
	ChannelID     uint8
	StreamType    uint8
	Num           uint16
	Code          uint16
	Class         uint16
	PayloadOffset uint32 // meaningful only when HasOffset
}

// HasOffset reports whether the class carries the PayloadOffset field.
func (h Header) HasOffset() bool {
	return h.Class == ClassModern24 || h.Class == ClassModern24Alt
}

// Size returns the serialized header size for this class.
func (h Header) Size() int {
	if h.HasOffset() {
		return HeaderSize24
	}
	return HeaderSize20
}

func (h Header) Marshal() []byte {
	b := make([]byte, h.Size())
	binary.LittleEndian.PutUint32(b, h.Magic)
	binary.LittleEndian.PutUint32(b[4:], h.MsgID)
	binary.LittleEndian.PutUint32(b[8:], h.BodyLen)
	b[12] = h.ChannelID
	b[13] = h.StreamType
	binary.LittleEndian.PutUint16(b[14:], h.Num)
	binary.LittleEndian.PutUint16(b[16:], h.Code)
	binary.LittleEndian.PutUint16(b[18:], h.Class)
	if h.HasOffset() {
		binary.LittleEndian.PutUint32(b[20:], h.PayloadOffset)
	}
	return b
}

// ParseHeader reads a header from the start of b and returns the bytes
// consumed (20 or 24). A wrong magic is unrecoverable: the caller can't know
// where the next message starts and must drop the connection.
func ParseHeader(b []byte) (h Header, n int, err error) {
	if len(b) < HeaderSize20 {
		return h, 0, errShortHeader
	}

	h.Magic = binary.LittleEndian.Uint32(b)
	if h.Magic != Magic && h.Magic != MagicRev {
		return h, 0, fmt.Errorf("%w: bad magic %08X", ErrFraming, h.Magic)
	}

	h.MsgID = binary.LittleEndian.Uint32(b[4:])
	h.BodyLen = binary.LittleEndian.Uint32(b[8:])
	h.ChannelID = b[12]
	h.StreamType = b[13]
	h.Num = binary.LittleEndian.Uint16(b[14:])
	h.Code = binary.LittleEndian.Uint16(b[16:])
	h.Class = binary.LittleEndian.Uint16(b[18:])

	if !h.HasOffset() {
		return h, HeaderSize20, nil
	}

	if len(b) < HeaderSize24 {
		return h, 0, errShortHeader
	}
	h.PayloadOffset = binary.LittleEndian.Uint32(b[20:])
	return h, HeaderSize24, nil
}

// MsgName returns a human readable message ID for logs.
func MsgName(msgID uint32) string {
	switch msgID {
	case MsgLogin:
		return "Login"
	case MsgLogout:
		return "Logout"
	case MsgVideo:
		return "Video"
	case MsgVideoStop:
		return "VideoStop"
	case MsgTalkAbility:
		return "TalkAbility"
	case MsgTalkReset:
		return "TalkReset"
	case MsgPtzControl:
		return "PtzControl"
	case MsgReboot:
		return "Reboot"
	case MsgMotionRequest:
		return "MotionRequest"
	case MsgMotion:
		return "Motion"
	case MsgVersion:
		return "Version"
	case MsgPing:
		return "Ping"
	case MsgGetGeneral:
		return "GetGeneral"
	case MsgSnap:
		return "Snap"
	case MsgUID:
		return "Uid"
	case MsgStreamInfoList:
		return "StreamInfoList"
	case MsgAbilityInfo:
		return "AbilityInfo"
	case MsgGetSupport:
		return "GetSupport"
	}
	return "Unknown"
}

// Message is a complete framed unit: header plus an optional XML extension
// and a payload. The payload is XML unless the msg_num is in binary mode.
type Message struct {
	Header    Header
	Extension []byte
	Payload   []byte
}

// NewMessage builds a message with an XML payload and no extension.
func NewMessage(msgID uint32, num uint16, xml string) *Message {
	msg := &Message{
		Header: Header{
			Magic: Magic,
			MsgID: msgID,
			Num:   num,
			Class: ClassModern24,
		},
		Payload: []byte(xml),
	}
	msg.Header.BodyLen = uint32(len(msg.Payload))
	return msg
}

// NewExtMessage builds a message with both an XML extension and a payload.
func NewExtMessage(msgID uint32, num uint16, ext string, payload []byte) *Message {
	msg := &Message{
		Header: Header{
			Magic: Magic,
			MsgID: msgID,
			Num:   num,
			Class: ClassModern24,
		},
		Extension: []byte(ext),
		Payload:   payload,
	}
	msg.Header.BodyLen = uint32(len(msg.Extension) + len(msg.Payload))
	msg.Header.PayloadOffset = uint32(len(msg.Extension))
	return msg
}
