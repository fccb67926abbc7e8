package core

const (
	DirectionRecvonly = "recvonly"
	DirectionSendonly = "sendonly"
)

const (
	KindVideo = "video"
	KindAudio = "audio"
)

const (
	CodecH264 = "H264"
	CodecH265 = "H265"
	CodecAAC  = "MPEG4-GENERIC"
	CodecPCMA = "PCMA"
	CodecADPC = "DVI4" // IMA ADPCM

	CodecAll = "ALL"
	CodecAny = "ANY"
)

// PayloadTypeRAW marks tracks whose packets carry whole frames instead of
// RTP-fragmented payloads.
const PayloadTypeRAW byte = 255

type Producer interface {
	// GetMedias - return Media(s) with Direction recvonly
	GetMedias() []*Media

	// GetTrack - return Receiver, that can only produce rtp.Packet(s)
	GetTrack(media *Media, codec *Codec) (*Receiver, error)

	Start() error
	Stop() error
}

type Consumer interface {
	GetMedias() []*Media
	AddTrack(media *Media, codec *Codec, track *Receiver) error
	Stop() error
}
