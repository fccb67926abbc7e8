// Package aac - minimal ADTS header helpers.
package aac

import (
	"github.com/bcview/bcview/pkg/core"
)

const ADTSHeaderSize = 7

// https://wiki.multimedia.cx/index.php/MPEG-4_Audio#Sampling_Frequencies
var sampleRates = [16]uint32{
	96000, 88200, 64000, 48000, 44100, 32000, 24000, 22050,
	16000, 12000, 11025, 8000, 7350, 0, 0, 0,
}

func IsADTS(b []byte) bool {
	return len(b) > ADTSHeaderSize && b[0] == 0xFF && b[1]&0xF6 == 0xF0
}

// ADTSSampleRate reads the sampling frequency index from an ADTS header.
// Returns 0 when b is not ADTS or the index is reserved.
func ADTSSampleRate(b []byte) uint32 {
	if !IsADTS(b) {
		return 0
	}
	return sampleRates[(b[2]&0x3C)>>2]
}

// ADTSChannels reads the MPEG-4 channel configuration.
func ADTSChannels(b []byte) uint16 {
	if !IsADTS(b) {
		return 0
	}
	return uint16(b[2]&0x01)<<2 | uint16(b[3])>>6
}

// ADTSFrames reads the number of raw data blocks in the ADTS frame,
// usually 1.
func ADTSFrames(b []byte) int {
	if !IsADTS(b) {
		return 0
	}
	return int(b[6]&0x03) + 1
}

// ADTSSize reads the total frame length including the header.
func ADTSSize(b []byte) uint16 {
	_ = b[5]
	return uint16(b[3]&0x03)<<11 | uint16(b[4])<<3 | uint16(b[5]>>5)
}

// ADTSToCodec builds the codec descriptor for an ADTS stream.
func ADTSToCodec(b []byte) *core.Codec {
	rate := ADTSSampleRate(b)
	if rate == 0 {
		return nil
	}
	return &core.Codec{
		Name:        core.CodecAAC,
		ClockRate:   rate,
		Channels:    ADTSChannels(b),
		PayloadType: core.PayloadTypeRAW,
	}
}
