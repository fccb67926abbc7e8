package baichuan

import (
	"testing"

	"github.com/bcview/bcview/pkg/core"
	"github.com/stretchr/testify/require"
)

func annexbPayload(nalu ...byte) []byte {
	return append([]byte{0, 0, 0, 1}, nalu...)
}

func TestProducerTracks(t *testing.T) {
	p := &Producer{done: make(chan struct{})}

	// P-frames before the first keyframe are dropped, the codec is unknown
	p.onFrame(&Frame{Type: FramePFrame, Codec: H264, Payload: annexbPayload(0x41, 1, 2)})
	require.Nil(t, p.GetMedias())

	p.onFrame(&Frame{Type: FrameIFrame, Codec: H265, Payload: annexbPayload(0x26, 1, 2)})

	medias := p.GetMedias()
	require.Len(t, medias, 1)
	require.Equal(t, core.KindVideo, medias[0].Kind)
	require.Equal(t, core.CodecH265, medias[0].Codecs[0].Name)

	track, err := p.GetTrack(medias[0], medias[0].Codecs[0])
	require.Nil(t, err)
	require.NotNil(t, track)

	_, err = p.GetTrack(medias[0], &core.Codec{Name: core.CodecH264})
	require.ErrorIs(t, err, core.ErrCantGetTrack)

	// ADTS audio adds a second media
	adts := []byte{0xFF, 0xF1, 0x50, 0x80, 0x02, 0x1F, 0xFC, 0x21, 0x00, 0x49}
	p.onFrame(&Frame{Type: FrameAAC, Payload: adts})

	medias = p.GetMedias()
	require.Len(t, medias, 2)
	require.Equal(t, core.KindAudio, medias[1].Kind)
	require.Equal(t, core.CodecAAC, medias[1].Codecs[0].Name)
	require.Equal(t, uint32(44100), medias[1].Codecs[0].ClockRate)
}

func TestProducerADPCMTrack(t *testing.T) {
	p := &Producer{done: make(chan struct{})}

	p.onFrame(&Frame{Type: FrameADPCM, Payload: make([]byte, 320)})

	medias := p.GetMedias()
	require.Len(t, medias, 1)
	require.Equal(t, core.KindAudio, medias[0].Kind)
	require.Equal(t, core.CodecADPC, medias[0].Codecs[0].Name)
	require.Equal(t, uint32(8000), medias[0].Codecs[0].ClockRate)
}
