package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBetween(t *testing.T) {
	require.Equal(t, "value", Between(`key="value"`, `key="`, `"`))
	require.Equal(t, "tail", Between("head:tail", "head:", "|"))
	require.Equal(t, "", Between("abc", "x", "y"))
}

func TestRandString(t *testing.T) {
	s1 := RandString(16)
	s2 := RandString(16)
	require.Len(t, s1, 16)
	require.NotEqual(t, s1, s2)
}

func TestCodecMatch(t *testing.T) {
	h264 := &Codec{Name: CodecH264, ClockRate: 90000}

	require.True(t, h264.Match(&Codec{Name: CodecAll}))
	require.True(t, h264.Match(&Codec{Name: CodecH264}))
	require.True(t, h264.Match(&Codec{Name: CodecH264, ClockRate: 90000}))
	require.False(t, h264.Match(&Codec{Name: CodecH265}))
}

func TestMatchMedia(t *testing.T) {
	local := &Media{
		Kind:      KindVideo,
		Direction: DirectionRecvonly,
		Codecs:    []*Codec{{Name: CodecH265, ClockRate: 90000}},
	}
	remote := &Media{
		Kind:      KindVideo,
		Direction: DirectionSendonly,
		Codecs:    []*Codec{{Name: CodecAll}},
	}

	codec, remoteCodec := local.MatchMedia(remote)
	require.NotNil(t, codec)
	require.Equal(t, CodecH265, codec.Name)
	require.Equal(t, CodecAll, remoteCodec.Name)

	audio := &Media{Kind: KindAudio, Direction: DirectionSendonly}
	codec, _ = local.MatchMedia(audio)
	require.Nil(t, codec)
}
