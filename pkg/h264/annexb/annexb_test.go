package annexb

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeToAVCC(t *testing.T) {
	src, err := hex.DecodeString("00000001674d40290000000168ee3c8000000165888010")
	require.Nil(t, err)

	dst := EncodeToAVCC(src, true)
	require.Equal(t,
		"00000004674d40290000000468ee3c800000000465888010",
		hex.EncodeToString(dst))

	// DecodeAVCC writes 4-byte start codes, so the 3-byte one comes back long
	require.Equal(t,
		"00000001674d40290000000168ee3c800000000165888010",
		hex.EncodeToString(DecodeAVCC(dst)))
}

func TestEncodeToAVCCShortStartCode(t *testing.T) {
	// 3-byte start codes are accepted too
	src, err := hex.DecodeString("00000168ee3c8000000165888010")
	require.Nil(t, err)

	dst := EncodeToAVCC(src, true)
	require.Equal(t,
		"0000000468ee3c800000000465888010",
		hex.EncodeToString(dst))
}

func TestEncodeToAVCCNotAnnexB(t *testing.T) {
	require.Nil(t, EncodeToAVCC([]byte{1, 2, 3, 4, 5}, true))
	require.Nil(t, EncodeToAVCC(nil, true))
}

func TestDecodeAVCCMalformed(t *testing.T) {
	require.Nil(t, DecodeAVCC([]byte{0, 0, 0, 9, 1}))
}
