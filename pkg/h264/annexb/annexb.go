// Package annexb converts Annex B byte streams to AVCC. Works for both H264
// and H265 - NAL unit contents are not inspected.
package annexb

import (
	"bytes"
	"encoding/binary"
)

var startCode = []byte{0, 0, 0, 1}

// EncodeToAVCC replaces 3- and 4-byte start codes with 4-byte big-endian NAL
// sizes. Returns nil when b does not start with a start code. The input slice
// is not modified.
func EncodeToAVCC(b []byte, _ bool) []byte {
	var starts []int // offset of each start code
	var sizes []int  // its length (3 or 4)

	for i := 0; i+3 <= len(b); {
		if b[i] != 0 || b[i+1] != 0 {
			i++
			continue
		}
		if b[i+2] == 1 {
			starts = append(starts, i)
			sizes = append(sizes, 3)
			i += 3
			continue
		}
		if i+4 <= len(b) && b[i+2] == 0 && b[i+3] == 1 {
			starts = append(starts, i)
			sizes = append(sizes, 4)
			i += 4
			continue
		}
		i++
	}

	if len(starts) == 0 || starts[0] != 0 {
		return nil
	}

	buf := bytes.NewBuffer(make([]byte, 0, len(b)+len(starts)))

	for n, start := range starts {
		from := start + sizes[n]
		to := len(b)
		if n+1 < len(starts) {
			to = starts[n+1]
		}

		var size [4]byte
		binary.BigEndian.PutUint32(size[:], uint32(to-from))
		buf.Write(size[:])
		buf.Write(b[from:to])
	}

	return buf.Bytes()
}

// DecodeAVCC replaces 4-byte NAL sizes with start codes. Returns nil on a
// malformed stream.
func DecodeAVCC(b []byte) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, len(b)))

	for len(b) >= 4 {
		size := int(binary.BigEndian.Uint32(b))
		b = b[4:]
		if size > len(b) {
			return nil
		}
		buf.Write(startCode)
		buf.Write(b[:size])
		b = b[size:]
	}

	if len(b) != 0 {
		return nil
	}
	return buf.Bytes()
}
