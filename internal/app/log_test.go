package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryLog(t *testing.T) {
	buf := newMemoryLog(64)

	_, err := buf.Write([]byte("hello "))
	require.Nil(t, err)
	_, err = buf.Write([]byte("world"))
	require.Nil(t, err)

	var out bytes.Buffer
	_, err = buf.WriteTo(&out)
	require.Nil(t, err)
	require.Equal(t, "hello world", out.String())
}

func TestMemoryLogWrap(t *testing.T) {
	buf := newMemoryLog(8)

	for _, s := range []string{"abcd", "efgh", "ijkl"} {
		_, err := buf.Write([]byte(s))
		require.Nil(t, err)
	}

	// only the tail of the stream survives, oldest first
	var out bytes.Buffer
	_, err := buf.WriteTo(&out)
	require.Nil(t, err)
	require.Equal(t, "efghijkl", out.String())
}

func TestMemoryLogOversizeWrite(t *testing.T) {
	buf := newMemoryLog(4)

	_, err := buf.Write([]byte("abcdefgh"))
	require.Nil(t, err)

	var out bytes.Buffer
	_, err = buf.WriteTo(&out)
	require.Nil(t, err)
	require.Equal(t, "efgh", out.String())
}

func TestGetLoggerDefault(t *testing.T) {
	logger := GetLogger("nonexistent-module")
	logger.Debug().Msg("must not panic")
}
