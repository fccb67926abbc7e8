package baichuan

import (
	"errors"
	"net"
)

var (
	// ErrFraming - the byte stream can no longer be parsed (bad magic,
	// payload offset past the body). The connection must be dropped.
	ErrFraming = errors.New("baichuan: framing error")

	// ErrProtocol - unexpected message at a state boundary or an unknown
	// response code. Fatal to the operation in flight.
	ErrProtocol = errors.New("baichuan: protocol error")

	// ErrAuth - the camera rejected the credentials.
	ErrAuth = errors.New("baichuan: access denied")

	// ErrClosed - operation on a closed connection.
	ErrClosed = errors.New("baichuan: connection closed")

	errShortHeader = errors.New("baichuan: short header")
)

// IsTimeout reports whether err is a read deadline expiry. Timeouts are
// benign inside the streaming receive loop and fatal during login.
func IsTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
