package baichuan

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultPort is the TCP port the cameras listen on.
	DefaultPort = 9000

	dialTimeout = 10 * time.Second
	recvBufSize = 256 * 1024
)

// Conn owns the socket, the negotiated cipher and the per-direction offset
// counters. Sends are serialized by a mutex and atomic per message. Receives
// must come from a single goroutine at a time; during streaming that is the
// stream's receive loop.
type Conn struct {
	conn net.Conn
	log  zerolog.Logger

	sendMu sync.Mutex

	// cipher and offsets are mutated only between login and streaming,
	// while the connection is quiescent
	cipher     Cipher
	sendOffset uint32
	recvOffset uint32

	buf []byte // receive buffer, holds the partial next message

	num uint32 // msg_num counter

	binMu  sync.Mutex
	binary map[uint16]struct{}
}

// dialConn opens a TCP connection to the camera with TCP_NODELAY and an enlarged
// receive buffer. No messages are exchanged yet.
func dialConn(host string, port int, log zerolog.Logger) (*Conn, error) {
	if port == 0 {
		port = DefaultPort
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, err
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
		_ = tcp.SetReadBuffer(recvBufSize)
	}

	log.Debug().Str("addr", addr).Msg("[baichuan] connected")

	return NewConn(conn, log), nil
}

// NewConn wraps an established connection. Useful for tests.
func NewConn(conn net.Conn, log zerolog.Logger) *Conn {
	return &Conn{
		conn:   conn,
		log:    log,
		cipher: Unencrypted(),
		binary: map[uint16]struct{}{},
	}
}

func (c *Conn) Close() error {
	return c.conn.Close()
}

// NextNum returns a fresh msg_num for a request sequence.
func (c *Conn) NextNum() uint16 {
	return uint16(atomic.AddUint32(&c.num, 1))
}

// SetCipher installs a new cipher. Only legal while the connection is
// quiescent - the login machine swaps ciphers between handshake steps, never
// while a receive loop is running.
func (c *Conn) SetCipher(cipher Cipher) {
	c.cipher = cipher
}

func (c *Conn) Cipher() Cipher {
	return c.cipher
}

// ResetOffsets zeroes both byte counters. Done exactly once, after a
// successful login, before the AES cipher takes over.
func (c *Conn) ResetOffsets() {
	c.sendOffset = 0
	c.recvOffset = 0
}

// Offsets returns the cumulative body byte counters.
func (c *Conn) Offsets() (send, recv uint32) {
	return c.sendOffset, c.recvOffset
}

// SetBinary marks a msg_num as carrying binary payloads. The mark is sticky
// until ClearBinary.
func (c *Conn) SetBinary(num uint16) {
	c.binMu.Lock()
	c.binary[num] = struct{}{}
	c.binMu.Unlock()
}

func (c *Conn) IsBinary(num uint16) bool {
	c.binMu.Lock()
	_, ok := c.binary[num]
	c.binMu.Unlock()
	return ok
}

// ClearBinary drops all binary-mode marks. Called when a stream stops.
func (c *Conn) ClearBinary() {
	c.binMu.Lock()
	c.binary = map[uint16]struct{}{}
	c.binMu.Unlock()
}

// WriteMessage serializes, encrypts and sends one message. The header is
// never encrypted. XML parts (the extension, and the payload outside binary
// mode) are encrypted with the connection cipher; binary payloads pass
// through except under FullAES, where the first <encryptLen> bytes from the
// extension are ciphertext.
func (c *Conn) WriteMessage(msg *Message) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	ext := msg.Extension
	payload := msg.Payload

	if c.cipher.Kind() != EncryptionNone {
		off := c.sendOffset
		if len(ext) > 0 {
			ext = c.cipher.Encrypt(off, ext)
			off += uint32(len(ext))
		}
		if len(payload) > 0 {
			payload = c.encryptPayload(off, msg, payload)
		}
	}

	b := msg.Header.Marshal()
	b = append(b, ext...)
	b = append(b, payload...)

	c.log.Debug().
		Str("msg", MsgName(msg.Header.MsgID)).
		Uint16("num", msg.Header.Num).
		Int("size", len(b)).
		Msg("[baichuan] send")

	if _, err := c.conn.Write(b); err != nil {
		return fmt.Errorf("baichuan: send: %w", err)
	}

	c.sendOffset += msg.Header.BodyLen
	return nil
}

func (c *Conn) encryptPayload(off uint32, msg *Message, payload []byte) []byte {
	binary := c.IsBinary(msg.Header.Num)

	var encryptLen = -1
	if len(msg.Extension) > 0 {
		ext := ParseExtension(string(msg.Extension))
		if ext.BinaryData == 1 {
			binary = true
		}
		encryptLen = ext.EncryptLen
	}

	if !binary {
		return c.cipher.Encrypt(off, payload)
	}

	// binary payloads are cleartext except the FullAES prefix convention
	if c.cipher.Kind() == EncryptionFullAES && encryptLen > 0 {
		n := encryptLen
		if n > len(payload) {
			n = len(payload)
		}
		out := c.cipher.Encrypt(off, payload[:n])
		return append(out, payload[n:]...)
	}
	return payload
}

// ReadMessage blocks until one complete framed unit is available and returns
// it decrypted. It never returns a partial message and never discards bytes
// on success: a deadline expiry keeps the partial frame buffered for the next
// call. A zero-length read means the peer closed the socket.
func (c *Conn) ReadMessage(timeout time.Duration) (*Message, error) {
	if err := c.fill(HeaderSize20, timeout); err != nil {
		return nil, err
	}

	hdr, n, err := ParseHeader(c.buf)
	if err == errShortHeader {
		// modern-24 class, need the payload offset field
		if err = c.fill(HeaderSize24, timeout); err != nil {
			return nil, err
		}
		hdr, n, err = ParseHeader(c.buf)
	}
	if err != nil {
		return nil, err
	}

	if hdr.HasOffset() && hdr.PayloadOffset > hdr.BodyLen {
		return nil, fmt.Errorf("%w: payload offset %d past body %d",
			ErrFraming, hdr.PayloadOffset, hdr.BodyLen)
	}

	total := n + int(hdr.BodyLen)
	if err = c.fill(total, timeout); err != nil {
		return nil, err
	}

	body := make([]byte, hdr.BodyLen)
	copy(body, c.buf[n:total])
	c.buf = c.buf[:copy(c.buf, c.buf[total:])]

	msg := &Message{Header: hdr}
	c.decryptBody(msg, body)

	c.recvOffset += hdr.BodyLen

	c.log.Debug().
		Str("msg", MsgName(hdr.MsgID)).
		Uint16("num", hdr.Num).
		Uint16("code", hdr.Code).
		Uint32("body", hdr.BodyLen).
		Msg("[baichuan] recv")

	return msg, nil
}

// fill grows the receive buffer to at least n bytes.
func (c *Conn) fill(n int, timeout time.Duration) error {
	chunk := make([]byte, 4096)
	for len(c.buf) < n {
		deadline := time.Time{}
		if timeout > 0 {
			deadline = time.Now().Add(timeout)
		}
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return err
		}

		nr, err := c.conn.Read(chunk)
		if nr > 0 {
			c.buf = append(c.buf, chunk[:nr]...)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// decryptBody applies the selective decryption rules and splits the body into
// extension and payload.
func (c *Conn) decryptBody(msg *Message, body []byte) {
	hdr := &msg.Header

	if len(body) == 0 {
		return
	}

	if !hdr.HasOffset() || hdr.PayloadOffset == 0 {
		// the whole body is the payload; binary is decided by the sticky
		// set, and video traffic is always binary
		msg.Payload = body

		binary := c.IsBinary(hdr.Num) ||
			hdr.MsgID == MsgVideo || hdr.MsgID == MsgVideoStop

		if c.cipher.Kind() != EncryptionNone && !binary {
			msg.Payload = c.cipher.Decrypt(c.recvOffset, body)
		}
		return
	}

	off := hdr.PayloadOffset
	ext := body[:off]
	payload := body[off:]

	// the extension is always XML
	if c.cipher.Kind() != EncryptionNone {
		ext = c.cipher.Decrypt(c.recvOffset, ext)
	}
	msg.Extension = ext

	parsed := ParseExtension(string(ext))
	if parsed.BinaryData == 1 {
		c.SetBinary(hdr.Num)
	}
	binary := parsed.BinaryData == 1 || c.IsBinary(hdr.Num)

	payloadOff := c.recvOffset + off

	switch {
	case len(payload) == 0:
		// nothing to do

	case c.cipher.Kind() == EncryptionFullAES && binary:
		// only the first encryptLen bytes are ciphertext; feeding the
		// cleartext tail to the stream cipher would destroy it
		if n := parsed.EncryptLen; n > 0 {
			if n > len(payload) {
				n = len(payload)
			}
			head := c.cipher.Decrypt(payloadOff, payload[:n])
			payload = append(head, payload[n:]...)
		}

	case c.cipher.Kind() != EncryptionNone && !binary:
		payload = c.cipher.Decrypt(payloadOff, payload)

		// AES/BCEncrypt + binary: media is not encrypted, leave raw
	}

	msg.Payload = payload
}
