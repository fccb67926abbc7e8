package baichuan

import (
	"crypto/md5"
	"fmt"
	"time"
)

// MaxEncryption is the ceiling the client advertises in step 1. The camera
// may downshift; requesting AES can still land on FullAES, so the only way to
// avoid FullAES is to request MaxBCEncrypt or lower.
type MaxEncryption byte

const (
	MaxNone MaxEncryption = iota
	MaxBCEncrypt
	MaxAES
)

func (m MaxEncryption) requestCode() uint16 {
	switch m {
	case MaxNone:
		return EncReqNone
	case MaxBCEncrypt:
		return EncReqBC
	}
	return EncReqAES
}

// LoginResult reports the negotiated cipher and the optional device info from
// the final response body.
type LoginResult struct {
	Encryption EncryptionKind
	DeviceInfo *DeviceInfo
}

const (
	loginTimeout = 10 * time.Second

	// cameras occasionally push unsolicited traffic during the handshake
	loginSkipBudget = 5
)

// CredentialHash hashes a credential with the session nonce: uppercase hex
// MD5 truncated to 31 characters. The odd length is what the firmware
// expects, a full 32-char digest is rejected.
func CredentialHash(value, nonce string) string {
	digest := md5.Sum([]byte(value + nonce))
	return fmt.Sprintf("%X", digest)[:31]
}

// Login runs the three-step handshake on a fresh connection:
//
//  1. a header-only legacy message advertising the encryption ceiling
//  2. the camera's reply selects the cipher and carries the nonce; the body
//     is BCEncrypt no matter what was negotiated, because the nonce inside
//     it is an input to the AES key
//  3. a modern login with nonce-hashed credentials, under BCEncrypt unless
//     no encryption was negotiated
//
// On success the negotiated AES/FullAES cipher is installed and both offsets
// are reset; a BCEncrypt session keeps its running offsets.
func Login(c *Conn, username, password string, max MaxEncryption) (*LoginResult, error) {
	num := c.NextNum()

	legacy := &Message{
		Header: Header{
			Magic: Magic,
			MsgID: MsgLogin,
			Num:   num,
			Code:  max.requestCode(),
			Class: ClassLegacy,
		},
	}
	if err := c.WriteMessage(legacy); err != nil {
		return nil, err
	}

	msg, err := awaitLogin(c)
	if err != nil {
		return nil, err
	}

	kind, err := negotiatedKind(msg.Header.Code)
	if err != nil {
		return nil, err
	}

	c.log.Debug().
		Stringer("encryption", kind).
		Msg("[baichuan] negotiated")

	// the negotiation body is BCEncrypt whatever was chosen - the
	// connection cipher itself is still Unencrypted at this point
	var nonce string
	if len(msg.Payload) > 0 {
		body := BCEncrypt().Decrypt(0, msg.Payload)
		enc, err := ParseEncryption(string(body))
		if err != nil && kind != EncryptionNone {
			return nil, err
		}
		if enc != nil {
			nonce = enc.Nonce
		}
	}

	// AES keys derive from the nonce now, but the modern login itself still
	// runs under BCEncrypt; the swap happens after the camera accepts
	var aesKey [16]byte
	if kind != EncryptionNone {
		c.SetCipher(BCEncrypt())
	}
	if kind == EncryptionAES || kind == EncryptionFullAES {
		aesKey = DeriveAESKey(password, nonce)
	}

	xml := LoginXML(CredentialHash(username, nonce), CredentialHash(password, nonce))
	modern := NewMessage(MsgLogin, num, xml)
	if err = c.WriteMessage(modern); err != nil {
		return nil, err
	}

	if msg, err = awaitLogin(c); err != nil {
		return nil, err
	}

	if msg.Header.Code != CodeOK {
		return nil, fmt.Errorf("%w: login response code %d", ErrAuth, msg.Header.Code)
	}

	switch kind {
	case EncryptionAES, EncryptionFullAES:
		cipher, err := NewAES(aesKey)
		if err != nil {
			return nil, err
		}
		if kind == EncryptionFullAES {
			cipher, _ = NewFullAES(aesKey)
		}
		c.ResetOffsets()
		c.SetCipher(cipher)
	}

	result := &LoginResult{Encryption: kind}
	if len(msg.Payload) > 0 {
		result.DeviceInfo = ParseDeviceInfo(string(msg.Payload))
	}

	c.log.Info().
		Stringer("encryption", kind).
		Msg("[baichuan] logged in")

	return result, nil
}

// awaitLogin reads until a login message arrives, skipping up to
// loginSkipBudget interlopers.
func awaitLogin(c *Conn) (*Message, error) {
	for i := 0; i <= loginSkipBudget; i++ {
		msg, err := c.ReadMessage(loginTimeout)
		if err != nil {
			return nil, err
		}
		if msg.Header.MsgID == MsgLogin {
			return msg, nil
		}
		c.log.Debug().
			Str("msg", MsgName(msg.Header.MsgID)).
			Msg("[baichuan] skip unsolicited message during login")
	}
	return nil, fmt.Errorf("%w: no login response", ErrProtocol)
}

func negotiatedKind(code uint16) (EncryptionKind, error) {
	switch code {
	case EncRespNone:
		return EncryptionNone, nil
	case EncRespBC:
		return EncryptionBC, nil
	case EncRespAES:
		return EncryptionAES, nil
	case EncRespFullAES:
		return EncryptionFullAES, nil
	}
	return EncryptionNone, fmt.Errorf("%w: unknown encryption response %04X", ErrProtocol, code)
}
