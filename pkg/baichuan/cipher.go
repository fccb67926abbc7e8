package baichuan

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"fmt"
)

// EncryptionKind enumerates the wire ciphers.
type EncryptionKind byte

const (
	EncryptionNone EncryptionKind = iota
	EncryptionBC
	EncryptionAES
	EncryptionFullAES
)

func (k EncryptionKind) String() string {
	switch k {
	case EncryptionNone:
		return "none"
	case EncryptionBC:
		return "bc"
	case EncryptionAES:
		return "aes"
	case EncryptionFullAES:
		return "fullaes"
	}
	return "unknown"
}

// bcKey is the fixed XOR key of the BCEncrypt stream.
var bcKey = [8]byte{0x1F, 0x2D, 0x3C, 0x4B, 0x5A, 0x69, 0x78, 0xFF}

// aesIV seeds every AES-CFB128 operation. The protocol restarts the cipher
// stream from this IV for each message.
const aesIV = "0123456789abcdef"

// Cipher holds the encryption negotiated for a connection. The AES kinds keep
// no state across messages: every Encrypt/Decrypt starts a fresh CFB stream
// from the fixed IV.
type Cipher struct {
	kind  EncryptionKind
	block cipher.Block
}

func Unencrypted() Cipher {
	return Cipher{kind: EncryptionNone}
}

func BCEncrypt() Cipher {
	return Cipher{kind: EncryptionBC}
}

func NewAES(key [16]byte) (Cipher, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return Cipher{}, fmt.Errorf("baichuan: aes: %w", err)
	}
	return Cipher{kind: EncryptionAES, block: block}, nil
}

func NewFullAES(key [16]byte) (Cipher, error) {
	c, err := NewAES(key)
	if err != nil {
		return Cipher{}, err
	}
	c.kind = EncryptionFullAES
	return c, nil
}

func (c Cipher) Kind() EncryptionKind {
	return c.kind
}

// Encrypt transforms b and returns a new slice. offset is the connection's
// cumulative body byte counter at the start of b; only BCEncrypt uses it.
func (c Cipher) Encrypt(offset uint32, b []byte) []byte {
	switch c.kind {
	case EncryptionBC:
		return bcTransform(offset, b)
	case EncryptionAES, EncryptionFullAES:
		out := make([]byte, len(b))
		cipher.NewCFBEncrypter(c.block, []byte(aesIV)).XORKeyStream(out, b)
		return out
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Decrypt is the inverse of Encrypt with the same offset contract.
func (c Cipher) Decrypt(offset uint32, b []byte) []byte {
	switch c.kind {
	case EncryptionBC:
		return bcTransform(offset, b)
	case EncryptionAES, EncryptionFullAES:
		out := make([]byte, len(b))
		cipher.NewCFBDecrypter(c.block, []byte(aesIV)).XORKeyStream(out, b)
		return out
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// bcTransform is the symmetric BCEncrypt XOR stream. The key index walks with
// offset+i, the second XOR term is the low byte of the starting offset alone.
func bcTransform(offset uint32, b []byte) []byte {
	out := make([]byte, len(b))
	ob := byte(offset)
	for i, v := range b {
		out[i] = v ^ bcKey[(int(offset)+i)%8] ^ ob
	}
	return out
}

// DeriveAESKey computes the session key from the camera nonce and the account
// password: the first 16 ASCII characters of the uppercase hex MD5 of
// "{nonce}-{password}". The key is hex text, not the raw digest - that is
// what cameras actually check against.
func DeriveAESKey(password, nonce string) [16]byte {
	digest := md5.Sum([]byte(nonce + "-" + password))
	hex := fmt.Sprintf("%032X", digest)

	var key [16]byte
	copy(key[:], hex[:16])
	return key
}
