package baichuan

import (
	"fmt"
	"strconv"
	"strings"
)

// The cameras emit and accept flat XML with a fixed shape. Bodies are built
// with templates and read with literal tag extraction - the firmware does not
// escape tag content, so neither do we.

const xmlProlog = `<?xml version="1.0" encoding="UTF-8" ?>`

// LoginXML builds the modern login body. hashUser and hashPass are the
// 31-char uppercase hex credential hashes (see CredentialHash).
func LoginXML(hashUser, hashPass string) string {
	return xmlProlog + "<body>" +
		`<LoginUser version="1.1">` +
		"<userName>" + hashUser + "</userName>" +
		"<password>" + hashPass + "</password>" +
		"<userVer>1</userVer>" +
		"</LoginUser>" +
		`<LoginNet version="1.1">` +
		"<type>LAN</type>" +
		"<udpPort>0</udpPort>" +
		"</LoginNet>" +
		"</body>"
}

// PreviewXML builds the stream start/stop body.
func PreviewXML(channel uint8, handle uint32, streamType string) string {
	return xmlProlog + "<body>" +
		`<Preview version="1.1">` +
		"<channelId>" + strconv.Itoa(int(channel)) + "</channelId>" +
		"<handle>" + strconv.FormatUint(uint64(handle), 10) + "</handle>" +
		"<streamType>" + streamType + "</streamType>" +
		"</Preview>" +
		"</body>"
}

// BinaryExtensionXML builds the extension that flags a binary payload.
func BinaryExtensionXML(channel uint8) string {
	return xmlProlog + `<Extension version="1.1">` +
		"<binaryData>1</binaryData>" +
		"<channelId>" + strconv.Itoa(int(channel)) + "</channelId>" +
		"</Extension>"
}

// Tag extracts the literal content of the first <tag>...</tag> pair. The
// opening tag may carry attributes. Content is returned as-is, no unescaping.
func Tag(xml, tag string) (string, bool) {
	i := strings.Index(xml, "<"+tag)
	if i < 0 || i+1+len(tag) >= len(xml) {
		return "", false
	}
	// the match must be the full tag name, not a prefix of a longer one
	switch xml[i+1+len(tag)] {
	case '>', ' ', '/':
	default:
		return Tag(xml[i+1:], tag)
	}

	start := strings.IndexByte(xml[i:], '>')
	if start < 0 {
		return "", false
	}
	start += i + 1

	end := strings.Index(xml[start:], "</"+tag+">")
	if end < 0 {
		return "", false
	}
	return xml[start : start+end], true
}

func tagUint(xml, tag string) (uint32, bool) {
	s, ok := Tag(xml, tag)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// Encryption is the step-2 negotiation body carrying the session nonce.
type Encryption struct {
	Type  string
	Nonce string
}

// ParseEncryption finds the <Encryption> element. The root may be the element
// itself or a <body>/<BCAbility> wrapper.
func ParseEncryption(xml string) (*Encryption, error) {
	inner, ok := Tag(xml, "Encryption")
	if !ok {
		return nil, fmt.Errorf("%w: no Encryption element", ErrProtocol)
	}

	enc := &Encryption{}
	enc.Type, _ = Tag(inner, "type")
	if enc.Nonce, ok = Tag(inner, "nonce"); !ok {
		return nil, fmt.Errorf("%w: Encryption element without nonce", ErrProtocol)
	}
	return enc, nil
}

// DeviceInfo is the optional login response body.
type DeviceInfo struct {
	Version string
	Width   uint32
	Height  uint32
}

// ParseDeviceInfo returns nil when the body has no <DeviceInfo> element.
func ParseDeviceInfo(xml string) *DeviceInfo {
	inner, ok := Tag(xml, "DeviceInfo")
	if !ok {
		return nil
	}

	info := &DeviceInfo{}
	info.Version, _ = Tag(inner, "firmVer")
	if res, ok := Tag(inner, "resolution"); ok {
		info.Width, _ = tagUint(res, "width")
		info.Height, _ = tagUint(res, "height")
	}
	return info
}

// Extension is the front part of a modern-24 body. Numeric fields are -1 when
// the tag is absent.
type Extension struct {
	BinaryData int
	EncryptLen int
	ChannelID  int
	UserName   string
	Token      string
}

func ParseExtension(xml string) Extension {
	ext := Extension{BinaryData: -1, EncryptLen: -1, ChannelID: -1}
	if v, ok := tagUint(xml, "binaryData"); ok {
		ext.BinaryData = int(v)
	}
	if v, ok := tagUint(xml, "encryptLen"); ok {
		ext.EncryptLen = int(v)
	}
	if v, ok := tagUint(xml, "channelId"); ok {
		ext.ChannelID = int(v)
	}
	ext.UserName, _ = Tag(xml, "userName")
	ext.Token, _ = Tag(xml, "token")
	return ext
}
