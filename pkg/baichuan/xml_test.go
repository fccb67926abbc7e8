package baichuan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoginXML(t *testing.T) {
	xml := LoginXML("AAAA", "BBBB")

	expected := `<?xml version="1.0" encoding="UTF-8" ?><body>` +
		`<LoginUser version="1.1"><userName>AAAA</userName><password>BBBB</password><userVer>1</userVer></LoginUser>` +
		`<LoginNet version="1.1"><type>LAN</type><udpPort>0</udpPort></LoginNet>` +
		`</body>`
	require.Equal(t, expected, xml)
}

func TestPreviewXML(t *testing.T) {
	xml := PreviewXML(2, 256, "subStream")

	expected := `<?xml version="1.0" encoding="UTF-8" ?><body>` +
		`<Preview version="1.1"><channelId>2</channelId><handle>256</handle><streamType>subStream</streamType></Preview>` +
		`</body>`
	require.Equal(t, expected, xml)
}

func TestTag(t *testing.T) {
	s, ok := Tag(`<a><b>content</b></a>`, "b")
	require.True(t, ok)
	require.Equal(t, "content", s)

	// attributes on the opening tag
	s, ok = Tag(`<b version="1.1">content</b>`, "b")
	require.True(t, ok)
	require.Equal(t, "content", s)

	// must not match a longer tag name with the same prefix
	s, ok = Tag(`<bb>other</bb><b>content</b>`, "b")
	require.True(t, ok)
	require.Equal(t, "content", s)

	// content is literal, no unescaping
	s, ok = Tag(`<b>a&amp;b</b>`, "b")
	require.True(t, ok)
	require.Equal(t, "a&amp;b", s)

	_, ok = Tag(`<a>x</a>`, "b")
	require.False(t, ok)
}

func TestParseEncryption(t *testing.T) {
	// root may be the element itself
	enc, err := ParseEncryption(`<Encryption version="1.1"><type>md5</type><nonce>9E6D1FCB</nonce></Encryption>`)
	require.Nil(t, err)
	require.Equal(t, "md5", enc.Type)
	require.Equal(t, "9E6D1FCB", enc.Nonce)

	// or a body wrapper
	enc, err = ParseEncryption(`<?xml version="1.0" encoding="UTF-8" ?><body><Encryption version="1.1"><type>md5</type><nonce>N</nonce></Encryption></body>`)
	require.Nil(t, err)
	require.Equal(t, "N", enc.Nonce)

	_, err = ParseEncryption(`<body><Encryption><type>md5</type></Encryption></body>`)
	require.ErrorIs(t, err, ErrProtocol)

	_, err = ParseEncryption(`<body></body>`)
	require.ErrorIs(t, err, ErrProtocol)
}

func TestParseDeviceInfo(t *testing.T) {
	xml := `<?xml version="1.0" encoding="UTF-8" ?><body><DeviceInfo version="1.1">` +
		`<firmVer>v3.0.0.123</firmVer>` +
		`<resolution><width>2560</width><height>1440</height></resolution>` +
		`</DeviceInfo></body>`

	info := ParseDeviceInfo(xml)
	require.NotNil(t, info)
	require.Equal(t, "v3.0.0.123", info.Version)
	require.Equal(t, uint32(2560), info.Width)
	require.Equal(t, uint32(1440), info.Height)

	require.Nil(t, ParseDeviceInfo(`<body><LoginUser/></body>`))
}

func TestParseExtension(t *testing.T) {
	ext := ParseExtension(`<Extension version="1.1"><binaryData>1</binaryData><channelId>3</channelId><encryptLen>512</encryptLen></Extension>`)
	require.Equal(t, 1, ext.BinaryData)
	require.Equal(t, 3, ext.ChannelID)
	require.Equal(t, 512, ext.EncryptLen)

	ext = ParseExtension(`<Extension version="1.1"><userName>admin</userName><token>tok</token></Extension>`)
	require.Equal(t, -1, ext.BinaryData)
	require.Equal(t, -1, ext.EncryptLen)
	require.Equal(t, -1, ext.ChannelID)
	require.Equal(t, "admin", ext.UserName)
	require.Equal(t, "tok", ext.Token)
}

func TestBinaryExtensionXML(t *testing.T) {
	xml := BinaryExtensionXML(1)
	ext := ParseExtension(xml)
	require.Equal(t, 1, ext.BinaryData)
	require.Equal(t, 1, ext.ChannelID)
}

func TestCredentialHash(t *testing.T) {
	h := CredentialHash("admin", "9E6D1FCB")

	// 31 chars of uppercase hex - the cameras reject a full 32-char digest
	require.Len(t, h, 31)
	for _, c := range h {
		require.True(t, c >= '0' && c <= '9' || c >= 'A' && c <= 'F')
	}

	require.NotEqual(t, h, CredentialHash("admin", "other"))
}
