package core

import (
	"fmt"
)

type Media struct {
	Kind      string   `json:"kind,omitempty"`
	Direction string   `json:"direction,omitempty"`
	Codecs    []*Codec `json:"codecs,omitempty"`
}

func (m *Media) String() string {
	s := m.Kind + ", " + m.Direction
	for _, codec := range m.Codecs {
		s += ", " + codec.String()
	}
	return s
}

func (m *Media) MatchCodec(remote *Codec) *Codec {
	for _, codec := range m.Codecs {
		if codec.Match(remote) {
			return codec
		}
	}
	return nil
}

// MatchMedia returns the first codec pair shared by a local and a remote
// media with opposite directions.
func (m *Media) MatchMedia(remote *Media) (codec, remoteCodec *Codec) {
	if m.Kind != remote.Kind ||
		m.Direction == DirectionSendonly && remote.Direction != DirectionRecvonly ||
		m.Direction == DirectionRecvonly && remote.Direction != DirectionSendonly {
		return nil, nil
	}

	for _, codec = range m.Codecs {
		for _, remoteCodec = range remote.Codecs {
			if codec.Match(remoteCodec) {
				return
			}
		}
	}

	return nil, nil
}

type Codec struct {
	Name        string `json:"codec,omitempty"`
	ClockRate   uint32 `json:"clock_rate,omitempty"`
	Channels    uint16 `json:"channels,omitempty"`
	PayloadType uint8  `json:"payload_type,omitempty"`
}

func (c *Codec) String() string {
	s := c.Name
	if c.ClockRate != 0 {
		s += fmt.Sprintf("/%d", c.ClockRate)
	}
	if c.Channels > 1 {
		s += fmt.Sprintf("/%d", c.Channels)
	}
	return s
}

func (c *Codec) Match(remote *Codec) bool {
	switch remote.Name {
	case CodecAll, CodecAny:
		return true
	}
	return c.Name == remote.Name &&
		(c.ClockRate == remote.ClockRate || remote.ClockRate == 0)
}

func (c *Codec) Clone() *Codec {
	clone := *c
	return &clone
}
