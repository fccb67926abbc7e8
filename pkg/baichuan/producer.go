package baichuan

import (
	"sync"
	"time"

	"github.com/bcview/bcview/pkg/aac"
	"github.com/bcview/bcview/pkg/core"
	"github.com/bcview/bcview/pkg/h264/annexb"
	"github.com/pion/rtp"
	"github.com/rs/zerolog"
)

// Producer adapts a camera client to the streams layer: BcMedia video frames
// become RAW AVCC packets, audio keeps its ADTS/ADPCM payload.
type Producer struct {
	client *Client

	medias     []*core.Media
	receivers  []*core.Receiver
	videoTrack *core.Receiver
	audioTrack *core.Receiver

	videoTS uint32
	videoDT uint32
	audioTS uint32
	audioSq uint16

	done chan struct{}
	once sync.Once
	err  error
}

const probeTimeout = 5 * time.Second

// Dial connects, logs in, starts the preview and probes the stream until the
// codecs are known.
func Dial(rawURL string, log zerolog.Logger) (*Producer, error) {
	client, err := DialClient(rawURL, log)
	if err != nil {
		return nil, err
	}

	p := &Producer{client: client, done: make(chan struct{})}

	probed := make(chan struct{})
	client.OnInfo(func(info *Info) {
		if info.FPS > 0 {
			p.videoDT = 90000 / uint32(info.FPS)
		}
	})
	client.OnFrame(func(frame *Frame) {
		p.onFrame(frame)
		if p.videoTrack != nil {
			select {
			case probed <- struct{}{}:
			default:
			}
		}
	})
	client.OnError(func(err error) {
		p.once.Do(func() {
			p.err = err
			close(p.done)
		})
	})

	if _, err = client.StreamStart(); err != nil {
		_ = client.Close()
		return nil, err
	}

	// wait for the first keyframe so GetMedias has something to offer
	select {
	case <-probed:
	case <-p.done:
		_ = client.Close()
		return nil, p.err
	case <-time.After(probeTimeout):
		_ = client.Close()
		return nil, ErrProtocol
	}

	return p, nil
}

func (p *Producer) onFrame(frame *Frame) {
	switch frame.Type {
	case FrameIFrame, FramePFrame:
		if p.videoTrack == nil {
			if frame.Type != FrameIFrame {
				return // wait for a keyframe before declaring the codec
			}
			p.addVideoTrack(frame.Codec)
		}

		payload := annexb.EncodeToAVCC(frame.Payload, true)
		if payload == nil {
			return
		}

		if p.videoDT == 0 {
			p.videoDT = 90000 / 30
		}
		p.videoTS += p.videoDT

		p.videoTrack.WriteRTP(&rtp.Packet{
			Header:  rtp.Header{Timestamp: p.videoTS},
			Payload: payload,
		})

	case FrameAAC, FrameADPCM:
		if p.audioTrack == nil {
			p.addAudioTrack(frame)
			if p.audioTrack == nil {
				return
			}
		}

		var samples uint32
		if frame.Type == FrameAAC {
			samples = uint32(aac.ADTSFrames(frame.Payload)) * 1024
		} else {
			samples = uint32(len(frame.Payload)) * 2
		}

		p.audioTS += samples
		p.audioSq++

		p.audioTrack.WriteRTP(&rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				Marker:         true,
				SequenceNumber: p.audioSq,
				Timestamp:      p.audioTS,
			},
			Payload: frame.Payload,
		})
	}
}

func (p *Producer) addVideoTrack(videoCodec VideoCodec) {
	codec := &core.Codec{
		Name:        core.CodecH264,
		ClockRate:   90000,
		PayloadType: core.PayloadTypeRAW,
	}
	if videoCodec == H265 {
		codec.Name = core.CodecH265
	}

	media := &core.Media{
		Kind:      core.KindVideo,
		Direction: core.DirectionRecvonly,
		Codecs:    []*core.Codec{codec},
	}
	p.medias = append(p.medias, media)

	p.videoTrack = core.NewReceiver(media, codec)
	p.receivers = append(p.receivers, p.videoTrack)
}

func (p *Producer) addAudioTrack(frame *Frame) {
	var codec *core.Codec
	if frame.Type == FrameAAC {
		if codec = aac.ADTSToCodec(frame.Payload); codec == nil {
			return
		}
	} else {
		codec = &core.Codec{
			Name:        core.CodecADPC,
			ClockRate:   8000,
			PayloadType: core.PayloadTypeRAW,
		}
	}

	media := &core.Media{
		Kind:      core.KindAudio,
		Direction: core.DirectionRecvonly,
		Codecs:    []*core.Codec{codec},
	}
	p.medias = append(p.medias, media)

	p.audioTrack = core.NewReceiver(media, codec)
	p.receivers = append(p.receivers, p.audioTrack)
}

func (p *Producer) GetMedias() []*core.Media {
	return p.medias
}

func (p *Producer) GetTrack(media *core.Media, codec *core.Codec) (*core.Receiver, error) {
	for _, receiver := range p.receivers {
		if receiver.Codec == codec {
			return receiver, nil
		}
	}
	return nil, core.ErrCantGetTrack
}

// Start blocks until the session dies or Stop is called.
func (p *Producer) Start() error {
	<-p.done
	return p.err
}

func (p *Producer) Stop() error {
	err := p.client.Close()
	p.once.Do(func() { close(p.done) })
	for _, receiver := range p.receivers {
		receiver.Close()
	}
	return err
}
