package sound

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog"
)

// DeviceSink plays clips on the default output device through miniaudio
type DeviceSink struct {
	logger zerolog.Logger

	mu           sync.Mutex
	audioContext *malgo.AllocatedContext
}

// NewDeviceSink creates a device sink. The audio context is opened on first use.
func NewDeviceSink(logger zerolog.Logger) *DeviceSink {
	return &DeviceSink{logger: logger}
}

// Start decodes data and starts a playback device for it
func (s *DeviceSink) Start(ctx context.Context, data []byte) (Session, error) {
	clip, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	audioContext, err := s.context()
	if err != nil {
		return nil, err
	}

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = uint32(clip.SampleRate)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = uint32(clip.Channels)
	config.Alsa.NoMMap = 1

	p := &devicePlayback{pcm: clip.PCM, bytesPerFrame: malgo.SampleSizeInBytes(malgo.FormatS16) * clip.Channels}
	p.session = newSession(p.release)

	device, err := malgo.InitDevice(audioContext.Context, config, malgo.DeviceCallbacks{Data: p.processAudio})
	if err != nil {
		return nil, fmt.Errorf("failed to open playback device: %w", err)
	}
	p.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	s.logger.Debug().
		Int("sample_rate", clip.SampleRate).
		Int("channels", clip.Channels).
		Dur("duration", clip.Duration()).
		Msg("device playback started")

	return p.session, nil
}

// Close releases the audio context
func (s *DeviceSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.audioContext == nil {
		return nil
	}
	err := s.audioContext.Uninit()
	s.audioContext.Free()
	s.audioContext = nil
	return err
}

func (s *DeviceSink) context() (*malgo.AllocatedContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.audioContext != nil {
		return s.audioContext, nil
	}

	audioContext, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	s.audioContext = audioContext
	return audioContext, nil
}

// devicePlayback feeds one clip to one device
type devicePlayback struct {
	*session

	device        *malgo.Device
	bytesPerFrame int

	mu     sync.Mutex
	pcm    []byte
	offset int
	ended  bool
}

func (p *devicePlayback) processAudio(pOutput, _ []byte, frameCount uint32) {
	need := int(frameCount) * p.bytesPerFrame
	if need > len(pOutput) {
		need = len(pOutput)
	}

	p.mu.Lock()
	n := copy(pOutput[:need], p.pcm[p.offset:])
	p.offset += n
	drained := p.offset >= len(p.pcm) && !p.ended
	if drained {
		p.ended = true
	}
	p.mu.Unlock()

	clear(pOutput[n:need])

	if drained {
		// The device cannot be stopped from its own callback
		go p.finish(nil)
	}
}

func (p *devicePlayback) release() {
	if p.device == nil {
		return
	}
	_ = p.device.Stop()
	p.device.Uninit()
}
