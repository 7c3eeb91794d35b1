package sound

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hajimehoshi/go-mp3"

	"codeberg.org/snonux/pronounce/internal/audio"
)

// Clip is decoded audio as interleaved signed 16-bit little-endian PCM
type Clip struct {
	SampleRate int
	Channels   int
	PCM        []byte
}

// Frames returns the number of sample frames in the clip
func (c *Clip) Frames() int {
	if c.Channels == 0 {
		return 0
	}
	return len(c.PCM) / (2 * c.Channels)
}

// Duration returns the playing time of the clip
func (c *Clip) Duration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.SampleRate)
}

// Decode decodes a complete clip. WAV is recognised by its RIFF header,
// everything else is handed to the MP3 decoder which has the final word.
func Decode(data []byte) (*Clip, error) {
	if len(data) == 0 {
		return nil, errors.New("empty clip")
	}
	if audio.DetectFormat(data) == audio.FormatWAV {
		return decodeWAV(data)
	}
	return decodeMP3(data)
}

func decodeMP3(data []byte) (*Clip, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("mp3 decode failed: %w", err)
	}

	pcm, err := io.ReadAll(d)
	if err != nil && len(pcm) == 0 {
		return nil, fmt.Errorf("mp3 decode failed: %w", err)
	}
	if len(pcm) == 0 {
		return nil, errors.New("mp3 decode failed: no audio frames")
	}

	// go-mp3 always produces stereo
	return &Clip{SampleRate: d.SampleRate(), Channels: 2, PCM: pcm}, nil
}

func decodeWAV(data []byte) (*Clip, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errors.New("wav decode failed: not a RIFF/WAVE file")
	}

	var (
		haveFmt    bool
		format     uint16
		channels   uint16
		sampleRate uint32
		bits       uint16
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if size < 0 || body+size > len(data) {
			if id != "data" {
				return nil, fmt.Errorf("wav decode failed: truncated %q chunk", id)
			}
			// Streaming encoders leave the data size unset, take what is there
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, errors.New("wav decode failed: short fmt chunk")
			}
			format = binary.LittleEndian.Uint16(data[body:])
			channels = binary.LittleEndian.Uint16(data[body+2:])
			sampleRate = binary.LittleEndian.Uint32(data[body+4:])
			bits = binary.LittleEndian.Uint16(data[body+14:])
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, errors.New("wav decode failed: data chunk before fmt chunk")
			}
			if format != 1 || bits != 16 {
				return nil, fmt.Errorf("wav decode failed: unsupported encoding (format %d, %d bits)", format, bits)
			}
			if channels < 1 || channels > 2 || sampleRate == 0 {
				return nil, fmt.Errorf("wav decode failed: unsupported layout (%d channels, %d Hz)", channels, sampleRate)
			}
			frame := 2 * int(channels)
			pcm := data[body : body+size-size%frame]
			if len(pcm) == 0 {
				return nil, errors.New("wav decode failed: no samples")
			}
			return &Clip{SampleRate: int(sampleRate), Channels: int(channels), PCM: pcm}, nil
		}

		pos = body + size + size%2
	}

	return nil, errors.New("wav decode failed: missing data chunk")
}
