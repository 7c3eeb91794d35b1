package audio

// Format is the container detected by the sniffer
type Format int

const (
	FormatUnknown Format = iota
	FormatMP3ID3         // "ID3" tag header
	FormatMP3Frame       // bare MPEG audio frame sync
	FormatWAV            // "RIFF" header
)

func (f Format) String() string {
	switch f {
	case FormatMP3ID3:
		return "mp3-id3"
	case FormatMP3Frame:
		return "mp3-frame"
	case FormatWAV:
		return "wav"
	default:
		return "unknown"
	}
}

// minSniffLen is the shortest buffer the sniffer will look at
const minSniffLen = 4

// DetectFormat inspects the first bytes of data. It is a heuristic gate:
// false positives are possible, decoding is the authoritative check.
func DetectFormat(data []byte) Format {
	if len(data) < minSniffLen {
		return FormatUnknown
	}

	switch {
	case data[0] == 0x49 && data[1] == 0x44 && data[2] == 0x33:
		// ID3, any version byte
		return FormatMP3ID3
	case data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3Frame
	case data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46:
		return FormatWAV
	}

	return FormatUnknown
}

// IsPlayable reports whether data looks like audio the sink can play
func IsPlayable(data []byte) bool {
	return DetectFormat(data) != FormatUnknown
}
