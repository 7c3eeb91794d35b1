package testutil

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// CreateWordFile writes a word list file into a temporary directory and returns its path
func CreateWordFile(t *testing.T, lines ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "words.txt")
	CreateTestFile(t, path, []byte(strings.Join(lines, "\n")+"\n"))
	return path
}

// AssertNoTempClips checks that no clip files were left behind in dir
func AssertNoTempClips(t *testing.T, dir string) {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, "pronounce-*"))
	if err != nil {
		t.Fatalf("Failed to list %s: %v", dir, err)
	}
	if len(matches) > 0 {
		t.Errorf("Expected no clip files in %s, found %v", dir, matches)
	}
}

// CaptureOutput captures stdout/stderr during test execution
func CaptureOutput(t *testing.T, f func()) (stdout, stderr string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()

	os.Stdout = wOut
	os.Stderr = wErr

	outC := make(chan string)
	errC := make(chan string)
	go func() { b, _ := io.ReadAll(rOut); outC <- string(b) }()
	go func() { b, _ := io.ReadAll(rErr); errC <- string(b) }()

	f()

	wOut.Close()
	wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	return <-outC, <-errC
}

// WAV returns a 16-bit PCM RIFF/WAVE clip of the given number of frames of silence
func WAV(sampleRate, channels, frames int) []byte {
	dataSize := frames * channels * 2

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))

	return buf.Bytes()
}

// ID3Header returns bytes that pass the sniffer as an ID3v2.4 tagged MP3
// but contain no decodable frames.
func ID3Header() []byte {
	return []byte{0x49, 0x44, 0x33, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
}

// MP3 returns frames of silent MPEG-1 Layer III audio at 128 kbps, 44.1 kHz
// stereo, starting directly with a frame sync like dictvoice clips.
// Every granule has a zero part2_3_length so decoders emit silence.
func MP3(frames int) []byte {
	// 144 * 128000 / 44100 bytes per frame, no padding
	const frameSize = 417

	var buf bytes.Buffer
	for i := 0; i < frames; i++ {
		buf.Write([]byte{0xFF, 0xFB, 0x90, 0x00})
		buf.Write(make([]byte, frameSize-4))
	}
	return buf.Bytes()
}

// MP3WithID3 returns the frames of MP3 behind an ID3v2.3 tag with padding
func MP3WithID3(frames int) []byte {
	const padding = 16

	tag := []byte{0x49, 0x44, 0x33, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, padding}
	tag = append(tag, make([]byte, padding)...)
	return append(tag, MP3(frames)...)
}

// MP3FrameBytes is the PCM size go-mp3 produces per MPEG-1 Layer III frame
const MP3FrameBytes = 1152 * 4

// HTMLPage is a typical non-audio body returned by a source for a missing word
var HTMLPage = []byte("<!DOCTYPE html><html><body>404 Not Found</body></html>")
