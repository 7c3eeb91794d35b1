// Package sound turns downloaded clip bytes into audible output. It holds the
// in-memory MP3/WAV decoder and the sinks that own a playback session: the
// miniaudio device, an external player command and a silent decode-only sink.
package sound
