package gui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"codeberg.org/snonux/pronounce/internal/audio"
	"codeberg.org/snonux/pronounce/internal/player"
)

func TestStatusText(t *testing.T) {
	tests := []struct {
		name string
		ev   player.Event
		want string
	}{
		{
			name: "primary attempt",
			ev:   player.Event{Kind: player.AttemptStarted, Word: "abandon", Attempt: audio.Primary},
			want: "Loading 'abandon'...",
		},
		{
			name: "fallback attempt",
			ev:   player.Event{Kind: player.AttemptStarted, Word: "abandon", Attempt: audio.Fallback},
			want: "Trying dictionary voice for 'abandon'...",
		},
		{
			name: "playing",
			ev:   player.Event{Kind: player.PlaybackStarted, Word: "bias", Accent: audio.AccentUK},
			want: "Playing 'bias' (uk)",
		},
		{
			name: "finished normally",
			ev:   player.Event{Kind: player.PlaybackFinished, Word: "bias"},
			want: "",
		},
		{
			name: "finished after preemption",
			ev:   player.Event{Kind: player.PlaybackFinished, Word: "bias", Err: audio.Interrupted(nil)},
			want: "",
		},
		{
			name: "decode error during playback",
			ev:   player.Event{Kind: player.PlaybackFinished, Word: "bias", Err: errors.New("bad frame")},
			want: "Playback of 'bias' failed: bad frame",
		},
		{
			name: "request failed",
			ev:   player.Event{Kind: player.RequestFailed, Word: "bias", Err: audio.NoData()},
			want: "Could not play 'bias': No data received",
		},
		{
			name: "interrupted request",
			ev:   player.Event{Kind: player.RequestInterrupted, Word: "bias", Err: audio.Interrupted(nil)},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusText(tt.ev); got != tt.want {
				t.Errorf("statusText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFailureText(t *testing.T) {
	if got := failureText("bias", audio.AlreadyPlaying()); got != "Still playing, press stop first" {
		t.Errorf("unexpected text for ALREADY_PLAYING: %q", got)
	}
	if got := failureText("a b", audio.InvalidURL("a b")); !strings.Contains(got, "'a b'") {
		t.Errorf("unexpected text for INVALID_URL: %q", got)
	}
	if got := failureText("bias", audio.Interrupted(nil)); got != "" {
		t.Errorf("interruptions should not change the status, got %q", got)
	}
}

func TestEventLine(t *testing.T) {
	ev := player.Event{
		Kind:    player.AttemptFailed,
		Word:    "abandon",
		Accent:  audio.AccentUS,
		Attempt: audio.Primary,
		Err:     audio.DownloadFailed(errors.New("connection refused")),
	}
	want := "attempt_failed abandon/us primary [DOWNLOAD_ERROR] connection refused"
	if got := eventLine(ev); got != want {
		t.Errorf("eventLine() = %q, want %q", got, want)
	}
}

func TestEventLogKeepsNewestFirst(t *testing.T) {
	v := &EventLog{maxMessages: 2}
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	v.add(at, "one")
	v.add(at.Add(time.Second), "two")
	text := v.add(at.Add(2*time.Second), "three")

	want := "[10:00:02] three\n[10:00:01] two"
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}
