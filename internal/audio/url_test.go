package audio

import (
	"errors"
	"testing"
)

func TestEndpointsURL(t *testing.T) {
	e := DefaultEndpoints()

	tests := []struct {
		name   string
		word   string
		accent Accent
		kind   AttemptKind
		want   string
	}{
		{"primary us", "abandon", AccentUS, Primary, "https://pron.lolfrank.cn/pron/abandon_us.mp3"},
		{"primary uk", "bias", AccentUK, Primary, "https://pron.lolfrank.cn/pron/bias_uk.mp3"},
		{"fallback us", "abandon", AccentUS, Fallback, "https://dict.youdao.com/dictvoice?type=0&audio=abandon"},
		{"fallback uk", "capacity", AccentUK, Fallback, "https://dict.youdao.com/dictvoice?type=1&audio=capacity"},
		{"primary escapes apostrophe", "o'clock", AccentUS, Primary, "https://pron.lolfrank.cn/pron/o%27clock_us.mp3"},
		{"fallback escapes non-ASCII", "café", AccentUS, Fallback, "https://dict.youdao.com/dictvoice?type=0&audio=caf%C3%A9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.URL(tt.word, tt.accent, tt.kind)
			if err != nil {
				t.Fatalf("URL() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("URL() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEndpointsURLCustomBase(t *testing.T) {
	e := Endpoints{PrimaryBase: "http://127.0.0.1:8080/pron", FallbackBase: "http://127.0.0.1:8081/dictvoice"}

	got, err := e.URL("notion", AccentUS, Primary)
	if err != nil {
		t.Fatalf("URL() unexpected error: %v", err)
	}
	if got != "http://127.0.0.1:8080/pron/notion_us.mp3" {
		t.Errorf("URL() = %s", got)
	}
}

func TestEndpointsURLInvalid(t *testing.T) {
	tests := []struct {
		name   string
		e      Endpoints
		word   string
		accent Accent
	}{
		{"empty word", DefaultEndpoints(), "", AccentUS},
		{"word with space", DefaultEndpoints(), "ice cream", AccentUS},
		{"word with slash", DefaultEndpoints(), "../etc", AccentUS},
		{"unknown accent", DefaultEndpoints(), "bias", Accent("au")},
		{"relative base", Endpoints{PrimaryBase: "pron/", FallbackBase: "dictvoice"}, "bias", AccentUS},
		{"non-http scheme", Endpoints{PrimaryBase: "ftp://example.com/", FallbackBase: "ftp://example.com/"}, "bias", AccentUS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.e.URL(tt.word, tt.accent, Primary)
			if err == nil {
				t.Fatal("URL() expected error")
			}
			if !errors.Is(err, ErrInvalidURL) {
				t.Errorf("URL() error = %v, want INVALID_URL", err)
			}
			if CodeOf(err) != CodeInvalidURL {
				t.Errorf("CodeOf() = %s, want %s", CodeOf(err), CodeInvalidURL)
			}
		})
	}
}
