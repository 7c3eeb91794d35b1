package audio

import (
	"net/url"
	"strings"
)

const (
	DefaultPrimaryBase  = "https://pron.lolfrank.cn/pron/"
	DefaultFallbackBase = "https://dict.youdao.com/dictvoice"
)

// Endpoints holds the base URLs of the two pronunciation sources
type Endpoints struct {
	PrimaryBase  string // per-word files: {PrimaryBase}{word}_{accent}.mp3
	FallbackBase string // dictionary voice: {FallbackBase}?type={0|1}&audio={word}
}

// DefaultEndpoints returns the production pronunciation sources
func DefaultEndpoints() Endpoints {
	return Endpoints{
		PrimaryBase:  DefaultPrimaryBase,
		FallbackBase: DefaultFallbackBase,
	}
}

// URL builds the download URL for word in the given accent and attempt.
// It does no network access. An *Error with CodeInvalidURL is returned when the
// word cannot be embedded or the result is not an absolute http(s) URL.
func (e Endpoints) URL(word string, accent Accent, kind AttemptKind) (string, error) {
	if err := ValidateWord(word); err != nil {
		return "", &Error{Code: CodeInvalidURL, Message: InvalidURL(word).Message, Err: err}
	}
	if accent != AccentUS && accent != AccentUK {
		return "", InvalidURL(word + "_" + string(accent))
	}

	var raw string
	switch kind {
	case Primary:
		base := e.PrimaryBase
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		raw = base + url.PathEscape(word+"_"+string(accent)) + ".mp3"
	case Fallback:
		raw = e.FallbackBase + "?type=" + accent.FallbackType() + "&audio=" + url.QueryEscape(word)
	default:
		return "", InvalidURL(word)
	}

	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", InvalidURL(raw)
	}

	return raw, nil
}
