package audio

import (
	"errors"
	"fmt"
)

// Code is the stable machine readable identifier of a playback failure
type Code string

const (
	CodeInvalidURL     Code = "INVALID_URL"
	CodeAlreadyPlaying Code = "ALREADY_PLAYING"
	CodeInterrupted    Code = "INTERRUPTED"
	CodeDownloadFailed Code = "DOWNLOAD_ERROR"
	CodePlaybackFailed Code = "PLAYBACK_ERROR"
	CodeNoData         Code = "NO_DATA"
	CodeInternal       Code = "INTERNAL_ERROR"
)

// Error is the error type surfaced to callers of the playback controller.
// Two errors are considered equal by errors.Is when their codes match.
type Error struct {
	Code    Code
	Message string
	Err     error // underlying transport or decoder error, if any
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks
var (
	ErrInvalidURL     = &Error{Code: CodeInvalidURL, Message: "Invalid URL"}
	ErrAlreadyPlaying = &Error{Code: CodeAlreadyPlaying, Message: "Audio is already playing"}
	ErrInterrupted    = &Error{Code: CodeInterrupted, Message: "Playback was interrupted"}
	ErrDownloadFailed = &Error{Code: CodeDownloadFailed, Message: "Download failed"}
	ErrPlaybackFailed = &Error{Code: CodePlaybackFailed, Message: "Playback failed"}
	ErrNoData         = &Error{Code: CodeNoData, Message: "No data received"}
	ErrInternal       = &Error{Code: CodeInternal, Message: "Module deallocated"}
)

// InvalidURL reports a word or URL that cannot be embedded in a request URL
func InvalidURL(s string) *Error {
	return &Error{Code: CodeInvalidURL, Message: fmt.Sprintf("Invalid URL: %s", s)}
}

// DownloadFailed wraps a transport failure; the message is the transport's own
func DownloadFailed(err error) *Error {
	msg := "No data received"
	if err != nil {
		msg = err.Error()
	}
	return &Error{Code: CodeDownloadFailed, Message: msg, Err: err}
}

// PlaybackFailed wraps a decoder or output failure
func PlaybackFailed(err error) *Error {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{Code: CodePlaybackFailed, Message: "Playback failed: " + msg, Err: err}
}

// NoData reports a successful response without a body
func NoData() *Error {
	return &Error{Code: CodeNoData, Message: ErrNoData.Message}
}

// Interrupted reports that a request was superseded or cancelled
func Interrupted(err error) *Error {
	return &Error{Code: CodeInterrupted, Message: ErrInterrupted.Message, Err: err}
}

// AlreadyPlaying reports a request rejected because another one is active
func AlreadyPlaying() *Error {
	return &Error{Code: CodeAlreadyPlaying, Message: ErrAlreadyPlaying.Message}
}

// Internal reports that the controller was closed while a request was outstanding
func Internal() *Error {
	return &Error{Code: CodeInternal, Message: ErrInternal.Message}
}

// CodeOf returns the code carried by err, or "" if err is not an *Error
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
