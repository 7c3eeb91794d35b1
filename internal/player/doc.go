// Package player implements the single-flight pronunciation playback controller.
//
// A Controller owns at most one in-flight download and at most one playback
// session. Play fetches the per-word clip from the primary source, sniffs it,
// and falls back exactly once to the dictionary voice service when the primary
// clip cannot be downloaded, is not audio or does not start playing. Every
// request is tagged with a generation so that results of superseded or
// cancelled requests are discarded.
package player
