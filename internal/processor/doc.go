// Package processor contains the application logic of pronounce. It wires
// the fetcher, the audio sink, the playback controller and the play history
// together, and drives them for single words, word lists and the GUI.
package processor
