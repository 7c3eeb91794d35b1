package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"codeberg.org/snonux/pronounce/internal/audio"
)

// Entry is one word of a word list
type Entry struct {
	Word string
	// Accent is empty when the line did not name one
	Accent audio.Accent
	Line   int
}

// AccentOr returns the entry's accent, or def if the line had none
func (e Entry) AccentOr(def audio.Accent) audio.Accent {
	if e.Accent == "" {
		return def
	}
	return e.Accent
}

// ReadWordFile reads a word list from a file.
// Supports formats:
// - word only: "abandon"
// - word and accent: "abandon uk" or "abandon = uk"
// Empty lines and lines starting with '#' are skipped.
func ReadWordFile(filename string) ([]Entry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read word file: %w", err)
	}
	defer f.Close()

	entries, err := ParseWords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return entries, nil
}

// ParseWords parses a word list, see ReadWordFile for the format
func ParseWords(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		word, rest, _ := strings.Cut(line, "=")
		if strings.TrimSpace(word) == "" {
			return nil, fmt.Errorf("line %d: missing word", lineNo)
		}
		fields := strings.Fields(word + " " + rest)

		entry := Entry{Word: fields[0], Line: lineNo}
		switch len(fields) {
		case 1:
		case 2:
			accent, err := audio.ParseAccent(fields[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			entry.Accent = accent
		default:
			return nil, fmt.Errorf("line %d: expected \"word [accent]\", got %q", lineNo, line)
		}

		if err := audio.ValidateWord(entry.Word); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan word list: %w", err)
	}

	return entries, nil
}

// DefaultWords returns the built-in demo list of CET-6 vocabulary
func DefaultWords() []string {
	return []string{
		"abandon", "bias", "capacity", "deduce", "elaborate",
		"fluctuate", "gratify", "hypothesis", "implication", "justify",
		"legitimate", "manifest", "notion", "offset", "prestige",
		"quantify", "retain", "suspend", "tangible", "undermine",
	}
}
