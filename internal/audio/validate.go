package audio

import (
	"fmt"
	"strings"
	"unicode"
)

// ValidateWord checks that a vocabulary word can be embedded in a pronunciation URL.
// Letters (any script), digits, combining marks and the characters - ' . are allowed.
func ValidateWord(word string) error {
	if strings.TrimSpace(word) == "" {
		return fmt.Errorf("word cannot be empty")
	}

	for _, r := range word {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r):
		case r == '-' || r == '\'' || r == '.':
		case unicode.IsSpace(r):
			return fmt.Errorf("word must not contain whitespace")
		case unicode.IsControl(r):
			return fmt.Errorf("word must not contain control characters")
		default:
			return fmt.Errorf("word contains invalid character %q", r)
		}
	}

	return nil
}
