package audio

import (
	"strings"
	"testing"
)

func TestValidateWord(t *testing.T) {
	tests := []struct {
		name    string
		word    string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "plain English word",
			word:    "abandon",
			wantErr: false,
		},
		{
			name:    "hyphenated word",
			word:    "well-being",
			wantErr: false,
		},
		{
			name:    "apostrophe",
			word:    "o'clock",
			wantErr: false,
		},
		{
			name:    "Cyrillic word",
			word:    "ябълка",
			wantErr: false,
		},
		{
			name:    "empty word",
			word:    "",
			wantErr: true,
			errMsg:  "word cannot be empty",
		},
		{
			name:    "whitespace only",
			word:    "   \t\n",
			wantErr: true,
			errMsg:  "word cannot be empty",
		},
		{
			name:    "inner space",
			word:    "ice cream",
			wantErr: true,
			errMsg:  "whitespace",
		},
		{
			name:    "path separator",
			word:    "a/b",
			wantErr: true,
			errMsg:  "invalid character",
		},
		{
			name:    "query delimiter",
			word:    "what?",
			wantErr: true,
			errMsg:  "invalid character",
		},
		{
			name:    "control character",
			word:    "bias\x00",
			wantErr: true,
			errMsg:  "control characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWord(tt.word)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWord() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != nil {
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ValidateWord() error = %v, want error containing %v", err.Error(), tt.errMsg)
				}
			}
		})
	}
}
