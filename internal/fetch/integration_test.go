package fetch

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/pronounce/internal/audio"
)

// Talks to the real dictionary voice service, run with PRONOUNCE_INTEGRATION=1
func TestFetchDictionaryVoice(t *testing.T) {
	if os.Getenv("PRONOUNCE_INTEGRATION") == "" {
		t.Skip("set PRONOUNCE_INTEGRATION=1 to run against the real sources")
	}

	url, err := audio.DefaultEndpoints().URL("abandon", audio.AccentUS, audio.Fallback)
	require.NoError(t, err)

	data, err := New(nil, zerolog.Nop()).Fetch(context.Background(), url, nil)
	require.NoError(t, err)
	assert.True(t, audio.IsPlayable(data), "format %s", audio.DetectFormat(data))
}
