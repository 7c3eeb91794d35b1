package sound

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"codeberg.org/snonux/pronounce/internal/audio"
)

// CommandSink plays clips with an external audio player
type CommandSink struct {
	command []string
	tempDir string
	logger  zerolog.Logger
}

// NewCommandSink creates a sink running command with the clip path appended.
// An empty command picks the first installed player for the platform.
func NewCommandSink(command []string, tempDir string, logger zerolog.Logger) *CommandSink {
	return &CommandSink{
		command: command,
		tempDir: tempDir,
		logger:  logger,
	}
}

// Start writes the clip to a temporary file and launches the player on it
func (s *CommandSink) Start(ctx context.Context, data []byte) (Session, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty clip")
	}

	argv := s.command
	if len(argv) == 0 {
		var err error
		if argv, err = findPlayer(); err != nil {
			return nil, err
		}
	}

	ext := ".mp3"
	if audio.DetectFormat(data) == audio.FormatWAV {
		ext = ".wav"
	}
	f, err := os.CreateTemp(s.tempDir, "pronounce-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to create clip file: %w", err)
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write clip file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write clip file: %w", err)
	}

	if err := ctx.Err(); err != nil {
		os.Remove(path)
		return nil, err
	}

	args := append(append([]string{}, argv[1:]...), path)
	cmd := exec.Command(argv[0], args...)

	var killOnce sync.Once
	sess := newSession(func() {
		killOnce.Do(func() {
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
		})
	})

	if err := cmd.Start(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to start %s: %w", argv[0], err)
	}

	s.logger.Debug().Str("player", argv[0]).Str("file", path).Msg("command playback started")

	go func() {
		err := cmd.Wait()
		os.Remove(path)
		if err != nil {
			err = fmt.Errorf("%s failed: %w", argv[0], err)
		}
		sess.finish(err)
	}()

	return sess, nil
}

// findPlayer returns the preferred installed player command for the platform
func findPlayer() ([]string, error) {
	var candidates [][]string

	switch runtime.GOOS {
	case "darwin":
		candidates = [][]string{{"afplay"}}
	case "linux", "freebsd", "openbsd":
		// mpg123 first since it handles MP3 files best
		candidates = [][]string{
			{"mpg123", "-q"},
			{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
			{"play", "-q"},
			{"paplay"},
			{"aplay", "-q"},
		}
	default:
		return nil, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	for _, c := range candidates {
		if _, err := exec.LookPath(c[0]); err == nil {
			return c, nil
		}
	}
	return nil, fmt.Errorf("no audio player found. Install mpg123, ffplay, sox, paplay, or aplay")
}
