package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"codeberg.org/snonux/pronounce/internal/audio"
	"codeberg.org/snonux/pronounce/internal/batch"
	"codeberg.org/snonux/pronounce/internal/cli"
	"codeberg.org/snonux/pronounce/internal/fetch"
	"codeberg.org/snonux/pronounce/internal/gui"
	"codeberg.org/snonux/pronounce/internal/history"
	"codeberg.org/snonux/pronounce/internal/player"
	"codeberg.org/snonux/pronounce/internal/sound"
)

// Processor handles the main pronunciation logic
type Processor struct {
	settings *cli.Settings
	logger   zerolog.Logger
	out      io.Writer

	sink    sound.Sink
	history *history.Store
	ctrl    *player.Controller

	// finished receives PlaybackFinished events for the sequential CLI modes
	finished chan player.Event

	mu          sync.Mutex
	listener    func(player.Event)
	lastAttempt audio.AttemptKind
}

// NewProcessor creates the processor and everything it drives
func NewProcessor(settings *cli.Settings, logger zerolog.Logger) (*Processor, error) {
	sink, err := sound.NewSink(sound.Options{
		Kind:    settings.SinkKind,
		Command: settings.PlayerCommand,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	if settings.DryRun {
		sink = &sound.NullSink{Instant: true}
	}

	p := &Processor{
		settings: settings,
		logger:   logger,
		out:      os.Stdout,
		sink:     sink,
		finished: make(chan player.Event, 1),
	}

	if settings.HistoryPath != "" {
		store, err := history.Open(settings.HistoryPath)
		if err != nil {
			return nil, err
		}
		p.history = store
	}

	cfg := fetch.DefaultConfig()
	cfg.Timeout = settings.Timeout
	fetcher := fetch.New(cfg, logger)

	p.ctrl = player.New(fetcher, sink, player.Options{
		Policy:                   settings.Policy,
		ForwardHeadersOnFallback: settings.ForwardHeaders,
		Endpoints:                settings.Endpoints,
		Observer:                 p.observe,
		Logger:                   logger,
	})

	return p, nil
}

// Controller returns the playback controller
func (p *Processor) Controller() *player.Controller {
	return p.ctrl
}

// SetListener registers a function that receives every controller event
func (p *Processor) SetListener(fn func(player.Event)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listener = fn
}

// ProcessSingleWord plays one word from the command line and waits for the
// end of the clip
func (p *Processor) ProcessSingleWord(ctx context.Context, word string) error {
	return p.playAndWait(ctx, word, p.settings.Accent)
}

// ProcessBatch plays every word of the batch file in turn
func (p *Processor) ProcessBatch(ctx context.Context) error {
	entries, err := batch.ReadWordFile(p.settings.BatchFile)
	if err != nil {
		return err
	}

	// Track statistics
	playedCount := 0
	errorCount := 0

	for i, entry := range entries {
		fmt.Fprintf(p.out, "\nPronouncing %d/%d: %s\n", i+1, len(entries), entry.Word)

		err := p.playAndWait(ctx, entry.Word, entry.AccentOr(p.settings.Accent))
		if err == nil {
			playedCount++
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintf(os.Stderr, "Error pronouncing '%s': %s\n", entry.Word, Describe(err))
		errorCount++
	}

	// Print summary
	fmt.Fprintf(p.out, "\n=== Batch Summary ===\n")
	fmt.Fprintf(p.out, "Total words: %d\n", len(entries))
	fmt.Fprintf(p.out, "Played: %d\n", playedCount)
	if errorCount > 0 {
		fmt.Fprintf(p.out, "Errors: %d\n", errorCount)
	}
	fmt.Fprintf(p.out, "=====================\n")

	return nil
}

// RunGUIMode launches the word list window
func (p *Processor) RunGUIMode() error {
	app := gui.New(&gui.Config{
		Player:  p.ctrl,
		Words:   batch.DefaultWords(),
		Accent:  p.settings.Accent,
		Headers: p.settings.Headers,
	})
	p.SetListener(app.HandleEvent)
	app.Run()
	return nil
}

// ListHistory prints the most recent plays and the overall counts
func (p *Processor) ListHistory(limit int) error {
	if p.history == nil {
		return errors.New("no history file configured (use --history)")
	}

	entries, err := p.history.Recent(limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tWORD\tACCENT\tSOURCE\tOUTCOME\tCODE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Word, e.Accent, e.Attempt, e.Outcome, e.Code)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	stats, err := p.history.Stats()
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "\n%d requests: %d played (%d from fallback), %d failed, %d interrupted\n",
		stats.Total, stats.ByOutcome[history.OutcomePlayed], stats.FallbackUsed,
		stats.ByOutcome[history.OutcomeFailed], stats.ByOutcome[history.OutcomeInterrupted])

	return nil
}

// Close tears the controller down and releases the sink and the history
func (p *Processor) Close() error {
	var errs []error
	errs = append(errs, p.ctrl.Close())
	if c, ok := p.sink.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if p.history != nil {
		errs = append(errs, p.history.Close())
	}
	return errors.Join(errs...)
}

// playAndWait starts a word and blocks until its clip has ended
func (p *Processor) playAndWait(ctx context.Context, word string, accent audio.Accent) error {
	// Drop a completion left over from an earlier word
	select {
	case <-p.finished:
	default:
	}

	req := audio.Request{Word: word, Accent: accent, Headers: p.settings.Headers}
	if err := p.ctrl.Play(ctx, req); err != nil {
		return err
	}

	p.mu.Lock()
	source := p.lastAttempt
	p.mu.Unlock()
	fmt.Fprintf(p.out, "  Playing '%s' (%s, %s source)\n", word, accent, source)

	select {
	case ev := <-p.finished:
		if ev.Err != nil && !errors.Is(ev.Err, sound.ErrStopped) {
			return audio.PlaybackFailed(ev.Err)
		}
		return nil
	case <-ctx.Done():
		p.ctrl.Cancel()
		return audio.Interrupted(ctx.Err())
	}
}

// observe receives controller events outside the controller lock
func (p *Processor) observe(ev player.Event) {
	p.logger.Debug().
		Str("event", ev.Kind.String()).
		Str("request_id", ev.RequestID).
		Str("word", ev.Word).
		Str("attempt", ev.Attempt.String()).
		AnErr("error", ev.Err).
		Msg("player event")

	if p.history != nil {
		if err := p.history.Record(ev); err != nil {
			p.logger.Warn().Err(err).Msg("failed to record history")
		}
	}

	p.mu.Lock()
	if ev.Kind == player.PlaybackStarted {
		p.lastAttempt = ev.Attempt
	}
	listener := p.listener
	p.mu.Unlock()
	if listener != nil {
		listener(ev)
	}

	if ev.Kind == player.PlaybackFinished {
		select {
		case p.finished <- ev:
		default:
		}
	}
}

// Describe formats an error for the terminal as "[CODE] message"
func Describe(err error) string {
	if code := audio.CodeOf(err); code != "" {
		return fmt.Sprintf("[%s] %s", code, err.Error())
	}
	return err.Error()
}
