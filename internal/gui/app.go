package gui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	fynetooltip "github.com/dweymouth/fyne-tooltip"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"codeberg.org/snonux/pronounce/internal"
	"codeberg.org/snonux/pronounce/internal/audio"
	"codeberg.org/snonux/pronounce/internal/player"
)

// Player is the playback controller as seen by the window
type Player interface {
	Play(ctx context.Context, req audio.Request) error
	Cancel()
}

// Config holds GUI application configuration
type Config struct {
	Player  Player
	Words   []string
	Accent  audio.Accent
	Headers map[string]string
}

// Application represents the word list window
type Application struct {
	// Fyne components
	app    fyne.App
	window fyne.Window

	// UI elements
	wordList    *widget.List
	wordInput   *widget.Entry
	accentRadio *widget.RadioGroup
	playButton  *ttwidget.Button
	stopButton  *ttwidget.Button
	statusLabel *widget.Label
	eventLog    *EventLog

	config *Config

	mu       sync.Mutex
	accent   audio.Accent
	selected int

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates the GUI application
func New(config *Config) *Application {
	if config.Accent == "" {
		config.Accent = audio.AccentUS
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &Application{
		app:      app.NewWithID("org.codeberg.snonux.pronounce"),
		config:   config,
		accent:   config.Accent,
		selected: -1,
		ctx:      ctx,
		cancel:   cancel,
	}
	a.app.SetIcon(theme.MediaPlayIcon())

	a.setupUI()
	return a
}

// setupUI creates the main user interface
func (a *Application) setupUI() {
	a.window = a.app.NewWindow(fmt.Sprintf("Pronounce v%s", internal.Version))
	a.window.Resize(fyne.NewSize(420, 560))

	words := a.config.Words
	a.wordList = widget.NewList(
		func() int { return len(words) },
		func() fyne.CanvasObject { return widget.NewLabel("template") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(words[id])
		},
	)
	a.wordList.OnSelected = func(id widget.ListItemID) {
		a.mu.Lock()
		a.selected = id
		a.mu.Unlock()
		a.play(words[id])
	}

	a.wordInput = widget.NewEntry()
	a.wordInput.SetPlaceHolder("Any English word...")
	a.wordInput.OnSubmitted = func(text string) {
		a.play(strings.TrimSpace(text))
		a.window.Canvas().Unfocus()
	}

	a.accentRadio = widget.NewRadioGroup([]string{"us", "uk"}, func(value string) {
		accent, err := audio.ParseAccent(value)
		if err != nil {
			return
		}
		a.mu.Lock()
		a.accent = accent
		a.mu.Unlock()
	})
	a.accentRadio.Horizontal = true
	a.accentRadio.SetSelected(string(a.config.Accent))

	// Tooltips are set after the tooltip layer is created
	a.playButton = ttwidget.NewButtonWithIcon("", theme.MediaPlayIcon(), func() {
		a.play(strings.TrimSpace(a.wordInput.Text))
	})
	a.stopButton = ttwidget.NewButtonWithIcon("", theme.MediaStopIcon(), a.onStop)

	a.statusLabel = widget.NewLabel("Select a word to hear it")
	a.statusLabel.Wrapping = fyne.TextWrapWord

	a.eventLog = NewEventLog(200)

	inputSection := container.NewBorder(
		nil, nil,
		nil,
		container.NewHBox(a.playButton, a.stopButton),
		a.wordInput,
	)

	top := container.NewVBox(inputSection, a.accentRadio, a.statusLabel)

	content := container.NewBorder(
		top,
		a.eventLog,
		nil, nil,
		a.wordList,
	)

	a.window.SetContent(fynetooltip.AddWindowToolTipLayer(content, a.window.Canvas()))
	a.playButton.SetToolTip("Play the typed word (Enter)")
	a.stopButton.SetToolTip("Stop playback (Escape)")

	a.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyEscape:
			a.onStop()
		case fyne.KeyDown:
			a.selectRelative(1)
		case fyne.KeyUp:
			a.selectRelative(-1)
		}
	})

	a.window.SetOnClosed(func() {
		a.cancel()
		a.config.Player.Cancel()
	})
}

// Run shows the window and blocks until it is closed
func (a *Application) Run() {
	a.window.ShowAndRun()
}

// HandleEvent shows a controller event in the status line and the event log.
// It may be called from any goroutine.
func (a *Application) HandleEvent(ev player.Event) {
	status := statusText(ev)
	line := eventLine(ev)

	a.eventLog.AddMessage(line)
	if status == "" {
		return
	}
	fyne.Do(func() {
		a.statusLabel.SetText(status)
	})
}

// play starts word in the background; failures show up through HandleEvent
// and the returned error
func (a *Application) play(word string) {
	if word == "" {
		return
	}

	a.mu.Lock()
	req := audio.Request{Word: word, Accent: a.accent, Headers: a.config.Headers}
	a.mu.Unlock()

	fyne.Do(func() {
		a.statusLabel.SetText(fmt.Sprintf("Loading '%s'...", word))
	})

	go func() {
		if err := a.config.Player.Play(a.ctx, req); err != nil {
			msg := failureText(word, err)
			if msg == "" {
				return
			}
			fyne.Do(func() {
				a.statusLabel.SetText(msg)
			})
		}
	}()
}

func (a *Application) onStop() {
	a.config.Player.Cancel()
}

func (a *Application) selectRelative(delta int) {
	a.mu.Lock()
	next := a.selected + delta
	a.mu.Unlock()

	if next < 0 || next >= len(a.config.Words) {
		return
	}
	a.wordList.Select(next)
}

// statusText is the status line for an event, empty if the event does not
// change it
func statusText(ev player.Event) string {
	switch ev.Kind {
	case player.AttemptStarted:
		if ev.Attempt == audio.Fallback {
			return fmt.Sprintf("Trying dictionary voice for '%s'...", ev.Word)
		}
		return fmt.Sprintf("Loading '%s'...", ev.Word)
	case player.PlaybackStarted:
		return fmt.Sprintf("Playing '%s' (%s)", ev.Word, ev.Accent)
	case player.PlaybackFinished:
		if ev.Err != nil && audio.CodeOf(ev.Err) != audio.CodeInterrupted {
			return fmt.Sprintf("Playback of '%s' failed: %v", ev.Word, ev.Err)
		}
		return ""
	case player.RequestFailed:
		return failureText(ev.Word, ev.Err)
	}
	return ""
}

func failureText(word string, err error) string {
	switch audio.CodeOf(err) {
	case audio.CodeInterrupted:
		return ""
	case audio.CodeAlreadyPlaying:
		return "Still playing, press stop first"
	case audio.CodeInvalidURL:
		return fmt.Sprintf("'%s' is not a word that can be looked up", word)
	}
	return fmt.Sprintf("Could not play '%s': %v", word, err)
}

// eventLine is the event log entry for an event
func eventLine(ev player.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s/%s", ev.Kind, ev.Word, ev.Accent)
	if ev.Kind == player.AttemptStarted || ev.Kind == player.AttemptFailed {
		fmt.Fprintf(&b, " %s", ev.Attempt)
	}
	if ev.Err != nil {
		if code := audio.CodeOf(ev.Err); code != "" {
			fmt.Fprintf(&b, " [%s]", code)
		}
		fmt.Fprintf(&b, " %v", ev.Err)
	}
	return b.String()
}
