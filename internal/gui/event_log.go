package gui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// EventLog is a widget that displays player events, newest first
type EventLog struct {
	widget.BaseWidget

	container  *fyne.Container
	logEntry   *widget.Entry
	scrollView *container.Scroll

	mu          sync.Mutex
	messages    []string
	maxMessages int
}

// NewEventLog creates an event log keeping at most maxMessages lines
func NewEventLog(maxMessages int) *EventLog {
	v := &EventLog{
		maxMessages: maxMessages,
	}

	// Read-only multiline entry
	v.logEntry = widget.NewMultiLineEntry()
	v.logEntry.Disable()
	v.logEntry.Wrapping = fyne.TextWrapWord

	v.scrollView = container.NewScroll(v.logEntry)
	v.scrollView.SetMinSize(fyne.NewSize(0, 140))

	v.container = container.NewBorder(
		widget.NewLabel("Events (newest first):"),
		nil,
		nil,
		nil,
		v.scrollView,
	)

	v.ExtendBaseWidget(v)
	return v
}

// CreateRenderer implements fyne.Widget
func (v *EventLog) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.container)
}

// AddMessage adds a timestamped line. It may be called from any goroutine.
func (v *EventLog) AddMessage(message string) {
	text := v.add(time.Now(), message)

	fyne.Do(func() {
		v.logEntry.SetText(text)
		v.scrollView.Offset = fyne.NewPos(0, 0)
		v.scrollView.Refresh()
	})
}

// add prepends a line and returns the full text
func (v *EventLog) add(at time.Time, message string) string {
	v.mu.Lock()
	defer v.mu.Unlock()

	line := fmt.Sprintf("[%s] %s", at.Format("15:04:05"), message)
	v.messages = append([]string{line}, v.messages...)

	// Drop the oldest lines
	if len(v.messages) > v.maxMessages {
		v.messages = v.messages[:v.maxMessages]
	}

	return strings.Join(v.messages, "\n")
}
