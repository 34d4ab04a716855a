package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Danondso/audiotext/internal/pipeline"
)

// Bridge forwards pipeline notifications into the Bubble Tea program as
// messages. It implements pipeline.Observer.
type Bridge struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

// NewBridge returns a Bridge that drops messages until Attach is called.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach routes messages to p.
func (b *Bridge) Attach(p *tea.Program) {
	b.AttachFunc(p.Send)
}

// AttachFunc routes messages to send.
func (b *Bridge) AttachFunc(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()
}

func (b *Bridge) emit(msg tea.Msg) {
	b.mu.RLock()
	send := b.send
	b.mu.RUnlock()
	if send != nil {
		send(msg)
	}
}

func (b *Bridge) Progress(runID string, percent int) {
	b.emit(ProgressMsg{RunID: runID, Percent: percent})
}

func (b *Bridge) Status(runID, message string) {
	b.emit(StatusMsg{RunID: runID, Text: message})
}

func (b *Bridge) Completed(runID string, outcome pipeline.Outcome) {
	b.emit(CompletedMsg{RunID: runID, Outcome: outcome})
}

func (b *Bridge) Failed(runID string, err *pipeline.ConversionError) {
	b.emit(FailedMsg{RunID: runID, Err: err})
}
