package tui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Danondso/audiotext/internal/clipboard"
	"github.com/Danondso/audiotext/internal/config"
	"github.com/Danondso/audiotext/internal/history"
	"github.com/Danondso/audiotext/internal/pipeline"
	"github.com/Danondso/audiotext/internal/transcriber"
)

// Converter starts and cancels conversion runs. *pipeline.Runner implements it.
type Converter interface {
	Start(req pipeline.Request, obs pipeline.Observer) (*pipeline.Handle, error)
	Cancel() error
}

// State represents the application state.
type State int

const (
	StateIdle State = iota
	StateConverting
	StateDone
	StateError
)

// Messages sent through the Bubble Tea update loop. Run messages carry the
// ID of the run that produced them.

type ProgressMsg struct {
	RunID   string
	Percent int
}

type StatusMsg struct {
	RunID string
	Text  string
}

type CompletedMsg struct {
	RunID   string
	Outcome pipeline.Outcome
}

type FailedMsg struct {
	RunID string
	Err   *pipeline.ConversionError
}

type noticeTimeoutMsg struct{ seq int }

// StatusCheckMsg carries the result of a backend availability check.
type StatusCheckMsg struct {
	Checked       bool
	BackendOnline bool
}

type statusCheckTickMsg struct{}

// DebugEntry is a structured debug log entry.
type DebugEntry struct {
	Time     string // e.g. "11:27:53"
	Category string // e.g. "normalize", "transcribe", "pipeline"
	Message  string // the log message
}

// DebugLogMsg carries a structured debug log entry into the TUI.
type DebugLogMsg struct {
	Entry DebugEntry
}

const maxDebugLines = 50

// Model is the Bubble Tea model for the audiotext TUI.
type Model struct {
	State      State
	Config     *config.Config
	ConfigPath string
	History    *history.Store
	Converter  Converter
	Bridge     *Bridge
	Backend    transcriber.Transcriber
	Logger     *log.Logger
	DebugMode  bool

	Percent    int
	StatusText string
	LastError  string
	ErrorTitle string
	Notice     string
	noticeSeq  int

	Outcome    *pipeline.Outcome
	SourcePath string // file the shown transcript came from

	ShowHistory   bool
	HistoryCursor int

	DebugEntries []DebugEntry

	BackendOnline bool
	statusChecked bool

	runID    string
	input    textinput.Model
	progress progress.Model
	spinner  spinner.Model

	copyText  func(string) error
	writeFile func(string, []byte, os.FileMode) error
}

// NewModel creates a new TUI model. initialPath prefills the path input; when
// empty the configured last_path is used.
func NewModel(cfg *config.Config, configPath string, store *history.Store, conv Converter, bridge *Bridge, backend transcriber.Transcriber, initialPath string, logger *log.Logger, debug bool) Model {
	applyTheme(LoadTheme(cfg.Theme))

	in := textinput.New()
	in.Placeholder = "path to an audio file (wav, mp3, flac, ogg, m4a)"
	in.Prompt = "› "
	in.CharLimit = 4096
	in.Width = panelContentWidth - 4
	if initialPath == "" && cfg.LastPath != "" {
		initialPath = withTrailingSep(cfg.LastPath)
	}
	in.SetValue(initialPath)
	in.CursorEnd()
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	if bridge == nil {
		bridge = NewBridge()
	}

	return Model{
		State:      StateIdle,
		Config:     cfg,
		ConfigPath: configPath,
		History:    store,
		Converter:  conv,
		Bridge:     bridge,
		Backend:    backend,
		Logger:     logger,
		DebugMode:  debug,
		input:      in,
		progress:   newProgressBar(),
		spinner:    sp,
		copyText:   clipboard.CopyText,
		writeFile:  os.WriteFile,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.statusCheckCmd())
}

// Update handles messages and transitions state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case ProgressMsg:
		if msg.RunID != m.runID || m.runID == "" {
			return m, nil
		}
		m.Percent = msg.Percent
		return m, nil

	case StatusMsg:
		if msg.RunID != m.runID || m.runID == "" {
			return m, nil
		}
		m.StatusText = msg.Text
		return m, nil

	case CompletedMsg:
		if msg.RunID != m.runID || m.runID == "" {
			m.Logger.Printf("pipeline: dropping result of stale run %s", msg.RunID)
			return m, nil
		}
		return m.complete(msg.Outcome)

	case FailedMsg:
		if msg.RunID != m.runID || m.runID == "" {
			return m, nil
		}
		m.runID = ""
		m.State = StateError
		m.Percent = 0
		m.ErrorTitle, m.LastError = "Conversion failed", "unknown error"
		if msg.Err != nil {
			m.ErrorTitle = msg.Err.Title
			m.LastError = msg.Err.Message
			if msg.Err.Err != nil {
				m.LastError = fmt.Sprintf("%s: %v", msg.Err.Message, msg.Err.Err)
			}
		}
		m.StatusText = m.ErrorTitle
		return m, nil

	case spinner.TickMsg:
		if m.State != StateConverting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case noticeTimeoutMsg:
		if msg.seq == m.noticeSeq {
			m.Notice = ""
		}
		return m, nil

	case StatusCheckMsg:
		m.BackendOnline = msg.BackendOnline
		m.statusChecked = msg.Checked
		if !msg.Checked {
			return m, nil
		}
		return m, scheduleStatusRecheck()

	case statusCheckTickMsg:
		return m, m.statusCheckCmd()

	case DebugLogMsg:
		m.DebugEntries = append(m.DebugEntries, msg.Entry)
		if len(m.DebugEntries) > maxDebugLines {
			m.DebugEntries = m.DebugEntries[len(m.DebugEntries)-maxDebugLines:]
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if m.State == StateConverting {
			m.cancel()
		}
		return m, tea.Quit

	case "enter":
		if m.State == StateConverting {
			return m, nil
		}
		return m.start()

	case "esc", "ctrl+x":
		if m.State != StateConverting {
			return m, nil
		}
		m.cancel()
		return m, nil

	case "ctrl+l":
		next := config.NextLanguage(m.Config.Language)
		if err := m.Config.SetLanguage(next); err != nil {
			m.Logger.Printf("config: %v", err)
			return m, nil
		}
		m.persistConfig()
		return m.notify("Language: " + config.LanguageName(next))

	case "ctrl+t":
		t := NextTheme(m.Config.Theme)
		applyTheme(t)
		m.progress = newProgressBar()
		m.spinner.Style = spinnerStyle
		m.Config.Theme = strings.ToLower(t.Name)
		m.persistConfig()
		return m.notify("Theme: " + t.Name)

	case "ctrl+y":
		if m.Outcome == nil || m.Outcome.Text == "" {
			return m, nil
		}
		if err := m.copyText(m.Outcome.Text); err != nil {
			m.Logger.Printf("clipboard: copy failed: %v", err)
			return m.notify("Copy failed: " + err.Error())
		}
		m.Logger.Printf("clipboard: copied %d chars", len(m.Outcome.Text))
		return m.notify("Copied to clipboard")

	case "ctrl+s":
		if m.Outcome == nil || m.Outcome.Text == "" {
			return m, nil
		}
		dest := TranscriptPath(m.SourcePath)
		if err := m.writeFile(dest, []byte(m.Outcome.Text+"\n"), 0o644); err != nil {
			m.Logger.Printf("pipeline: save transcript: %v", err)
			return m.notify("Save failed: " + err.Error())
		}
		return m.notify("Saved " + dest)

	case "ctrl+h":
		m.ShowHistory = !m.ShowHistory
		if m.ShowHistory {
			m.clampCursor()
		}
		return m, nil

	case "up":
		if m.ShowHistory && m.HistoryCursor > 0 {
			m.HistoryCursor--
		}
		return m, nil

	case "down":
		if m.ShowHistory && m.History != nil && m.HistoryCursor < m.History.Len()-1 {
			m.HistoryCursor++
		}
		return m, nil

	case "ctrl+r":
		if !m.ShowHistory || m.History == nil || m.State == StateConverting {
			return m, nil
		}
		e, ok := m.History.Get(m.HistoryCursor)
		if !ok {
			return m, nil
		}
		m.restore(e)
		return m, nil

	case "ctrl+d":
		if m.History == nil || m.History.Len() == 0 {
			return m, nil
		}
		if err := m.History.Clear(); err != nil {
			m.Logger.Printf("history: clear: %v", err)
			return m.notify("Could not clear history: " + err.Error())
		}
		m.HistoryCursor = 0
		return m.notify("History cleared")
	}

	if m.State == StateConverting {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) start() (tea.Model, tea.Cmd) {
	path := expandHome(strings.TrimSpace(m.input.Value()))
	req := pipeline.Request{
		SourcePath: path,
		Language:   m.Config.Language,
		WorkDir:    m.Config.TempRoot(),
	}
	h, err := m.Converter.Start(req, m.Bridge)
	if err != nil {
		m.State = StateError
		m.ErrorTitle = "Conversion not started"
		m.LastError = err.Error()
		if errors.Is(err, pipeline.ErrRunActive) {
			m.LastError = "a conversion is already running"
		}
		return m, nil
	}

	m.runID = h.ID
	m.State = StateConverting
	m.Percent = 0
	m.StatusText = "Starting conversion"
	m.LastError = ""
	m.ErrorTitle = ""
	m.Outcome = nil
	m.SourcePath = path
	m.Logger.Printf("pipeline: started run %s for %s (%s)", h.ID, path, m.Config.Language)
	return m, m.spinner.Tick
}

// cancel stops the current run. Its remaining messages are dropped because
// the run ID is cleared.
func (m *Model) cancel() {
	if err := m.Converter.Cancel(); err != nil && !errors.Is(err, pipeline.ErrNoActiveRun) {
		m.Logger.Printf("pipeline: cancel: %v", err)
	}
	m.runID = ""
	m.State = StateIdle
	m.Percent = 0
	m.StatusText = pipeline.CancelledStatus
}

func (m Model) complete(o pipeline.Outcome) (tea.Model, tea.Cmd) {
	m.runID = ""
	m.State = StateDone
	m.Percent = 100
	m.Outcome = &o
	m.StatusText = "Conversion complete"
	if o.NoSpeech {
		m.StatusText = "No speech detected"
	}

	if m.Config.MaxDurationSec > 0 && o.Duration > time.Duration(m.Config.MaxDurationSec)*time.Second {
		m.StatusText = fmt.Sprintf("%s (clip exceeds the %ds maximum)", m.StatusText, m.Config.MaxDurationSec)
	}

	if m.Config.AutoSave && m.History != nil && !o.NoSpeech {
		if err := m.History.Add(m.SourcePath, o.Text, o.Duration, o.LanguageLabel(), o.Confidence); err != nil {
			m.Logger.Printf("history: append: %v", err)
		}
	}

	if dir := filepath.Dir(m.SourcePath); dir != "" && dir != "." {
		m.Config.LastPath = dir
		m.persistConfig()
	}
	return m, nil
}

func (m *Model) restore(e history.Entry) {
	m.State = StateDone
	m.Percent = 100
	m.SourcePath = e.Filename
	m.Outcome = &pipeline.Outcome{
		Text:              e.FullText,
		Duration:          time.Duration(e.DurationSec * float64(time.Second)),
		DetectedLanguages: splitLanguages(e.Language),
		Confidence:        e.Confidence,
		WordCount:         len(strings.Fields(e.FullText)),
	}
	m.StatusText = "Restored " + e.Filename
	m.input.SetValue(e.Filename)
	m.input.CursorEnd()
}

func (m *Model) clampCursor() {
	n := 0
	if m.History != nil {
		n = m.History.Len()
	}
	if m.HistoryCursor >= n {
		m.HistoryCursor = n - 1
	}
	if m.HistoryCursor < 0 {
		m.HistoryCursor = 0
	}
}

func (m *Model) persistConfig() {
	if m.ConfigPath == "" {
		return
	}
	if err := config.Save(m.ConfigPath, m.Config); err != nil {
		m.Logger.Printf("config: save: %v", err)
	}
}

const noticeDuration = 3 * time.Second

func (m Model) notify(text string) (tea.Model, tea.Cmd) {
	m.noticeSeq++
	m.Notice = text
	seq := m.noticeSeq
	return m, tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return noticeTimeoutMsg{seq: seq}
	})
}

const statusRecheckInterval = 30 * time.Second

func (m Model) statusCheckCmd() tea.Cmd {
	hc, ok := m.Backend.(transcriber.HealthChecker)
	if !ok {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return StatusCheckMsg{Checked: true, BackendOnline: hc.Ping(ctx) == nil}
	}
}

func scheduleStatusRecheck() tea.Cmd {
	return tea.Tick(statusRecheckInterval, func(time.Time) tea.Msg {
		return statusCheckTickMsg{}
	})
}

// TranscriptPath returns the .txt file a transcript of source is saved to.
func TranscriptPath(source string) string {
	if source == "" {
		return "transcript.txt"
	}
	return strings.TrimSuffix(source, filepath.Ext(source)) + ".txt"
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func withTrailingSep(dir string) string {
	if strings.HasSuffix(dir, string(filepath.Separator)) {
		return dir
	}
	return dir + string(filepath.Separator)
}

func splitLanguages(label string) []string {
	if label == "" || label == pipeline.UnknownLanguage {
		return nil
	}
	parts := strings.Split(label, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
