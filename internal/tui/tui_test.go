package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Danondso/audiotext/internal/config"
	"github.com/Danondso/audiotext/internal/history"
	"github.com/Danondso/audiotext/internal/pipeline"
	"github.com/Danondso/audiotext/internal/transcriber"
)

// stubConverter implements Converter for testing.
type stubConverter struct {
	requests []pipeline.Request
	cancels  int
	err      error
	nextID   int
}

func (s *stubConverter) Start(req pipeline.Request, _ pipeline.Observer) (*pipeline.Handle, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.requests = append(s.requests, req)
	s.nextID++
	return &pipeline.Handle{ID: fmt.Sprintf("run-%d", s.nextID)}, nil
}

func (s *stubConverter) Cancel() error {
	s.cancels++
	return nil
}

// pingTranscriber implements transcriber.Transcriber and HealthChecker.
type pingTranscriber struct {
	err error
}

func (p *pingTranscriber) Transcribe(context.Context, []byte, string) (transcriber.Result, error) {
	return transcriber.Result{}, nil
}

func (p *pingTranscriber) Ping(context.Context) error {
	return p.err
}

type testEnv struct {
	dir        string
	configPath string
	conv       *stubConverter
	store      *history.Store
}

func newTestModel(t *testing.T) (Model, *testEnv) {
	t.Helper()
	dir := t.TempDir()
	logger := log.New(io.Discard, "", 0)

	store, err := history.Load(filepath.Join(dir, "history.toml"), logger)
	if err != nil {
		t.Fatal(err)
	}
	env := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.toml"),
		conv:       &stubConverter{},
		store:      store,
	}

	cfg := config.Default()
	cfg.LastPath = dir
	m := NewModel(cfg, env.configPath, store, env.conv, NewBridge(), nil, "", logger, false)
	return m, env
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+d":
		return tea.KeyMsg{Type: tea.KeyCtrlD}
	case "ctrl+h":
		return tea.KeyMsg{Type: tea.KeyCtrlH}
	case "ctrl+l":
		return tea.KeyMsg{Type: tea.KeyCtrlL}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	case "ctrl+y":
		return tea.KeyMsg{Type: tea.KeyCtrlY}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

// startRun types path into the input and presses enter.
func startRun(t *testing.T, m Model, path string) Model {
	t.Helper()
	m.input.SetValue(path)
	m, cmd := update(t, m, key("enter"))
	if m.State != StateConverting {
		t.Fatalf("expected StateConverting, got %d", m.State)
	}
	if cmd == nil {
		t.Error("expected spinner tick command")
	}
	return m
}

func sampleOutcome(text string) pipeline.Outcome {
	return pipeline.Outcome{
		Text:              text,
		Duration:          90 * time.Second,
		DetectedLanguages: []string{"en"},
		Language:          "en-US",
		Confidence:        0.9,
		ProcessingTime:    2 * time.Second,
		WordCount:         2,
	}
}

func TestInitialState(t *testing.T) {
	m, env := newTestModel(t)
	if m.State != StateIdle {
		t.Errorf("expected StateIdle, got %d", m.State)
	}
	if m.Outcome != nil {
		t.Error("expected no transcript")
	}
	want := env.dir + string(filepath.Separator)
	if m.input.Value() != want {
		t.Errorf("expected input prefilled with %q, got %q", want, m.input.Value())
	}
}

func TestInitialPathOverridesLastPath(t *testing.T) {
	cfg := config.Default()
	m := NewModel(cfg, "", nil, &stubConverter{}, nil, nil, "/tmp/a.mp3", log.New(io.Discard, "", 0), false)
	if m.input.Value() != "/tmp/a.mp3" {
		t.Errorf("expected /tmp/a.mp3, got %q", m.input.Value())
	}
}

func TestEnterStartsConversion(t *testing.T) {
	m, env := newTestModel(t)
	m.Config.Language = "fr-FR"
	m.Config.WorkDir = "/var/tmp/x"
	m = startRun(t, m, "  /music/song.mp3 ")

	if len(env.conv.requests) != 1 {
		t.Fatalf("expected 1 start, got %d", len(env.conv.requests))
	}
	req := env.conv.requests[0]
	if req.SourcePath != "/music/song.mp3" {
		t.Errorf("expected trimmed path, got %q", req.SourcePath)
	}
	if req.Language != "fr-FR" || req.WorkDir != "/var/tmp/x" {
		t.Errorf("unexpected request %+v", req)
	}
	if m.runID != "run-1" {
		t.Errorf("expected run-1, got %q", m.runID)
	}
	if m.Percent != 0 {
		t.Errorf("expected progress reset, got %d", m.Percent)
	}
}

func TestEnterWithoutWorkDirUsesSystemTemp(t *testing.T) {
	m, env := newTestModel(t)
	m.Config.WorkDir = ""
	m = startRun(t, m, "/music/song.mp3")

	if len(env.conv.requests) != 1 {
		t.Fatalf("expected 1 start, got %d", len(env.conv.requests))
	}
	if got := env.conv.requests[0].WorkDir; got != os.TempDir() {
		t.Errorf("expected work dir %s, got %q", os.TempDir(), got)
	}
}

func TestEnterIgnoredWhileConverting(t *testing.T) {
	m, env := newTestModel(t)
	m = startRun(t, m, "/a.wav")
	m, _ = update(t, m, key("enter"))
	if len(env.conv.requests) != 1 {
		t.Errorf("expected second enter to be ignored, got %d starts", len(env.conv.requests))
	}
}

func TestStartErrorShowsError(t *testing.T) {
	m, env := newTestModel(t)
	env.conv.err = pipeline.ErrRunActive
	m.input.SetValue("/a.wav")
	m, _ = update(t, m, key("enter"))
	if m.State != StateError {
		t.Fatalf("expected StateError, got %d", m.State)
	}
	if m.LastError != "a conversion is already running" {
		t.Errorf("unexpected error text %q", m.LastError)
	}
}

func TestProgressAndStatusForCurrentRun(t *testing.T) {
	m, _ := newTestModel(t)
	m = startRun(t, m, "/a.wav")

	m, _ = update(t, m, ProgressMsg{RunID: "run-1", Percent: 40})
	m, _ = update(t, m, StatusMsg{RunID: "run-1", Text: "Transcribing audio"})
	if m.Percent != 40 {
		t.Errorf("expected 40, got %d", m.Percent)
	}
	if m.StatusText != "Transcribing audio" {
		t.Errorf("unexpected status %q", m.StatusText)
	}

	m, _ = update(t, m, ProgressMsg{RunID: "other", Percent: 90})
	m, _ = update(t, m, StatusMsg{RunID: "other", Text: "stale"})
	if m.Percent != 40 || m.StatusText != "Transcribing audio" {
		t.Errorf("stale run messages should be dropped, got %d %q", m.Percent, m.StatusText)
	}
}

func TestCompletedRecordsHistoryAndConfig(t *testing.T) {
	m, env := newTestModel(t)
	src := filepath.Join(env.dir, "clips", "talk.mp3")
	m = startRun(t, m, src)

	m, _ = update(t, m, CompletedMsg{RunID: "run-1", Outcome: sampleOutcome("hello world")})
	if m.State != StateDone {
		t.Fatalf("expected StateDone, got %d", m.State)
	}
	if m.Outcome == nil || m.Outcome.Text != "hello world" {
		t.Fatalf("unexpected outcome %+v", m.Outcome)
	}
	if m.Percent != 100 {
		t.Errorf("expected 100, got %d", m.Percent)
	}

	if env.store.Len() != 1 {
		t.Fatalf("expected 1 history entry, got %d", env.store.Len())
	}
	e, _ := env.store.Get(0)
	if e.Filename != "talk.mp3" || e.Language != "en" {
		t.Errorf("unexpected entry %+v", e)
	}

	saved, err := config.Load(env.configPath)
	if err != nil {
		t.Fatal(err)
	}
	if saved.LastPath != filepath.Join(env.dir, "clips") {
		t.Errorf("expected last path persisted, got %q", saved.LastPath)
	}
}

func TestCompletedWithoutAutoSave(t *testing.T) {
	m, env := newTestModel(t)
	m.Config.AutoSave = false
	m = startRun(t, m, "/a.wav")
	m, _ = update(t, m, CompletedMsg{RunID: "run-1", Outcome: sampleOutcome("hi there")})
	if env.store.Len() != 0 {
		t.Errorf("expected no history entry, got %d", env.store.Len())
	}
}

func TestNoSpeechNotRecorded(t *testing.T) {
	m, env := newTestModel(t)
	m = startRun(t, m, "/a.wav")
	o := pipeline.Outcome{Text: "No text could be extracted from the audio", NoSpeech: true}
	m, _ = update(t, m, CompletedMsg{RunID: "run-1", Outcome: o})
	if m.StatusText != "No speech detected" {
		t.Errorf("unexpected status %q", m.StatusText)
	}
	if env.store.Len() != 0 {
		t.Errorf("placeholder should not be recorded, got %d entries", env.store.Len())
	}
}

func TestFailedTransition(t *testing.T) {
	m, _ := newTestModel(t)
	m = startRun(t, m, "/a.wav")
	m, _ = update(t, m, ProgressMsg{RunID: "run-1", Percent: 40})

	cerr := &pipeline.ConversionError{
		Kind:    pipeline.KindServiceUnavailable,
		Title:   "Service unavailable",
		Message: "The recognition service could not be reached",
		Err:     errors.New("connection refused"),
	}
	m, _ = update(t, m, FailedMsg{RunID: "run-1", Err: cerr})
	if m.State != StateError {
		t.Fatalf("expected StateError, got %d", m.State)
	}
	if m.ErrorTitle != "Service unavailable" {
		t.Errorf("unexpected title %q", m.ErrorTitle)
	}
	if m.LastError != "The recognition service could not be reached: connection refused" {
		t.Errorf("unexpected message %q", m.LastError)
	}
	if m.Percent != 0 {
		t.Errorf("expected progress reset, got %d", m.Percent)
	}
	if !contains(m.View(), "Service unavailable") {
		t.Error("expected view to show the error title")
	}
}

func TestCancelDiscardsLateResult(t *testing.T) {
	for _, k := range []string{"esc", "ctrl+x"} {
		t.Run(k, func(t *testing.T) {
			m, env := newTestModel(t)
			m = startRun(t, m, "/a.wav")
			m, _ = update(t, m, ProgressMsg{RunID: "run-1", Percent: 60})

			m, _ = update(t, m, key(k))
			if env.conv.cancels != 1 {
				t.Fatalf("expected 1 cancel, got %d", env.conv.cancels)
			}
			if m.State != StateIdle || m.Percent != 0 {
				t.Errorf("expected idle at 0%%, got %d at %d%%", m.State, m.Percent)
			}
			if m.StatusText != pipeline.CancelledStatus {
				t.Errorf("unexpected status %q", m.StatusText)
			}

			m, _ = update(t, m, CompletedMsg{RunID: "run-1", Outcome: sampleOutcome("late")})
			if m.Outcome != nil || m.State != StateIdle {
				t.Error("late result after cancel should be discarded")
			}
			if env.store.Len() != 0 {
				t.Error("late result should not reach history")
			}
		})
	}
}

func TestEscWhenIdleDoesNothing(t *testing.T) {
	m, env := newTestModel(t)
	m, _ = update(t, m, key("esc"))
	if env.conv.cancels != 0 {
		t.Errorf("expected no cancel, got %d", env.conv.cancels)
	}
}

func TestCtrlCCancelsAndQuits(t *testing.T) {
	m, env := newTestModel(t)
	m = startRun(t, m, "/a.wav")
	_, cmd := update(t, m, key("ctrl+c"))
	if env.conv.cancels != 1 {
		t.Errorf("expected cancel on quit, got %d", env.conv.cancels)
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestLanguageCyclePersists(t *testing.T) {
	m, env := newTestModel(t)
	m, cmd := update(t, m, key("ctrl+l"))
	if m.Config.Language != "en-US" {
		t.Errorf("expected en-US after es-ES, got %s", m.Config.Language)
	}
	if cmd == nil {
		t.Error("expected notice timeout command")
	}
	if m.Notice != "Language: English" {
		t.Errorf("unexpected notice %q", m.Notice)
	}
	saved, err := config.Load(env.configPath)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Language != "en-US" {
		t.Errorf("expected persisted en-US, got %s", saved.Language)
	}
}

func TestThemeCyclePersists(t *testing.T) {
	m, env := newTestModel(t)
	m, _ = update(t, m, key("ctrl+t"))
	if m.Config.Theme != "everforest" {
		t.Errorf("expected everforest, got %s", m.Config.Theme)
	}
	saved, err := config.Load(env.configPath)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Theme != "everforest" {
		t.Errorf("expected persisted theme, got %s", saved.Theme)
	}
	applyTheme(LoadTheme("synthwave"))
}

func TestNoticeTimeout(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, key("ctrl+l"))
	m, _ = update(t, m, key("ctrl+l"))
	m, _ = update(t, m, noticeTimeoutMsg{seq: 1})
	if m.Notice == "" {
		t.Error("older notice timeout should not clear a newer notice")
	}
	m, _ = update(t, m, noticeTimeoutMsg{seq: 2})
	if m.Notice != "" {
		t.Errorf("expected notice cleared, got %q", m.Notice)
	}
}

func TestCopyTranscript(t *testing.T) {
	m, _ := newTestModel(t)
	var copied string
	m.copyText = func(s string) error {
		copied = s
		return nil
	}

	m, _ = update(t, m, key("ctrl+y"))
	if copied != "" {
		t.Error("expected nothing copied without a transcript")
	}

	m = startRun(t, m, "/a.wav")
	m, _ = update(t, m, CompletedMsg{RunID: "run-1", Outcome: sampleOutcome("hello world")})
	m, _ = update(t, m, key("ctrl+y"))
	if copied != "hello world" {
		t.Errorf("expected transcript copied, got %q", copied)
	}
	if m.Notice != "Copied to clipboard" {
		t.Errorf("unexpected notice %q", m.Notice)
	}

	m.copyText = func(string) error { return errors.New("no clipboard") }
	m, _ = update(t, m, key("ctrl+y"))
	if m.Notice != "Copy failed: no clipboard" {
		t.Errorf("unexpected notice %q", m.Notice)
	}
}

func TestSaveTranscript(t *testing.T) {
	m, env := newTestModel(t)
	src := filepath.Join(env.dir, "talk.m4a")
	m = startRun(t, m, src)
	m, _ = update(t, m, CompletedMsg{RunID: "run-1", Outcome: sampleOutcome("hello world")})
	m, _ = update(t, m, key("ctrl+s"))

	data, err := os.ReadFile(filepath.Join(env.dir, "talk.txt"))
	if err != nil {
		t.Fatalf("expected transcript file: %v", err)
	}
	if string(data) != "hello world\n" {
		t.Errorf("unexpected file content %q", data)
	}
}

func TestHistoryNavigationAndRestore(t *testing.T) {
	m, env := newTestModel(t)
	for _, name := range []string{"one.wav", "two.wav", "three.wav"} {
		if err := env.store.Add(name, "text of "+name, 5*time.Second, "en", 0.8); err != nil {
			t.Fatal(err)
		}
	}

	m, _ = update(t, m, key("ctrl+h"))
	if !m.ShowHistory {
		t.Fatal("expected history panel shown")
	}
	view := m.View()
	if !contains(view, "three.wav") || !contains(view, "one.wav") {
		t.Error("expected history entries in view")
	}

	m, _ = update(t, m, key("down"))
	m, _ = update(t, m, key("down"))
	m, _ = update(t, m, key("down"))
	if m.HistoryCursor != 2 {
		t.Errorf("expected cursor clamped at 2, got %d", m.HistoryCursor)
	}
	m, _ = update(t, m, key("up"))
	if m.HistoryCursor != 1 {
		t.Errorf("expected cursor 1, got %d", m.HistoryCursor)
	}

	m, _ = update(t, m, key("ctrl+r"))
	if m.State != StateDone {
		t.Fatalf("expected StateDone after restore, got %d", m.State)
	}
	if m.Outcome.Text != "text of two.wav" {
		t.Errorf("unexpected restored text %q", m.Outcome.Text)
	}
	if m.Outcome.Duration != 5*time.Second {
		t.Errorf("unexpected restored duration %v", m.Outcome.Duration)
	}
	if m.Outcome.LanguageLabel() != "en" {
		t.Errorf("unexpected restored language %q", m.Outcome.LanguageLabel())
	}
}

func TestClearHistory(t *testing.T) {
	m, env := newTestModel(t)
	if err := env.store.Add("a.wav", "text", time.Second, "en", 1); err != nil {
		t.Fatal(err)
	}
	m, _ = update(t, m, key("ctrl+d"))
	if env.store.Len() != 0 {
		t.Errorf("expected empty history, got %d", env.store.Len())
	}
	if m.Notice != "History cleared" {
		t.Errorf("unexpected notice %q", m.Notice)
	}

	reloaded, err := history.Load(filepath.Join(env.dir, "history.toml"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Len() != 0 {
		t.Errorf("expected cleared history on disk, got %d", reloaded.Len())
	}
}

func TestTypingUpdatesInput(t *testing.T) {
	m, _ := newTestModel(t)
	m.input.SetValue("")
	m, _ = update(t, m, key("a"))
	m, _ = update(t, m, key("b"))
	if m.input.Value() != "ab" {
		t.Errorf("expected ab, got %q", m.input.Value())
	}

	m = startRun(t, m, "/a.wav")
	m, _ = update(t, m, key("z"))
	if m.input.Value() != "/a.wav" {
		t.Errorf("input should be locked while converting, got %q", m.input.Value())
	}
}

func TestViewContainsTitle(t *testing.T) {
	m, _ := newTestModel(t)
	view := m.View()
	if !contains(view, "AUDIOTEXT") {
		t.Error("expected view to contain 'AUDIOTEXT'")
	}
}

func TestViewShowsIdleBadge(t *testing.T) {
	m, _ := newTestModel(t)
	view := m.View()
	if !contains(view, "Idle") {
		t.Error("expected view to contain 'Idle'")
	}
}

func TestViewShowsTranscriptAndMetadata(t *testing.T) {
	m, _ := newTestModel(t)
	m = startRun(t, m, "/a.wav")
	m, _ = update(t, m, CompletedMsg{RunID: "run-1", Outcome: sampleOutcome("hello world")})
	view := m.View()
	for _, want := range []string{"hello world", "Duration: 1:30", "Confidence: 90%", "Words: 2", "Done"} {
		if !contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestStatusBarAppearsInView(t *testing.T) {
	m, _ := newTestModel(t)
	view := m.View()
	if !contains(view, "Spanish (es-ES)") {
		t.Error("expected view to show the selected language")
	}
	if !contains(view, "Backend:") {
		t.Error("expected view to contain 'Backend:' status indicator")
	}
}

func TestStatusCheckUsesHealthChecker(t *testing.T) {
	m, _ := newTestModel(t)
	if m.statusCheckCmd() != nil {
		t.Error("expected no status check without a health checker")
	}

	m.Backend = &pingTranscriber{}
	msg := m.statusCheckCmd()()
	sc, ok := msg.(StatusCheckMsg)
	if !ok || !sc.Checked || !sc.BackendOnline {
		t.Fatalf("unexpected status check result %+v", msg)
	}

	m.Backend = &pingTranscriber{err: errors.New("down")}
	sc = m.statusCheckCmd()().(StatusCheckMsg)
	if sc.BackendOnline {
		t.Error("expected backend offline")
	}

	updated, cmd := update(t, m, sc)
	if !updated.statusChecked || updated.BackendOnline {
		t.Error("expected checked offline backend")
	}
	if cmd == nil {
		t.Error("expected recheck schedule command")
	}
}

func TestDebugLogMsgAddsEntry(t *testing.T) {
	m, _ := newTestModel(t)
	entry := DebugEntry{Time: "11:00:00", Category: "pipeline", Message: "hello"}
	m, _ = update(t, m, DebugLogMsg{Entry: entry})
	if len(m.DebugEntries) != 1 {
		t.Fatalf("expected 1 debug entry, got %d", len(m.DebugEntries))
	}
	if m.DebugEntries[0].Message != "hello" {
		t.Errorf("expected 'hello', got %q", m.DebugEntries[0].Message)
	}
}

func TestDebugLogTruncatesToMax(t *testing.T) {
	m, _ := newTestModel(t)
	for i := 0; i < maxDebugLines+10; i++ {
		entry := DebugEntry{Time: "11:00:00", Category: "debug", Message: fmt.Sprintf("line %d", i)}
		m, _ = update(t, m, DebugLogMsg{Entry: entry})
	}
	if len(m.DebugEntries) != maxDebugLines {
		t.Errorf("expected %d debug entries, got %d", maxDebugLines, len(m.DebugEntries))
	}
	if m.DebugEntries[0].Message != "line 10" {
		t.Errorf("expected oldest message to be 'line 10', got %q", m.DebugEntries[0].Message)
	}
}

func TestViewShowsDebugPanel(t *testing.T) {
	m, _ := newTestModel(t)
	entry := DebugEntry{Time: "11:00:00", Category: "normalize", Message: "test message"}
	m, _ = update(t, m, DebugLogMsg{Entry: entry})
	view := m.View()
	if !contains(view, "Debug") {
		t.Error("expected view to contain 'Debug' panel title")
	}
	if !contains(view, "test message") {
		t.Error("expected view to contain debug message")
	}
}

func TestViewHidesDebugPanelWhenEmpty(t *testing.T) {
	m, _ := newTestModel(t)
	view := m.View()
	if contains(view, "Debug") {
		t.Error("expected view to NOT contain 'Debug' panel when no debug lines")
	}
}

func TestParseLineStructured(t *testing.T) {
	entry := parseLine("[DEBUG] 11:27:53.777842 normalize: beep decoded 48000 Hz")
	if entry.Time != "11:27:53.777842" {
		t.Errorf("expected time '11:27:53.777842', got %q", entry.Time)
	}
	if entry.Category != "normalize" {
		t.Errorf("expected category 'normalize', got %q", entry.Category)
	}
	if entry.Message != "normalize: beep decoded 48000 Hz" {
		t.Errorf("unexpected message %q", entry.Message)
	}
}

func TestInferCategory(t *testing.T) {
	cases := map[string]string{
		"pipeline: started run":      "pipeline",
		"transcribe google: 200":     "transcribe",
		"transcription pass 2":       "transcribe",
		"ffmpeg: exit status 1":      "normalize",
		"detect: es":                 "detect",
		"history: append":            "history",
		"config: save":               "config",
		"clipboard: copied 10 chars": "clipboard",
		"something else":             "debug",
	}
	for msg, want := range cases {
		if got, _ := inferCategory(msg); got != want {
			t.Errorf("inferCategory(%q) = %q, want %q", msg, got, want)
		}
	}
}

func TestBridgeForwardsEvents(t *testing.T) {
	b := NewBridge()
	b.Progress("r", 10) // dropped before attach

	var got []tea.Msg
	b.AttachFunc(func(msg tea.Msg) { got = append(got, msg) })

	var obs pipeline.Observer = b
	obs.Progress("r", 30)
	obs.Status("r", "Transcribing audio")
	obs.Completed("r", sampleOutcome("hi"))
	obs.Failed("r", &pipeline.ConversionError{Title: "x"})

	if len(got) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(got))
	}
	if p, ok := got[0].(ProgressMsg); !ok || p.Percent != 30 || p.RunID != "r" {
		t.Errorf("unexpected first message %#v", got[0])
	}
	if s, ok := got[1].(StatusMsg); !ok || s.Text != "Transcribing audio" {
		t.Errorf("unexpected second message %#v", got[1])
	}
	if _, ok := got[2].(CompletedMsg); !ok {
		t.Errorf("unexpected third message %#v", got[2])
	}
	if _, ok := got[3].(FailedMsg); !ok {
		t.Errorf("unexpected fourth message %#v", got[3])
	}
}

func TestTranscriptPath(t *testing.T) {
	cases := map[string]string{
		"/music/talk.mp3": "/music/talk.txt",
		"/music/talk":     "/music/talk.txt",
		"/a.b/c.tar.flac": "/a.b/c.tar.txt",
		"":                "transcript.txt",
	}
	for in, want := range cases {
		if got := TranscriptPath(in); got != want {
			t.Errorf("TranscriptPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestThemeCycle(t *testing.T) {
	names := ThemeNames()
	current := names[0]
	for i := 1; i <= len(names); i++ {
		next := NextTheme(current)
		want := LoadTheme(names[i%len(names)])
		if next.Name != want.Name {
			t.Errorf("NextTheme(%q): expected %q, got %q", current, want.Name, next.Name)
		}
		current = next.Name
	}
	if LoadTheme("nope").Name != "Synthwave" {
		t.Error("expected fallback to synthwave")
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && searchString(s, substr)
}

func searchString(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
