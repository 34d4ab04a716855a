package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Danondso/audiotext/internal/config"
)

// Styles, built by applyTheme.
var (
	titleStyle           lipgloss.Style
	borderStyle          lipgloss.Style
	labelStyle           lipgloss.Style
	transcriptStyle      lipgloss.Style
	hintStyle            lipgloss.Style
	dimStyle             lipgloss.Style
	noticeStyle          lipgloss.Style
	idleBadge            lipgloss.Style
	convertingBadge      lipgloss.Style
	doneBadge            lipgloss.Style
	errorBadge           lipgloss.Style
	bodyStyle            lipgloss.Style
	spinnerStyle         lipgloss.Style
	historySelectedStyle lipgloss.Style
	debugTitleStyle      lipgloss.Style
	debugRuleStyle       lipgloss.Style
	debugHeaderStyle     lipgloss.Style
	debugTimeStyle       lipgloss.Style
	debugCategoryStyle   lipgloss.Style
	debugMsgStyle        lipgloss.Style
	debugSepStyle        lipgloss.Style
	statusOkStyle        lipgloss.Style
	statusBadStyle       lipgloss.Style
)

func init() {
	applyTheme(current)
}

// panelWidth is the total outer width of the main panel.
// borderStyle has: border (1+1) = 2, padding (2+2) = 4, total chrome = 6.
// Width() in lipgloss sets width including padding but excluding border.
// So we pass panelWidth - 2 (border) to Width(), and the actual text area
// is panelWidth - 6 (border + padding).
const panelWidth = 80
const panelWidthForStyle = panelWidth - 2 // passed to borderStyle.Width()
const panelContentWidth = panelWidth - 6  // actual usable text area

const progressWidth = panelContentWidth - 6 // leaves room for " 100%"

// transcriptMaxLines caps the wrapped transcript shown in the panel.
const transcriptMaxLines = 12

// View renders the TUI.
func (m Model) View() string {
	var b strings.Builder

	titleText := "  AUDIOTEXT  "
	barTotal := panelContentWidth - len(titleText)
	barLeft := barTotal / 2
	barRight := barTotal - barLeft
	title := strings.Repeat("▓", barLeft) + titleText + strings.Repeat("▓", barRight)
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Audio file:"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Status:  "))
	b.WriteString(m.renderBadge())
	b.WriteString("\n")
	b.WriteString(m.progress.ViewAs(float64(m.Percent) / 100))
	b.WriteString(dimStyle.Render(fmt.Sprintf(" %3d%%", m.Percent)))
	if m.StatusText != "" {
		b.WriteString("\n")
		b.WriteString(bodyStyle.Render(m.StatusText))
	}
	if m.State == StateError && m.LastError != "" {
		b.WriteString("\n")
		b.WriteString(errorBadge.Width(panelContentWidth).Render(m.LastError))
	}
	b.WriteString("\n\n")

	if m.ShowHistory {
		b.WriteString(m.renderHistory())
	} else {
		b.WriteString(m.renderTranscript())
	}
	b.WriteString("\n\n")

	if m.Notice != "" {
		b.WriteString(noticeStyle.Render(m.Notice))
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render("enter convert · esc cancel · ctrl+l language · ctrl+t theme"))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("ctrl+y copy · ctrl+s save · ctrl+h history · ctrl+r restore · ctrl+d clear"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press ctrl+c to quit"))

	// Debug sub-panel (inside main panel)
	if m.DebugMode || len(m.DebugEntries) > 0 {
		b.WriteString("\n\n")
		b.WriteString(m.renderDebugPanel())
	}

	return borderStyle.Width(panelWidthForStyle).Render(b.String())
}

func (m Model) renderTranscript() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Transcript:"))
	b.WriteString("\n")
	if m.Outcome == nil {
		b.WriteString(dimStyle.Render("(none yet)"))
		return b.String()
	}

	text := m.Outcome.Text
	wrapped := transcriptStyle.Width(panelContentWidth).Render(text)
	lines := strings.Split(wrapped, "\n")
	if len(lines) > transcriptMaxLines {
		lines = append(lines[:transcriptMaxLines], dimStyle.Render("… (ctrl+y copies the full text)"))
	}
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(m.renderMetadata()))
	return b.String()
}

func (m Model) renderMetadata() string {
	o := m.Outcome
	parts := []string{
		"Duration: " + formatDuration(o.Duration),
		"Language: " + o.LanguageLabel(),
		fmt.Sprintf("Confidence: %.0f%%", o.Confidence*100),
	}
	if o.ProcessingTime > 0 {
		parts = append(parts, "Time: "+o.ProcessingTime.Round(100*time.Millisecond).String())
	}
	parts = append(parts, fmt.Sprintf("Words: %d", o.WordCount))
	return strings.Join(parts, "  ")
}

const historyMaxRows = 8

func (m Model) renderHistory() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("History:"))
	if m.History == nil || m.History.Len() == 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("(empty)"))
		return b.String()
	}

	entries := m.History.Entries()
	first := 0
	if m.HistoryCursor >= historyMaxRows {
		first = m.HistoryCursor - historyMaxRows + 1
	}
	last := min(first+historyMaxRows, len(entries))
	for i := first; i < last; i++ {
		e := entries[i]
		row := fmt.Sprintf("%s  %-20s  %s", e.Timestamp.Format("01-02 15:04"), truncate(e.Filename, 20), e.TextPreview)
		row = truncate(row, panelContentWidth-2)
		b.WriteString("\n")
		if i == m.HistoryCursor {
			b.WriteString(historySelectedStyle.Render("› " + row))
		} else {
			b.WriteString(bodyStyle.Render("  " + row))
		}
	}
	return b.String()
}

const debugPanelMaxLines = 5

// Debug table column widths. Row content must fit within panelContentWidth.
const (
	colTimeWidth     = 15
	colCategoryWidth = 10
	colSepWidth      = 3 // " │ "
	colMsgWidth      = panelContentWidth - colTimeWidth - colCategoryWidth - colSepWidth*2
)

func (m Model) renderDebugPanel() string {
	sep := debugSepStyle.Render(" │ ")
	rule := debugRuleStyle.Render(strings.Repeat("─", panelContentWidth))

	var db strings.Builder

	db.WriteString(debugTitleStyle.Render("Debug"))
	db.WriteString("\n")
	db.WriteString(rule)
	db.WriteString("\n")

	db.WriteString(
		debugHeaderStyle.Width(colTimeWidth).Render("TIME") +
			sep +
			debugHeaderStyle.Width(colCategoryWidth).Render("TYPE") +
			sep +
			debugHeaderStyle.Width(colMsgWidth).Render("MESSAGE"))
	db.WriteString("\n")
	db.WriteString(rule)

	entries := m.DebugEntries
	if len(entries) > debugPanelMaxLines {
		entries = entries[len(entries)-debugPanelMaxLines:]
	}
	for _, entry := range entries {
		timeStr := entry.Time
		if len(timeStr) > colTimeWidth {
			timeStr = timeStr[:colTimeWidth]
		}

		cat := entry.Category
		if len(cat) > colCategoryWidth {
			cat = cat[:colCategoryWidth]
		}

		msg := entry.Message
		if len(msg) > colMsgWidth {
			msg = msg[:colMsgWidth-3] + "..."
		}

		db.WriteString("\n")
		db.WriteString(
			debugTimeStyle.Width(colTimeWidth).Render(timeStr) +
				sep +
				debugCategoryStyle.Width(colCategoryWidth).Render(cat) +
				sep +
				debugMsgStyle.Width(colMsgWidth).Render(msg))
	}

	return db.String()
}

func (m Model) renderStatusBar() string {
	lang := dimStyle.Render("Language: ") + bodyStyle.Render(fmt.Sprintf("%s (%s)", config.LanguageName(m.Config.Language), m.Config.Language))

	provider := m.Config.Transcription.Provider
	if provider == "" {
		provider = "google"
	}
	backend := dimStyle.Render("  Backend: " + provider + " ")
	switch {
	case !m.statusChecked:
		backend += dimStyle.Render("·")
	case m.BackendOnline:
		backend += statusOkStyle.Render("✓")
	default:
		backend += statusBadStyle.Render("✗")
	}

	save := statusBadStyle.Render("off")
	if m.Config.AutoSave {
		save = statusOkStyle.Render("on")
	}
	return lang + backend + dimStyle.Render("  History: ") + save
}

func (m Model) renderBadge() string {
	switch m.State {
	case StateConverting:
		return m.spinner.View() + convertingBadge.Render(" Converting...")
	case StateDone:
		return doneBadge.Render("● Done")
	case StateError:
		title := m.ErrorTitle
		if title == "" {
			title = "Error"
		}
		return errorBadge.Render("● " + title)
	default:
		return idleBadge.Render("● Idle")
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "unknown"
	}
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
