/*
Copyright 2026 The Lounge Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package ui composes the server-rendered frame (history, textarea,
// statusline) and decodes raw keystroke bytes into editor events. It
// wraps bubbles/textarea and lipgloss as bare components driven
// directly by the session handlers rather than through a tea.Program
// event loop, since renders here are dispatched explicitly by server
// events, not on a continuous loop.
package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sshlounge/lounge/lib/chat"
)

const (
	textareaHeight  = 4
	statuslineHeight = 1
	minHistoryHeight = 1
)

var (
	borderStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	defaultCols    = 80
	defaultRows    = 24
)

// Terminal is the per-client rendering surface: a bordered textarea
// titled with the entity's persona, a statusline, and the viewport
// dimensions negotiated over pty-req/window-change.
type Terminal struct {
	area       textarea.Model
	title      string
	statusline string
	cols, rows int
}

// NewTerminal builds a terminal bordered with title, initially sized to
// a conservative default until the first pty-req arrives.
func NewTerminal(title string) *Terminal {
	area := textarea.New()
	area.ShowLineNumbers = false
	area.Focus()
	t := &Terminal{area: area, title: title, cols: defaultCols, rows: defaultRows}
	t.layout()
	return t
}

// SetTitle updates the bordered title, used after a /rename so every
// live session under the renamed entity reflects the new persona.
func (t *Terminal) SetTitle(title string) {
	t.title = title
}

// SetStatusline sets the single-row error/status display.
func (t *Terminal) SetStatusline(s string) {
	t.statusline = s
}

// Statusline returns the current single-row error/status display.
func (t *Terminal) Statusline() string {
	return t.statusline
}

// Resize updates the viewport to cols x rows, as negotiated by
// pty-req/window-change.
func (t *Terminal) Resize(cols, rows int) {
	t.cols, t.rows = cols, rows
	t.layout()
}

func (t *Terminal) layout() {
	w := t.cols - 2 // account for the rounded border
	if w < 1 {
		w = 1
	}
	t.area.SetWidth(w)
	t.area.SetHeight(textareaHeight - 3) // rounded border (2 rows) and title row
}

// HandleKey delivers one decoded keyboard event to the textarea.
func (t *Terminal) HandleKey(msg tea.KeyMsg) {
	var cmd tea.Cmd
	t.area, cmd = t.area.Update(msg)
	_ = cmd
}

// InsertNewline inserts a literal newline, used for Alt-Enter.
func (t *Terminal) InsertNewline() {
	t.HandleKey(tea.KeyMsg{Type: tea.KeyEnter})
}

// Value returns the textarea's current contents.
func (t *Terminal) Value() string {
	return t.area.Value()
}

// Clear empties the textarea, called after the contents are sent.
func (t *Terminal) Clear() {
	t.area.Reset()
}

// historyHeight returns how many rows remain for the message history
// region after the textarea and statusline take their fixed share.
func (t *Terminal) historyHeight() int {
	h := t.rows - textareaHeight - statuslineHeight
	if h < minHistoryHeight {
		h = minHistoryHeight
	}
	return h
}

// Frame composes the full screen for viewer: history newest-first at
// top, the bordered textarea, then the statusline. It is returned as
// raw bytes including a clear-screen + home-cursor prefix, ready for
// the output pump.
func (t *Terminal) Frame(history []chat.Message, viewer uint64) []byte {
	lines := make([]string, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		if !m.Visible(viewer) {
			continue
		}
		lines = append(lines, m.Render(viewer))
	}

	historyHeight := t.historyHeight()
	if len(lines) > historyHeight {
		lines = lines[:historyHeight]
	}
	historyBlock := lipgloss.NewStyle().
		Width(t.cols).
		Height(historyHeight).
		Render(strings.Join(lines, "\n"))

	textareaBlock := borderStyle.
		Width(t.cols - 2).
		Render(t.title + "\n" + t.area.View())

	statusBlock := statusStyle.Width(t.cols).Render(t.statusline)

	body := lipgloss.JoinVertical(lipgloss.Left, historyBlock, textareaBlock, statusBlock)

	var b strings.Builder
	b.WriteString("\x1b[2J\x1b[H")
	b.WriteString(body)
	return []byte(b.String())
}
