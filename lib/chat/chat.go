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

// Package chat holds the bounded message log and the message tagged
// union it carries.
package chat

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/sshlounge/lounge/lib/identity"
)

// Announcement distinguishes join/leave variants of an Announce message.
type Announcement int

const (
	Joined Announcement = iota
	Left
)

// Kind identifies which Message variant is populated.
type Kind int

const (
	KindAnnounce Kind = iota
	KindPlain
	KindDossier
)

// Message is a tagged union: Announce, Plain, or Dossier. Only the
// fields matching Kind are meaningful.
type Message struct {
	Kind Kind

	// Announce
	Action  Announcement
	Persona *identity.Persona

	// Plain
	Text string

	// Dossier
	Contents    string
	RequestedBy uint64
}

var (
	announceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))  // green
	dossierStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // light cyan
)

// Render produces the styled text of a message as seen by viewer. A
// Dossier is rendered only for the connection id that requested it;
// every other viewer sees an empty string and should skip the line.
func (m Message) Render(viewer uint64) string {
	switch m.Kind {
	case KindAnnounce:
		name := m.Persona.Name()
		role := m.Persona.Role()
		var text string
		if m.Action == Joined {
			text = fmt.Sprintf("%s has joined the chat with %s privileges", name, role)
		} else {
			text = fmt.Sprintf("%s with %s privileges has left the chat", name, role)
		}
		return announceStyle.Render(text)
	case KindDossier:
		if m.RequestedBy != viewer {
			return ""
		}
		return dossierStyle.Render(m.Contents)
	default:
		return m.Text
	}
}

// Visible reports whether the message should appear at all for viewer
// (used to skip Dossier lines entirely rather than render an empty
// line for the wrong audience).
func (m Message) Visible(viewer uint64) bool {
	return m.Kind != KindDossier || m.RequestedBy == viewer
}

// History is a bounded ring buffer of messages. Appending past capacity
// drops the oldest entry.
type History struct {
	mu       sync.RWMutex
	buf      []Message
	capacity int
	start    int // index of the oldest element
	size     int
}

// NewHistory builds a history with the given capacity (default 128 per
// --history-size).
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 128
	}
	return &History{buf: make([]Message, capacity), capacity: capacity}
}

// Append adds m, evicting the oldest message if the buffer is full.
func (h *History) Append(m Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	idx := (h.start + h.size) % h.capacity
	h.buf[idx] = m
	if h.size < h.capacity {
		h.size++
	} else {
		h.start = (h.start + 1) % h.capacity
	}
}

// Snapshot returns the current messages in chronological order, oldest
// first. Callers that need newest-first (per §4.H rendering) reverse
// the returned slice themselves.
func (h *History) Snapshot() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Message, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.buf[(h.start+i)%h.capacity]
	}
	return out
}

// SnapshotForViewer returns the chronological snapshot filtered to what
// viewer is allowed to see, with Dossier lines hidden from everyone
// else.
func (h *History) SnapshotForViewer(viewer uint64) []Message {
	all := h.Snapshot()
	out := make([]Message, 0, len(all))
	for _, m := range all {
		if m.Visible(viewer) {
			out = append(out, m)
		}
	}
	return out
}
