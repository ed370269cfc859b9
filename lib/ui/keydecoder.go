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

package ui

import (
	"github.com/gravitational/trace"

	tea "github.com/charmbracelet/bubbletea"
)

// escState tracks a partially-received ANSI escape sequence across
// calls to KeyDecoder.Feed, since the data hook delivers bytes one
// keystroke at a time and an arrow key arrives as three bytes.
type escState int

const (
	escNone escState = iota
	escStarted       // saw 0x1B
	escBracket       // saw 0x1B '['
)

// KeyDecoder turns the raw bytes of the "any other nonempty input"
// branch of the data dispatch into tea.KeyMsg events for the textarea.
// A payload that is exactly Ctrl-C, Enter, or Alt-Enter is handled
// earlier in the data dispatch and never reaches the decoder; inside a
// longer payload, 0x03 and 0x0D are reported as unparseable control
// bytes.
type KeyDecoder struct {
	state escState
}

// Feed consumes one byte and returns a decoded key event, if any byte
// sequence completed. ok is false while an escape sequence is still
// accumulating. An unparseable escape sequence is reported as an error
// so the caller can log a warning and continue, per spec.
func (d *KeyDecoder) Feed(b byte) (tea.KeyMsg, bool, error) {
	switch d.state {
	case escStarted:
		if b == '[' {
			d.state = escBracket
			return tea.KeyMsg{}, false, nil
		}
		d.state = escNone
		return tea.KeyMsg{}, false, trace.BadParameter("unsupported escape sequence byte %q", b)

	case escBracket:
		d.state = escNone
		switch b {
		case 'A':
			return tea.KeyMsg{Type: tea.KeyUp}, true, nil
		case 'B':
			return tea.KeyMsg{Type: tea.KeyDown}, true, nil
		case 'C':
			return tea.KeyMsg{Type: tea.KeyRight}, true, nil
		case 'D':
			return tea.KeyMsg{Type: tea.KeyLeft}, true, nil
		default:
			return tea.KeyMsg{}, false, trace.BadParameter("unsupported escape sequence byte %q", b)
		}
	}

	switch b {
	case 0x1B:
		d.state = escStarted
		return tea.KeyMsg{}, false, nil
	case 0x7F, 0x08:
		return tea.KeyMsg{Type: tea.KeyBackspace}, true, nil
	case 0x09:
		return tea.KeyMsg{Type: tea.KeyTab}, true, nil
	default:
		if b < 0x20 {
			return tea.KeyMsg{}, false, trace.BadParameter("unparseable control byte %#x", b)
		}
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{rune(b)}}, true, nil
	}
}
