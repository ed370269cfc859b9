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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sshlounge/lounge/lib/chat"
	"github.com/sshlounge/lounge/lib/identity"
)

func TestNewTerminalDefaults(t *testing.T) {
	term := NewTerminal("[alice normal]")
	require.Equal(t, "", term.Value())
	require.Equal(t, "", term.Statusline())
}

func TestResizeChangesLayout(t *testing.T) {
	term := NewTerminal("[alice normal]")
	term.Resize(40, 10)
	require.Equal(t, 40, term.cols)
	require.Equal(t, 10, term.rows)
}

func TestSetStatuslineRoundTrip(t *testing.T) {
	term := NewTerminal("[alice normal]")
	term.SetStatusline("cannot ban your own entity")
	require.Equal(t, "cannot ban your own entity", term.Statusline())
}

func TestClearEmptiesTextarea(t *testing.T) {
	term := NewTerminal("[alice normal]")
	msg, ok, err := (&KeyDecoder{}).Feed('h')
	require.NoError(t, err)
	require.True(t, ok)
	term.HandleKey(msg)
	require.NotEmpty(t, term.Value())

	term.Clear()
	require.Empty(t, term.Value())
}

func TestFrameIncludesClearScreenAndTitle(t *testing.T) {
	term := NewTerminal("[alice normal]")
	frame := term.Frame(nil, 1)
	require.True(t, strings.HasPrefix(string(frame), "\x1b[2J\x1b[H"))
	require.Contains(t, string(frame), "[alice normal]")
}

func TestFrameHidesDossierFromOtherViewers(t *testing.T) {
	term := NewTerminal("[root admin]")
	history := []chat.Message{
		{Kind: chat.KindDossier, Contents: "name: root\nrole: admin", RequestedBy: 1},
	}

	forRequester := string(term.Frame(history, 1))
	forOther := string(term.Frame(history, 2))

	require.Contains(t, forRequester, "name: root")
	require.NotContains(t, forOther, "name: root")
}

func TestFrameRendersAnnounceWithLivePersona(t *testing.T) {
	term := NewTerminal("[alice normal]")
	p := identity.NewPersona("alice", identity.Normal)
	history := []chat.Message{
		{Kind: chat.KindAnnounce, Action: chat.Joined, Persona: p},
	}
	frame := string(term.Frame(history, 0))
	require.Contains(t, frame, "alice has joined the chat")

	p.SetName("alicia")
	frame = string(term.Frame(history, 0))
	require.Contains(t, frame, "alicia has joined the chat")
}
