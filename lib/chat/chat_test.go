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

package chat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sshlounge/lounge/lib/identity"
)

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(3)
	h.Append(Message{Kind: KindPlain, Text: "1"})
	h.Append(Message{Kind: KindPlain, Text: "2"})
	h.Append(Message{Kind: KindPlain, Text: "3"})
	h.Append(Message{Kind: KindPlain, Text: "4"})

	snap := h.Snapshot()
	require.Len(t, snap, 3)
	require.Equal(t, "2", snap[0].Text)
	require.Equal(t, "4", snap[2].Text)
}

func TestHistoryDefaultCapacity(t *testing.T) {
	h := NewHistory(0)
	for i := 0; i < 200; i++ {
		h.Append(Message{Kind: KindPlain, Text: "x"})
	}
	require.Len(t, h.Snapshot(), 128)
}

func TestDossierVisibleOnlyToRequester(t *testing.T) {
	h := NewHistory(10)
	h.Append(Message{Kind: KindDossier, Contents: "secret", RequestedBy: 1})

	require.Empty(t, h.SnapshotForViewer(2))
	require.Len(t, h.SnapshotForViewer(1), 1)
}

func TestAnnounceRendersLivePersona(t *testing.T) {
	p := identity.NewPersona("alice", identity.Normal)
	m := Message{Kind: KindAnnounce, Action: Joined, Persona: p}

	before := m.Render(0)
	p.SetName("alicia")
	after := m.Render(0)

	require.NotEqual(t, before, after)
	require.Contains(t, after, "alicia")
}
