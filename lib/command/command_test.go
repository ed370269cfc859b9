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

package command

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/sshlounge/lounge/lib/identity"
)

func authorizedLine(t *testing.T) string {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	line := string(ssh.MarshalAuthorizedKey(sshPub))
	return line[:len(line)-1] + " dave"
}

func TestParsePlainChat(t *testing.T) {
	cmd, err := Parse("hello everyone", identity.Normal, "alice")
	require.NoError(t, err)
	require.Equal(t, None, cmd.Kind)
}

func TestParseInfoAvailableToAll(t *testing.T) {
	cmd, err := Parse("/info alice", identity.Normal, "bob")
	require.NoError(t, err)
	require.Equal(t, Info, cmd.Kind)
	require.Equal(t, "alice", cmd.Lookup.Value)
}

func TestParseAdminCommandsRejectNonAdmin(t *testing.T) {
	for _, line := range []string{"/ban alice", "/commit", "/reload", "/rename alice bob", "/add x"} {
		_, err := Parse(line, identity.Normal, "eve")
		require.Error(t, err, line)
	}
}

func TestParseAdd(t *testing.T) {
	line := "/add " + authorizedLine(t)
	cmd, err := Parse(line, identity.Admin, "root")
	require.NoError(t, err)
	require.Equal(t, Add, cmd.Kind)
	require.Equal(t, "dave", cmd.Entity.Persona.Name())
}

func TestParseBan(t *testing.T) {
	cmd, err := Parse("/ban SHA256:abcd", identity.Admin, "root")
	require.NoError(t, err)
	require.Equal(t, Ban, cmd.Kind)
}

func TestParseCommitReload(t *testing.T) {
	cmd, err := Parse("/commit", identity.Admin, "root")
	require.NoError(t, err)
	require.Equal(t, Commit, cmd.Kind)

	cmd, err = Parse("/reload", identity.Admin, "root")
	require.NoError(t, err)
	require.Equal(t, Reload, cmd.Kind)
}

func TestParseRename(t *testing.T) {
	cmd, err := Parse("/rename alice alicia", identity.Admin, "root")
	require.NoError(t, err)
	require.Equal(t, Rename, cmd.Kind)
	require.Equal(t, "alice", cmd.From)
	require.Equal(t, "alicia", cmd.To)
}

func TestParseMalformedAdminCommand(t *testing.T) {
	_, err := Parse("/rename alice", identity.Admin, "root")
	require.Error(t, err)
}

func TestParseUnknownSlashToken(t *testing.T) {
	_, err := Parse("/frobnicate", identity.Normal, "alice")
	require.Error(t, err)
}
