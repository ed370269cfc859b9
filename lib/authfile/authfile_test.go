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

package authfile

import (
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/sshlounge/lounge/lib/identity"
)

func authorizedLine(t *testing.T, comment string) string {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	line := string(ssh.MarshalAuthorizedKey(sshPub))
	return line[:len(line)-1] + " " + comment
}

func writeAuthfile(t *testing.T, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "Authfile")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadParsesEntities(t *testing.T) {
	path := writeAuthfile(t, authorizedLine(t, "alice"), authorizedLine(t, "bob:admin"))

	f, err := Read(path)
	require.NoError(t, err)
	require.Len(t, f.Entities, 2)
	require.Equal(t, "alice", f.Entities[0].Persona.Name())
	require.Equal(t, identity.Normal, f.Entities[0].Persona.Role())
	require.Equal(t, "bob", f.Entities[1].Persona.Name())
	require.Equal(t, identity.Admin, f.Entities[1].Persona.Role())
}

func TestReadRejectsInvalidRole(t *testing.T) {
	path := writeAuthfile(t, authorizedLine(t, "bob:guest"))
	_, err := Read(path)
	require.Error(t, err)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestCommitRoundTrip(t *testing.T) {
	path := writeAuthfile(t, authorizedLine(t, "alice"))
	f, err := Read(path)
	require.NoError(t, err)

	newEntity, err := identity.ParseEntity(authorizedLine(t, "carol:admin"))
	require.NoError(t, err)
	f.Entities = append(f.Entities, newEntity)

	require.NoError(t, Commit(path, f))

	reread, err := Read(path)
	require.NoError(t, err)
	require.Len(t, reread.Entities, 2)
	require.Equal(t, "alice", reread.Entities[0].Persona.Name())
	require.Equal(t, "carol", reread.Entities[1].Persona.Name())
	require.Equal(t, identity.Admin, reread.Entities[1].Persona.Role())
}

func TestKeyPoolCollapsesDuplicates(t *testing.T) {
	line := authorizedLine(t, "alice")
	dupEntity, err := identity.ParseEntity(line)
	require.NoError(t, err)
	f := &File{Entities: []*identity.Entity{dupEntity, dupEntity}}
	require.Len(t, f.Entities, 2)
	require.Len(t, f.KeyPool(), 1)
}
