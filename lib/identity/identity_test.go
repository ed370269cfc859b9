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

package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func mustAuthorizedLine(t *testing.T, comment string) string {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	line := string(ssh.MarshalAuthorizedKey(sshPub))
	return line[:len(line)-1] + " " + comment
}

func TestParseEntityRole(t *testing.T) {
	t.Run("admin suffix", func(t *testing.T) {
		e, err := ParseEntity(mustAuthorizedLine(t, "bob:admin"))
		require.NoError(t, err)
		require.Equal(t, "bob", e.Persona.Name())
		require.Equal(t, Admin, e.Persona.Role())
	})

	t.Run("no suffix", func(t *testing.T) {
		e, err := ParseEntity(mustAuthorizedLine(t, "bob"))
		require.NoError(t, err)
		require.Equal(t, "bob", e.Persona.Name())
		require.Equal(t, Normal, e.Persona.Role())
	})

	t.Run("invalid role", func(t *testing.T) {
		_, err := ParseEntity(mustAuthorizedLine(t, "bob:guest"))
		require.Error(t, err)
	})
}

func TestNameSanitization(t *testing.T) {
	e, err := ParseEntity(mustAuthorizedLine(t, "A l i c e!#^<>"))
	require.NoError(t, err)
	require.Equal(t, "Alice", e.Persona.Name())

	e, err = ParseEntity(mustAuthorizedLine(t, "root@host-1.local:admin"))
	require.NoError(t, err)
	require.Equal(t, "root@host-1.local", e.Persona.Name())
	require.Equal(t, Admin, e.Persona.Role())
}

func TestSanitizeNameIdempotent(t *testing.T) {
	cases := []string{"Alice", "root@host-1.local", "a!b@c_d-e.f", ""}
	for _, c := range cases {
		once := SanitizeName(c)
		twice := SanitizeName(once)
		require.Equal(t, once, twice)
	}
}

func TestToAuthorizedLineRoundTrip(t *testing.T) {
	line := mustAuthorizedLine(t, "alice:admin")
	e, err := ParseEntity(line)
	require.NoError(t, err)

	roundTripped, err := ParseEntity(e.ToAuthorizedLine())
	require.NoError(t, err)
	require.Equal(t, e.Persona.Name(), roundTripped.Persona.Name())
	require.Equal(t, e.Persona.Role(), roundTripped.Persona.Role())
	require.Equal(t, e.KeyData(), roundTripped.KeyData())
}

func TestPersonaTitleReflectsLiveName(t *testing.T) {
	p := NewPersona("alice", Normal)
	before := p.Title()
	p.SetName("alicia")
	after := p.Title()
	require.NotEqual(t, before, after)
	require.Contains(t, after, "alicia")
}
