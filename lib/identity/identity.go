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

// Package identity holds the persona/entity model shared by the
// authfile loader, the lookup grammar, and the session handlers.
package identity

import (
	"strings"
	"sync"

	"github.com/gravitational/trace"
	"golang.org/x/crypto/ssh"

	"github.com/sshlounge/lounge/lib/sshutils"
)

// Role is the privilege level carried by a persona.
type Role int

const (
	Normal Role = iota
	Admin
)

// String renders the role the way it appears in log fields and dossiers.
func (r Role) String() string {
	if r == Admin {
		return "admin"
	}
	return "normal"
}

// adminSuffix is the authfile comment suffix that marks an admin entity.
const adminSuffix = "admin"

// Persona is the mutable display identity of an entity: its name and
// role. It is shared by pointer across every index that references the
// same entity, so a mutation through one reference is visible through
// all of them.
type Persona struct {
	mu   sync.RWMutex
	name string
	role Role
}

// NewPersona builds a persona with an already-sanitized name.
func NewPersona(name string, role Role) *Persona {
	return &Persona{name: name, role: role}
}

func (p *Persona) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name
}

func (p *Persona) Role() Role {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.role
}

// Title renders "[<name> <role>]", recomputed from the live persona on
// every call so a rename is visible to anything that re-renders.
func (p *Persona) Title() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return "[" + p.name + " " + p.role.String() + "]"
}

func (p *Persona) SetName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.name = name
}

func (p *Persona) SetRole(role Role) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.role = role
}

// Entity is an authorized identity: a persona bound to an immutable
// public key. The key is the stable identity for the lifetime of the
// entity; the persona may be renamed or reassigned a role.
type Entity struct {
	Persona *Persona
	key     ssh.PublicKey
}

// NewEntity builds an entity from an already-parsed key and persona.
func NewEntity(key ssh.PublicKey, persona *Persona) *Entity {
	return &Entity{Persona: persona, key: key}
}

func (e *Entity) Key() ssh.PublicKey { return e.key }

// KeyData is the canonical comparable form of the public key material,
// usable as a map key.
func (e *Entity) KeyData() string {
	return string(e.key.Marshal())
}

// Fingerprint is the SHA256 fingerprint string of the key.
func (e *Entity) Fingerprint() string {
	return sshutils.Fingerprint(e.key)
}

// ToAuthorizedLine serializes the entity back to an authfile line: the
// key's OpenSSH textual form with its comment set to "<name>" or
// "<name>:admin".
func (e *Entity) ToAuthorizedLine() string {
	line := strings.TrimSuffix(string(ssh.MarshalAuthorizedKey(e.key)), "\n")
	comment := e.Persona.Name()
	if e.Persona.Role() == Admin {
		comment += ":" + adminSuffix
	}
	return line + " " + comment
}

// ParseEntity parses one authfile line into an entity. The comment
// field is split at the last ':'; a suffix of exactly "admin" makes the
// entity an admin, no ':' at all makes it Normal, and any other suffix
// is a parse error. The name is sanitized before the persona is built.
func ParseEntity(line string) (*Entity, error) {
	key, comment, _, _, err := ssh.ParseAuthorizedKey([]byte(line))
	if err != nil {
		return nil, trace.BadParameter("failed to parse public key: %v", err)
	}

	name := comment
	role := Normal
	if idx := strings.LastIndex(comment, ":"); idx >= 0 {
		suffix := comment[idx+1:]
		if suffix != adminSuffix {
			return nil, trace.BadParameter("invalid role specified in authorization file: %q", comment)
		}
		name = comment[:idx]
		role = Admin
	}

	return NewEntity(key, NewPersona(SanitizeName(name), role)), nil
}

// SanitizeName drops every byte that is not an ASCII alphanumeric or one
// of '@', '_', '-', '.'. It is applied on load and on rename, and is
// idempotent.
func SanitizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAllowedNameByte(c) {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isAllowedNameByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '@', c == '_', c == '-', c == '.':
		return true
	default:
		return false
	}
}
