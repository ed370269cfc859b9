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

// Package lookup implements the grammar for resolving a user-typed
// reference string (name or fingerprint) to an entity.
package lookup

import (
	"strings"

	"github.com/gravitational/trace"

	"github.com/sshlounge/lounge/lib/identity"
)

const sha256Prefix = "SHA256"

// Kind distinguishes the two lookup variants.
type Kind int

const (
	ByName Kind = iota
	BySha256
)

// EntityLookup is a parsed reference to an entity: either a bare name
// or a "SHA256:<digest>" fingerprint.
type EntityLookup struct {
	Kind  Kind
	Value string
}

// Parse implements the lookup grammar: "SHA256:<digest>" with a
// nonempty digest containing no further ':' is a fingerprint lookup; no
// ':' at all is a name lookup; any other use of ':' is a parse error.
func Parse(s string) (EntityLookup, error) {
	prefix, digest, found := strings.Cut(s, ":")
	if !found {
		return EntityLookup{Kind: ByName, Value: s}, nil
	}
	if prefix == sha256Prefix && digest != "" && !strings.Contains(digest, ":") {
		return EntityLookup{Kind: BySha256, Value: digest}, nil
	}
	return EntityLookup{}, trace.BadParameter("malformed lookup: %q", s)
}

// Matches reports whether e is referenced by l: fingerprint lookups
// compare against the live fingerprint, name lookups against the live
// persona name.
func (l EntityLookup) Matches(e *identity.Entity) bool {
	switch l.Kind {
	case BySha256:
		return e.Fingerprint() == sha256Prefix+":"+l.Value
	default:
		return e.Persona.Name() == l.Value
	}
}

// String renders the lookup back to its canonical textual form.
func (l EntityLookup) String() string {
	if l.Kind == BySha256 {
		return sha256Prefix + ":" + l.Value
	}
	return l.Value
}
