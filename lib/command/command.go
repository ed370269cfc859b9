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

// Package command parses the in-band slash-command language typed into
// the chat textarea.
package command

import (
	"strings"

	"github.com/gravitational/trace"

	"github.com/sshlounge/lounge/lib/identity"
	"github.com/sshlounge/lounge/lib/lookup"
)

// Kind identifies which state transition a parsed command requests.
type Kind int

const (
	// None means the line is plain chat, not a command.
	None Kind = iota
	Info
	Add
	Ban
	Commit
	Reload
	Rename
)

// Command is the parsed result of one line of textarea input.
type Command struct {
	Kind Kind

	Lookup lookup.EntityLookup // Info, Ban
	Entity *identity.Entity    // Add
	From   string              // Rename
	To     string              // Rename
}

const (
	tokInfo   = "/info"
	tokAdd    = "/add"
	tokBan    = "/ban"
	tokCommit = "/commit"
	tokReload = "/reload"
	tokRename = "/rename"
)

var adminTokens = map[string]bool{
	tokAdd:    true,
	tokBan:    true,
	tokCommit: true,
	tokReload: true,
	tokRename: true,
}

// Parse interprets text as typed by an entity with the given role and
// name. /info is available to everyone; the remaining five tokens
// require Admin and fail with NotAnAdmin otherwise. Any slash-prefixed
// line that does not match a recognized form fails with CommandParse.
// Text not starting with '/' is plain chat (Kind == None).
func Parse(text string, role identity.Role, name string) (Command, error) {
	if !strings.HasPrefix(text, "/") {
		return Command{Kind: None}, nil
	}

	word, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)

	if word == tokInfo {
		l, err := lookup.Parse(rest)
		if err != nil {
			return Command{}, trace.BadParameter("malformed command: %q", text)
		}
		return Command{Kind: Info, Lookup: l}, nil
	}

	if adminTokens[word] {
		if role != identity.Admin {
			return Command{}, trace.AccessDenied("%s", name)
		}
		return parseAdminCommand(word, rest, text)
	}

	return Command{}, trace.BadParameter("malformed command: %q", text)
}

func parseAdminCommand(word, rest, text string) (Command, error) {
	switch word {
	case tokAdd:
		entity, err := identity.ParseEntity(rest)
		if err != nil {
			return Command{}, trace.BadParameter("malformed command: %q", text)
		}
		return Command{Kind: Add, Entity: entity}, nil
	case tokBan:
		l, err := lookup.Parse(rest)
		if err != nil {
			return Command{}, trace.BadParameter("malformed command: %q", text)
		}
		return Command{Kind: Ban, Lookup: l}, nil
	case tokCommit:
		return Command{Kind: Commit}, nil
	case tokReload:
		return Command{Kind: Reload}, nil
	case tokRename:
		fields := strings.Fields(rest)
		if len(fields) != 2 {
			return Command{}, trace.BadParameter("malformed command: %q", text)
		}
		return Command{Kind: Rename, From: fields[0], To: fields[1]}, nil
	default:
		return Command{}, trace.BadParameter("malformed command: %q", text)
	}
}
