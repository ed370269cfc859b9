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

// Package authfile loads and persists the authorized-keys-style file
// that seeds the in-memory key pool.
package authfile

import (
	"bufio"
	"fmt"
	"os"

	"github.com/gravitational/trace"

	"github.com/sshlounge/lounge/lib/identity"
)

// File is an ordered sequence of entities as read from disk. Order
// mirrors file order and is the canonical order for rewriting.
type File struct {
	Entities []*identity.Entity
}

// KeyPool returns the set of key_data values carried by the file's
// entities. Duplicate key_data across lines collapses here but is kept
// in Entities, matching the loader's documented "harmless for eviction"
// behavior.
func (f *File) KeyPool() map[string]struct{} {
	pool := make(map[string]struct{}, len(f.Entities))
	for _, e := range f.Entities {
		pool[e.KeyData()] = struct{}{}
	}
	return pool
}

// Read parses path line by line. Blank lines and comments are not
// tolerated: every line must be a valid OpenSSH public key line.
func Read(path string) (*File, error) {
	handle, err := os.Open(path)
	if err != nil {
		return nil, trace.Wrap(err, "unable to read authorization file")
	}
	defer handle.Close()

	var f File
	scanner := bufio.NewScanner(handle)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		entity, err := identity.ParseEntity(line)
		if err != nil {
			return nil, trace.Wrap(err, "authfile line %d", lineNo)
		}
		f.Entities = append(f.Entities, entity)
	}
	if err := scanner.Err(); err != nil {
		return nil, trace.Wrap(err, "unable to read authorization file")
	}
	return &f, nil
}

// Serialize renders the file as one authfile line per entity,
// newline-joined, entities in their current order.
func (f *File) Serialize() string {
	out := ""
	for i, e := range f.Entities {
		if i > 0 {
			out += "\n"
		}
		out += e.ToAuthorizedLine()
	}
	if len(f.Entities) > 0 {
		out += "\n"
	}
	return out
}

// Commit writes f to <path>~ and atomically renames it onto path. Any
// I/O failure is returned for the caller to log and surface
// non-fatally; state is never partially applied.
func Commit(path string, f *File) error {
	tmp := path + "~"
	if err := os.WriteFile(tmp, []byte(f.Serialize()), 0o600); err != nil {
		return trace.Wrap(err, "failed to write %v", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return trace.Wrap(err, "failed to commit %v", path)
	}
	return nil
}

// String implements fmt.Stringer for debug logging.
func (f *File) String() string {
	return fmt.Sprintf("authfile(%d entities)", len(f.Entities))
}
