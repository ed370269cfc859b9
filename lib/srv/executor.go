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

package srv

import (
	"fmt"

	"github.com/gravitational/trace"

	"github.com/sshlounge/lounge/lib/authfile"
	"github.com/sshlounge/lounge/lib/chat"
	"github.com/sshlounge/lounge/lib/command"
	"github.com/sshlounge/lounge/lib/identity"
	"github.com/sshlounge/lounge/lib/lookup"
)

// handleLine interprets one line of textarea input submitted by connID:
// a slash-command, if recognized, or a plain chat message otherwise.
func (s *Server) handleLine(connID uint64, c *Client, text string) error {
	cmd, err := command.Parse(text, c.Entity.Persona.Role(), c.Entity.Persona.Name())
	if err != nil {
		return err
	}

	switch cmd.Kind {
	case command.None:
		if text != "" {
			s.app.Append(chat.Message{Kind: chat.KindPlain, Text: text})
		}
		return nil
	case command.Info:
		commandsExecuted.WithLabelValues("info").Inc()
		return s.executeInfo(connID, cmd.Lookup)
	case command.Add:
		commandsExecuted.WithLabelValues("add").Inc()
		return s.executeAdd(cmd.Entity)
	case command.Ban:
		commandsExecuted.WithLabelValues("ban").Inc()
		return s.executeBan(connID, c, cmd.Lookup)
	case command.Commit:
		commandsExecuted.WithLabelValues("commit").Inc()
		return s.executeCommit()
	case command.Reload:
		commandsExecuted.WithLabelValues("reload").Inc()
		return s.executeReload()
	case command.Rename:
		commandsExecuted.WithLabelValues("rename").Inc()
		return s.executeRename(cmd.From, cmd.To)
	default:
		return nil
	}
}

// findEntity resolves l against the live entity list, in
// authfile order. The caller must not already hold entitiesMu.
func (s *Server) findEntity(l lookup.EntityLookup) (*identity.Entity, bool) {
	s.entitiesMu.RLock()
	defer s.entitiesMu.RUnlock()
	for _, e := range s.entities {
		if l.Matches(e) {
			return e, true
		}
	}
	return nil, false
}

// executeAdd appends entity to the live keychain. No effect on live
// sessions.
func (s *Server) executeAdd(entity *identity.Entity) error {
	s.entitiesMu.Lock()
	s.keyPoolMu.Lock()
	s.keyToEntityMu.Lock()
	defer s.entitiesMu.Unlock()
	defer s.keyPoolMu.Unlock()
	defer s.keyToEntityMu.Unlock()

	s.entities = append(s.entities, entity)
	s.keyPool[entity.KeyData()] = struct{}{}
	s.keyToEntity[entity.KeyData()] = entity
	return nil
}

// executeRename renames the first entity whose current name equals
// from, then refreshes the bordered title of every live session
// authenticated under it. No chat announcement is emitted, matching
// the documented behavior.
func (s *Server) executeRename(from, to string) error {
	s.entitiesMu.RLock()
	var target *identity.Entity
	for _, e := range s.entities {
		if e.Persona.Name() == from {
			target = e
			break
		}
	}
	s.entitiesMu.RUnlock()

	if target == nil {
		return nil
	}

	target.Persona.SetName(identity.SanitizeName(to))

	s.keyToConnsMu.RLock()
	ids := append([]uint64(nil), s.keyToConns[target.KeyData()]...)
	s.keyToConnsMu.RUnlock()

	if len(ids) == 0 {
		return nil
	}

	title := target.Persona.Title()
	s.clientsMu.RLock()
	for _, id := range ids {
		if c, ok := s.clients[id]; ok {
			c.Term.SetTitle(title)
		}
	}
	s.clientsMu.RUnlock()

	return nil
}

// executeCommit serializes the live entity list to the authfile,
// atomically. Failures are non-fatal: logged and returned so the
// caller's statusline reports them.
func (s *Server) executeCommit() error {
	s.entitiesMu.RLock()
	f := &authfile.File{Entities: append([]*identity.Entity(nil), s.entities...)}
	s.entitiesMu.RUnlock()

	if err := authfile.Commit(s.cfg.AuthfilePath, f); err != nil {
		s.log.WithError(err).Warn("commit failed")
		return trace.Wrap(err)
	}
	commitsTotal.Inc()
	return nil
}

// executeInfo builds a dossier for the first entity matching l and
// enqueues it visible only to connID. No match is a silent no-op.
func (s *Server) executeInfo(connID uint64, l lookup.EntityLookup) error {
	entity, ok := s.findEntity(l)
	if !ok {
		return nil
	}
	contents := fmt.Sprintf("name: %s\nrole: %s\nfingerprint: %s",
		entity.Persona.Name(), entity.Persona.Role(), entity.Fingerprint())
	s.app.Append(chat.Message{
		Kind:        chat.KindDossier,
		Contents:    contents,
		RequestedBy: connID,
	})
	s.render()
	return nil
}

// executeBan resolves l and evicts every live session under it. entities
// is deliberately not mutated here: a subsequent /commit would still
// write the banned key until the next /reload reconciles it, which is
// documented, intentional behavior (see DESIGN.md).
func (s *Server) executeBan(callerConnID uint64, caller *Client, l lookup.EntityLookup) error {
	target, ok := s.findEntity(l)
	if !ok {
		return nil
	}
	if target.KeyData() == caller.Entity.KeyData() {
		return &NoBanSelfError{}
	}

	keyData := target.KeyData()

	s.keyPoolMu.Lock()
	delete(s.keyPool, keyData)
	s.keyPoolMu.Unlock()

	s.keyToEntityMu.Lock()
	delete(s.keyToEntity, keyData)
	s.keyToEntityMu.Unlock()

	s.keyToConnsMu.Lock()
	ids := s.keyToConns[keyData]
	delete(s.keyToConns, keyData)
	s.keyToConnsMu.Unlock()

	var disconnectErr error
	for _, id := range ids {
		s.clientsMu.RLock()
		c, live := s.clients[id]
		s.clientsMu.RUnlock()
		if !live {
			continue
		}
		if err := c.Channel.Close(); err != nil && disconnectErr == nil {
			disconnectErr = &ClientDisconnectFailedError{ConnID: id}
		}

		s.connToEntityMu.Lock()
		delete(s.connToEntity, id)
		s.connToEntityMu.Unlock()

		s.clientsMu.Lock()
		delete(s.clients, id)
		liveClients.Set(float64(len(s.clients)))
		s.clientsMu.Unlock()
	}

	bansTotal.Inc()
	s.render()
	return disconnectErr
}

// executeReload re-reads the authfile and evicts every stray session: a
// key present in the old pool but absent from the freshly loaded file.
// A parse failure leaves state unchanged.
func (s *Server) executeReload() error {
	newFile, err := authfile.Read(s.cfg.AuthfilePath)
	if err != nil {
		return trace.Wrap(err)
	}
	newPool := newFile.KeyPool()

	s.keyPoolMu.RLock()
	var stray []string
	for k := range s.keyPool {
		if _, ok := newPool[k]; !ok {
			stray = append(stray, k)
		}
	}
	s.keyPoolMu.RUnlock()

	for _, keyData := range stray {
		s.keyToConnsMu.Lock()
		ids := s.keyToConns[keyData]
		delete(s.keyToConns, keyData)
		s.keyToConnsMu.Unlock()

		for _, id := range ids {
			s.clientsMu.RLock()
			c, live := s.clients[id]
			s.clientsMu.RUnlock()
			if !live {
				continue
			}
			_ = c.Channel.Close()

			s.connToEntityMu.Lock()
			delete(s.connToEntity, id)
			s.connToEntityMu.Unlock()

			s.clientsMu.Lock()
			delete(s.clients, id)
			liveClients.Set(float64(len(s.clients)))
			s.clientsMu.Unlock()
		}
	}

	s.loadLocked(newFile)
	reloadsTotal.Inc()
	s.render()
	return nil
}
