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
	"github.com/google/uuid"
	"github.com/gravitational/trace"

	"github.com/sshlounge/lounge/lib/chat"
	"github.com/sshlounge/lounge/lib/identity"
	"github.com/sshlounge/lounge/lib/ui"
)

var (
	ctrlC    = []byte{0x03}
	enter    = []byte{0x0D}
	altEnter = []byte{0x1B, 0x0D}
)

// ChannelOpenSession instantiates a client for connID once its
// "session" channel has opened: a terminal bound to an output pump,
// bordered with the entity's title. It enqueues the Joined
// announcement before the first render, per the documented ordering.
func (s *Server) ChannelOpenSession(connID uint64, channel Channel) error {
	s.connToEntityMu.RLock()
	entity, ok := s.connToEntity[connID]
	s.connToEntityMu.RUnlock()
	if !ok {
		return &TerminalSessionSpawnError{
			ConnID: connID,
			Source: trace.BadParameter("channel opened for unauthenticated connection"),
		}
	}

	term := ui.NewTerminal(entity.Persona.Title())
	traceID := uuid.NewString()
	p := newPump(channel, s.log.WithField("conn_id", connID).WithField("trace_id", traceID))

	client := &Client{
		ConnID:       connID,
		Entity:       entity,
		Channel:      channel,
		Term:         term,
		pump:         p,
		lastActivity: s.cfg.Clock.Now().UnixNano(),
	}

	s.clientsMu.Lock()
	s.clients[connID] = client
	liveClients.Set(float64(len(s.clients)))
	s.clientsMu.Unlock()

	connectionsAccepted.Inc()

	s.app.Append(chat.Message{
		Kind:    chat.KindAnnounce,
		Action:  chat.Joined,
		Persona: entity.Persona,
	})
	s.render()

	return nil
}

// Data dispatches one SSH "data" payload per the session protocol: a
// lone Ctrl-C disconnects, Enter interprets the textarea as a command
// or chat line, Alt-Enter inserts a literal newline, and anything else
// is decoded keystroke-by-keystroke into the textarea.
func (s *Server) Data(connID uint64, b []byte) error {
	s.touchActivity(connID)
	switch {
	case len(b) == 0:
		return nil
	case bytesEqual(b, ctrlC):
		return s.disconnect(connID)
	case bytesEqual(b, enter):
		return s.handleEnter(connID)
	case bytesEqual(b, altEnter):
		return s.withClient(connID, func(c *Client) error {
			c.Term.InsertNewline()
			return nil
		})
	default:
		return s.feedKeystrokes(connID, b)
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s *Server) withClient(connID uint64, fn func(*Client) error) error {
	s.clientsMu.RLock()
	c, ok := s.clients[connID]
	s.clientsMu.RUnlock()
	if !ok {
		return trace.BadParameter("no client for connection %d", connID)
	}
	return fn(c)
}

func (s *Server) feedKeystrokes(connID uint64, b []byte) error {
	return s.withClient(connID, func(c *Client) error {
		dec := &ui.KeyDecoder{}
		for _, byt := range b {
			msg, ok, err := dec.Feed(byt)
			if err != nil {
				s.log.WithField("conn_id", connID).Warnf("unparseable keystroke byte: %v", err)
				continue
			}
			if ok {
				c.Term.HandleKey(msg)
			}
		}
		return nil
	})
}

// handleEnter interprets the textarea's current contents as a command
// or a plain chat line, clears the textarea, and renders.
func (s *Server) handleEnter(connID uint64) error {
	err := s.withClient(connID, func(c *Client) error {
		text := c.Term.Value()
		c.Term.Clear()
		execErr := s.handleLine(connID, c, text)
		if execErr != nil {
			c.Term.SetStatusline(execErr.Error())
		}
		return nil
	})
	s.render()
	return err
}

// disconnect tears a session down on Ctrl-C: announces Left before
// removing the session, clears the leaving client's screen, then drops
// every index entry per the fixed lock order.
func (s *Server) disconnect(connID uint64) error {
	s.connToEntityMu.RLock()
	entity, ok := s.connToEntity[connID]
	s.connToEntityMu.RUnlock()
	if ok {
		s.app.Append(chat.Message{
			Kind:    chat.KindAnnounce,
			Action:  chat.Left,
			Persona: entity.Persona,
		})
	}
	s.render()

	s.clientsMu.RLock()
	c, hasClient := s.clients[connID]
	s.clientsMu.RUnlock()
	if hasClient {
		_, _ = c.Channel.Write([]byte("\x1b[2J\x1b[H"))
	}

	s.removeSession(connID, entity)

	return trace.BadParameter("client %d disconnected", connID)
}

// removeSession deletes connID from conn_to_entity, splices it out of
// key_to_conns, and removes it from clients, in the fixed lock order.
func (s *Server) removeSession(connID uint64, entity *identity.Entity) {
	s.connToEntityMu.Lock()
	delete(s.connToEntity, connID)
	s.connToEntityMu.Unlock()

	if entity != nil {
		keyData := entity.KeyData()
		s.keyToConnsMu.Lock()
		ids := s.keyToConns[keyData]
		remaining := ids[:0]
		for _, id := range ids {
			if id != connID {
				remaining = append(remaining, id)
			}
		}
		if len(remaining) == 0 {
			delete(s.keyToConns, keyData)
		} else {
			s.keyToConns[keyData] = remaining
		}
		s.keyToConnsMu.Unlock()
	}

	s.clientsMu.Lock()
	delete(s.clients, connID)
	liveClients.Set(float64(len(s.clients)))
	s.clientsMu.Unlock()
}

// PtyRequest resizes connID's terminal to cols x rows, then renders.
func (s *Server) PtyRequest(connID uint64, cols, rows int) error {
	err := s.withClient(connID, func(c *Client) error {
		c.Term.Resize(cols, rows)
		return nil
	})
	if err != nil {
		return trace.Wrap(err)
	}
	s.render()
	return nil
}

// WindowChangeRequest resizes connID's terminal, surfacing FrameResize
// if the resize fails.
func (s *Server) WindowChangeRequest(connID uint64, cols, rows int) error {
	err := s.withClient(connID, func(c *Client) error {
		c.Term.Resize(cols, rows)
		return nil
	})
	if err != nil {
		return &FrameResizeError{ConnID: connID, Source: err}
	}
	s.render()
	return nil
}
