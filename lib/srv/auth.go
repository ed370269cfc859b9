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
	"encoding/hex"
	"strconv"

	"github.com/gravitational/trace"
	"golang.org/x/crypto/ssh"
)

// ExtensionConnID is the ssh.Permissions.Extensions key the connection
// id is stashed under by UserKeyAuth, for retrieval once the channel
// opens.
const ExtensionConnID = "lounge-conn-id"

// UserKeyAuth is the "authenticate this public key" hook consumed by
// the SSH transport. It never blocks on other sessions: it only reads
// keyToEntity and, on success, writes conn_to_entity/key_to_conns for
// this connection's own id.
func (s *Server) UserKeyAuth(conn ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
	keyData := string(key.Marshal())

	s.keyToEntityMu.RLock()
	entity, ok := s.keyToEntity[keyData]
	s.keyToEntityMu.RUnlock()

	if !ok {
		authRejections.Inc()
		s.delayRejection(conn)
		return nil, trace.AccessDenied("unknown public key")
	}

	connID := s.nextConnID()

	s.connToEntityMu.Lock()
	s.connToEntity[connID] = entity
	s.connToEntityMu.Unlock()

	s.keyToConnsMu.Lock()
	s.keyToConns[keyData] = append(s.keyToConns[keyData], connID)
	s.keyToConnsMu.Unlock()

	s.log.WithField("entity", entity.Persona.Name()).Debug("accepted public key")

	return &ssh.Permissions{
		Extensions: map[string]string{
			ExtensionConnID: strconv.FormatUint(connID, 10),
		},
	}, nil
}

// delayRejection sleeps AuthRejectionDelay before a rejected attempt,
// except for the first attempt on a given network connection, which is
// rejected immediately.
func (s *Server) delayRejection(conn ssh.ConnMetadata) {
	key := hex.EncodeToString(conn.SessionID())
	_, seen := s.attempts.LoadOrStore(key, struct{}{})
	if seen {
		s.cfg.Clock.Sleep(s.cfg.AuthRejectionDelay)
	}
}

// ConnIDFromPermissions extracts the connection id stashed by
// UserKeyAuth out of the permissions attached to an established
// ssh.ServerConn.
func ConnIDFromPermissions(perms *ssh.Permissions) (uint64, error) {
	if perms == nil {
		return 0, trace.BadParameter("no permissions attached to connection")
	}
	raw, ok := perms.Extensions[ExtensionConnID]
	if !ok {
		return 0, trace.BadParameter("connection id missing from permissions")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, trace.Wrap(err)
	}
	return id, nil
}
