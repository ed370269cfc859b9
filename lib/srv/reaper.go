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
	"sync/atomic"
	"time"
)

const reaperInterval = time.Minute

// touchActivity records that connID produced inbound traffic, resetting
// its inactivity clock.
func (s *Server) touchActivity(connID uint64) {
	s.clientsMu.RLock()
	c, ok := s.clients[connID]
	s.clientsMu.RUnlock()
	if ok {
		atomic.StoreInt64(&c.lastActivity, s.cfg.Clock.Now().UnixNano())
	}
}

// runInactivityReaper periodically closes sessions idle past
// InactivityTimeout. It runs for the lifetime of the server.
func (s *Server) runInactivityReaper() {
	ticker := s.cfg.Clock.NewTicker(reaperInterval)
	defer ticker.Stop()
	for range ticker.Chan() {
		s.reapIdle()
	}
}

func (s *Server) reapIdle() {
	now := s.cfg.Clock.Now().UnixNano()
	cutoff := s.cfg.InactivityTimeout.Nanoseconds()

	s.clientsMu.RLock()
	var idle []*Client
	for _, c := range s.clients {
		last := atomic.LoadInt64(&c.lastActivity)
		if last != 0 && now-last > cutoff {
			idle = append(idle, c)
		}
	}
	s.clientsMu.RUnlock()

	for _, c := range idle {
		c.Channel.Close()

		s.connToEntityMu.RLock()
		entity := s.connToEntity[c.ConnID]
		s.connToEntityMu.RUnlock()

		s.removeSession(c.ConnID, entity)
	}
}
