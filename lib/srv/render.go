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

// render takes a snapshot of the history and the live client set, then
// draws a frame per client and hands it to that client's output pump.
// It is invoked after message append, command execution, pty resize,
// and window change (per the render dispatch policy), and runs as a
// fire-and-forget background task: a second render scheduled before
// this one completes may interleave per-client draw calls, which is
// safe because the output pump serializes bytes per channel.
func (s *Server) render() {
	go s.renderNow()
}

func (s *Server) renderNow() {
	history := s.app.Snapshot()

	s.clientsMu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.RUnlock()

	for _, c := range clients {
		func(c *Client) {
			defer func() {
				if r := recover(); r != nil {
					renderFailures.Inc()
					s.log.WithField("conn_id", c.ConnID).Errorf("render panic: %v", r)
				}
			}()
			frame := c.Term.Frame(history, c.ConnID)
			c.pump.Send(frame)
		}(c)
	}
}
