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
	"github.com/sirupsen/logrus"
)

// pump is the per-channel output pump: a background writer goroutine
// draining a queue of rendered frames into the SSH channel. The queue
// holds at most 64 frames; it is not unbounded. The renderer is only
// invoked in response to inbound events.
type pump struct {
	ch      chan []byte
	channel Channel
	log     *logrus.Entry
	done    chan struct{}
}

func newPump(channel Channel, log *logrus.Entry) *pump {
	p := &pump{
		ch:      make(chan []byte, 64),
		channel: channel,
		log:     log,
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Send enqueues a rendered frame for delivery. While the queue is full
// it blocks until the writer has taken a frame off it or the pump is
// closed.
func (p *pump) Send(frame []byte) {
	select {
	case p.ch <- frame:
	case <-p.done:
	}
}

// Close stops accepting new frames; frames already queued still drain.
func (p *pump) Close() {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
}

func (p *pump) run() {
	for {
		select {
		case frame := <-p.ch:
			if _, err := p.channel.Write(frame); err != nil {
				p.log.WithError(err).Warn("failed to write frame to channel")
				continue
			}
		case <-p.done:
			for {
				select {
				case frame := <-p.ch:
					if _, err := p.channel.Write(frame); err != nil {
						p.log.WithError(err).Warn("failed to write frame to channel")
					}
				default:
					return
				}
			}
		}
	}
}
