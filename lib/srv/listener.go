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
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"net"

	"github.com/gravitational/trace"
	"golang.org/x/crypto/ssh"
)

// Listener accepts SSH connections and dispatches them into the
// control plane. The wire protocol is standard SSH v2 with a
// per-process Ed25519 host key and publickey-only authentication.
type Listener struct {
	server *Server
	ln     net.Listener
	sshCfg *ssh.ServerConfig
}

// NewListener binds addr and prepares the SSH server config. It
// generates a fresh Ed25519 host key; the key is never persisted.
func NewListener(server *Server, addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, trace.Wrap(err, "failed to bind %v", addr)
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		ln.Close()
		return nil, trace.Wrap(err, "failed to generate host key")
	}
	signer, err := ssh.NewSignerFromSigner(priv)
	if err != nil {
		ln.Close()
		return nil, trace.Wrap(err, "failed to build host key signer")
	}

	sshCfg := &ssh.ServerConfig{
		PublicKeyCallback: server.UserKeyAuth,
	}
	sshCfg.AddHostKey(signer)

	return &Listener{server: server, ln: ln, sshCfg: sshCfg}, nil
}

// Addr returns the bound network address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Close stops accepting new connections.
func (l *Listener) Close() error { return l.ln.Close() }

// Serve accepts connections until the listener is closed.
func (l *Listener) Serve() error {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			return trace.Wrap(err)
		}
		go l.handleConn(conn)
	}
}

func (l *Listener) handleConn(conn net.Conn) {
	defer conn.Close()

	sshConn, chans, reqs, err := ssh.NewServerConn(conn, l.sshCfg)
	if err != nil {
		l.server.log.WithError(err).Debug("ssh handshake failed")
		return
	}
	defer sshConn.Close()

	connID, err := ConnIDFromPermissions(sshConn.Permissions)
	if err != nil {
		l.server.log.WithError(err).Error("missing connection id after handshake")
		return
	}

	go ssh.DiscardRequests(reqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			newChannel.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		channel, requests, err := newChannel.Accept()
		if err != nil {
			l.server.log.WithError(err).Warn("failed to accept channel")
			continue
		}
		l.handleSessionChannel(connID, channel, requests)
	}
}

func (l *Listener) handleSessionChannel(connID uint64, channel ssh.Channel, requests <-chan *ssh.Request) {
	if err := l.server.ChannelOpenSession(connID, channel); err != nil {
		l.server.log.WithError(err).Error("channel_open_session failed")
		channel.Close()
		return
	}

	go l.serveRequests(connID, channel, requests)
	l.serveData(connID, channel)
}

func (l *Listener) serveRequests(connID uint64, channel ssh.Channel, requests <-chan *ssh.Request) {
	for req := range requests {
		switch req.Type {
		case "pty-req":
			cols, rows, ok := parsePtyRequest(req.Payload)
			if !ok {
				req.Reply(false, nil)
				continue
			}
			err := l.server.PtyRequest(connID, cols, rows)
			req.Reply(err == nil, nil)
		case "window-change":
			cols, rows, ok := parseWinchRequest(req.Payload)
			if !ok {
				req.Reply(false, nil)
				continue
			}
			err := l.server.WindowChangeRequest(connID, cols, rows)
			req.Reply(err == nil, nil)
		case "shell":
			req.Reply(true, nil)
		default:
			if req.WantReply {
				req.Reply(false, nil)
			}
		}
	}
}

func (l *Listener) serveData(connID uint64, channel ssh.Channel) {
	buf := make([]byte, 256)
	for {
		n, err := channel.Read(buf)
		if n > 0 {
			if derr := l.server.Data(connID, buf[:n]); derr != nil {
				channel.Close()
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// parsePtyRequest decodes an SSH "pty-req" payload's terminal
// dimensions per RFC 4254 section 6.2.
func parsePtyRequest(payload []byte) (cols, rows int, ok bool) {
	if len(payload) < 4 {
		return 0, 0, false
	}
	termLen := binary.BigEndian.Uint32(payload[:4])
	rest := payload[4:]
	if uint32(len(rest)) < termLen+8 {
		return 0, 0, false
	}
	rest = rest[termLen:]
	cols = int(binary.BigEndian.Uint32(rest[:4]))
	rows = int(binary.BigEndian.Uint32(rest[4:8]))
	return cols, rows, true
}

// parseWinchRequest decodes an SSH "window-change" payload's updated
// terminal dimensions.
func parseWinchRequest(payload []byte) (cols, rows int, ok bool) {
	if len(payload) < 8 {
		return 0, 0, false
	}
	cols = int(binary.BigEndian.Uint32(payload[:4]))
	rows = int(binary.BigEndian.Uint32(payload[4:8]))
	return cols, rows, true
}
