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

// Package srv is the session and authorization control plane: the
// cross-referenced server state, the SSH session handlers, the command
// executor, and the output pump that drains rendered frames back to
// clients.
package srv

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/sshlounge/lounge/lib/authfile"
	"github.com/sshlounge/lounge/lib/chat"
	"github.com/sshlounge/lounge/lib/identity"
	"github.com/sshlounge/lounge/lib/ui"
)

var (
	authRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lounge_auth_rejections_total",
		Help: "Number of public key authentication attempts that were rejected",
	})
	connectionsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lounge_connections_accepted_total",
		Help: "Number of SSH channels accepted into the lounge",
	})
	commandsExecuted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lounge_commands_executed_total",
		Help: "Number of slash commands executed, by kind",
	}, []string{"kind"})
	bansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lounge_bans_total",
		Help: "Number of entities banned",
	})
	reloadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lounge_reloads_total",
		Help: "Number of successful authfile reloads",
	})
	commitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lounge_commits_total",
		Help: "Number of successful authfile commits",
	})
	renderFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lounge_render_failures_total",
		Help: "Number of per-client render failures",
	})
	liveClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lounge_live_clients",
		Help: "Number of currently connected clients",
	})
)

func init() {
	prometheus.MustRegister(
		authRejections, connectionsAccepted, commandsExecuted,
		bansTotal, reloadsTotal, commitsTotal, renderFailures, liveClients,
	)
}

// Config holds the dependencies and tunables for a Server.
type Config struct {
	// AuthfilePath is the path /commit and /reload read and write.
	AuthfilePath string
	// HistorySize is the chat ring buffer capacity.
	HistorySize int
	// InactivityTimeout disconnects a session idle this long.
	InactivityTimeout time.Duration
	// AuthRejectionDelay is slept before rejecting the 2nd+ failed
	// public key attempt on a given connection.
	AuthRejectionDelay time.Duration
	// Clock is injected so tests can avoid real sleeps.
	Clock clockwork.Clock
	// Log is the base logger; handlers derive component-tagged entries.
	Log *logrus.Entry
}

// CheckAndSetDefaults validates required fields and fills in optional
// ones, following the corpus's config-struct idiom.
func (c *Config) CheckAndSetDefaults() error {
	if c.AuthfilePath == "" {
		return trace.BadParameter("AuthfilePath must be provided")
	}
	if c.HistorySize <= 0 {
		c.HistorySize = 128
	}
	if c.InactivityTimeout <= 0 {
		c.InactivityTimeout = time.Hour
	}
	if c.AuthRejectionDelay <= 0 {
		c.AuthRejectionDelay = 3 * time.Second
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Log == nil {
		c.Log = logrus.WithField(trace.Component, "srv")
	}
	return nil
}

// Server is the central cross-referenced state described by the
// identity/session control plane: entities, the key pool, and every
// index that binds keys, connections, and live clients. Each map sits
// behind its own reader-writer lock; an operation that holds several of
// these locks at once acquires them in the fixed order entities ->
// keyPool -> keyToEntity -> keyToConns -> connToEntity -> clients -> app.
// Operations that take one lock at a time release it before taking the
// next and may visit the maps in any order.
type Server struct {
	cfg Config
	log *logrus.Entry

	entitiesMu sync.RWMutex
	entities   []*identity.Entity

	keyPoolMu sync.RWMutex
	keyPool   map[string]struct{}

	keyToEntityMu sync.RWMutex
	keyToEntity   map[string]*identity.Entity

	keyToConnsMu sync.RWMutex
	keyToConns   map[string][]uint64

	connToEntityMu sync.RWMutex
	connToEntity   map[uint64]*identity.Entity

	clientsMu sync.RWMutex
	clients   map[uint64]*Client

	app *chat.History

	nextID uint64

	attempts sync.Map // hex connection session id -> struct{} marker set on the first rejected attempt
}

// New builds a Server from an already-loaded authfile.
func New(cfg Config, initial *authfile.File) (*Server, error) {
	if err := cfg.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}

	s := &Server{
		cfg:         cfg,
		log:         cfg.Log,
		keyPool:     make(map[string]struct{}),
		keyToEntity: make(map[string]*identity.Entity),
		keyToConns:  make(map[string][]uint64),
		connToEntity: make(map[uint64]*identity.Entity),
		clients:     make(map[uint64]*Client),
		app:         chat.NewHistory(cfg.HistorySize),
	}
	s.loadLocked(initial)
	go s.runInactivityReaper()
	return s, nil
}

// loadLocked installs f as the live entity/key index. It acquires the
// entities, keyPool and keyToEntity locks itself, in the fixed order, so
// callers must not already hold any of them; it is used both at
// construction and by Reload.
func (s *Server) loadLocked(f *authfile.File) {
	s.entitiesMu.Lock()
	s.keyPoolMu.Lock()
	s.keyToEntityMu.Lock()
	defer s.entitiesMu.Unlock()
	defer s.keyPoolMu.Unlock()
	defer s.keyToEntityMu.Unlock()

	s.entities = append([]*identity.Entity(nil), f.Entities...)
	s.keyPool = f.KeyPool()
	s.keyToEntity = make(map[string]*identity.Entity, len(f.Entities))
	for _, e := range f.Entities {
		s.keyToEntity[e.KeyData()] = e
	}
}

// nextConnID allocates the next monotonically increasing connection id.
// Ids are process-local, never reused, and are never sent to clients.
func (s *Server) nextConnID() uint64 {
	return atomic.AddUint64(&s.nextID, 1)
}

// Client is the per-live-SSH-channel state: the channel handle, its
// rendering surface, and the output pump feeding it.
type Client struct {
	ConnID  uint64
	Entity  *identity.Entity
	Channel Channel
	Term    *ui.Terminal
	pump    *pump

	lastActivity int64 // unix nanos, accessed via atomic
}

// Channel is the subset of golang.org/x/crypto/ssh.Channel the server
// depends on, named so tests can substitute a fake.
type Channel interface {
	Write(p []byte) (int, error)
	Close() error
	SendRequest(name string, wantReply bool, payload []byte) (bool, error)
}
