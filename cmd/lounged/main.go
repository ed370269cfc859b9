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

// Command lounged runs the SSH-delivered chat lounge.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/sshlounge/lounge/lib/authfile"
	"github.com/sshlounge/lounge/lib/config"
	"github.com/sshlounge/lounge/lib/srv"
)

const (
	appName = "lounged"
	appHelp = "A multi-user chat lounge delivered entirely over SSH."
)

func main() {
	log.SetFormatter(&log.TextFormatter{
		ForceColors: term.IsTerminal(int(os.Stderr.Fd())),
	})
	log.SetOutput(os.Stderr)

	if err := run(os.Args[1:]); err != nil {
		fatalError(err)
	}
}

func run(args []string) error {
	flags, err := config.ParseArgs(appName, appHelp, args)
	if err != nil {
		return trace.Wrap(err)
	}

	file, err := authfile.Read(flags.Authfile)
	if err != nil {
		return trace.Wrap(err, "failed to load authfile")
	}

	srvLog := log.WithField(trace.Component, "srv")
	server, err := srv.New(srv.Config{
		AuthfilePath: flags.Authfile,
		HistorySize:  flags.HistorySize,
		Log:          srvLog,
	}, file)
	if err != nil {
		return trace.Wrap(err)
	}

	listener, err := srv.NewListener(server, flags.Addr())
	if err != nil {
		return trace.Wrap(err)
	}
	srvLog.Infof("listening on %v", listener.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- listener.Serve()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return trace.Wrap(err)
	case <-sigCh:
		srvLog.Info("shutting down")
		return listener.Close()
	}
}

// fatalError prints a user-facing message and exits nonzero, matching
// the corpus's utils.FatalError idiom.
func fatalError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
