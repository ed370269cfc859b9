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

// Package config parses process-level flags into a validated
// configuration, following the corpus's flags-struct-plus-
// CheckAndSetDefaults idiom.
package config

import (
	"fmt"

	"github.com/gravitational/kingpin"
	"github.com/gravitational/trace"
)

const (
	defaultHistorySize = 128
	defaultAuthfile    = "./Authfile"
	defaultPort        = 2222
	defaultHost        = "0.0.0.0"
)

// Flags holds the raw CLI inputs for the lounge daemon.
type Flags struct {
	HistorySize int
	Authfile    string
	Port        int
	Host        string
}

// CheckAndSetDefaults applies the documented defaults for any flag the
// caller left unset.
func (f *Flags) CheckAndSetDefaults() error {
	if f.HistorySize == 0 {
		f.HistorySize = defaultHistorySize
	}
	if f.HistorySize < 0 {
		return trace.BadParameter("--history-size must be positive")
	}
	if f.Authfile == "" {
		f.Authfile = defaultAuthfile
	}
	if f.Port == 0 {
		f.Port = defaultPort
	}
	if f.Host == "" {
		f.Host = defaultHost
	}
	return nil
}

// Addr is the host:port the listener should bind.
func (f *Flags) Addr() string {
	return fmt.Sprintf("%s:%d", f.Host, f.Port)
}

// ParseArgs builds the kingpin parser for the lounge daemon and parses
// args into Flags.
func ParseArgs(appName, appHelp string, args []string) (*Flags, error) {
	app := kingpin.New(appName, appHelp)
	app.HelpFlag.Short('h')

	f := &Flags{}
	app.Flag("history-size", "Number of chat messages retained per lounge.").
		Default(fmt.Sprint(defaultHistorySize)).IntVar(&f.HistorySize)
	app.Flag("authfile", "Path to the authorized-keys-style authorization file.").
		Short('a').Default(defaultAuthfile).StringVar(&f.Authfile)
	app.Flag("port", "TCP port to listen on.").
		Short('p').Default(fmt.Sprint(defaultPort)).IntVar(&f.Port)
	app.Flag("host", "Address to bind.").
		Default(defaultHost).StringVar(&f.Host)

	if _, err := app.Parse(args); err != nil {
		return nil, trace.Wrap(err)
	}
	if err := f.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	return f, nil
}
