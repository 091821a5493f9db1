/*
 * Copyright 2018-2020, CS Systemes d'Information, http://csgroup.eu
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gonse/netscan/internal/scandb"
	"github.com/gonse/netscan/lib/nse"
)

// demoHostAPI is a minimal, in-memory nse.HostAPI for the demo CLI. A
// real scanner backs the same interface with its actual target table,
// console, and asynchronous networking layer.
type demoHostAPI struct {
	indexPath   string
	defaultMode bool
	version     bool
	scriptArgs  string
	verbosity   int
	debug       int

	ports map[string][]*nse.Port

	mu         sync.Mutex
	clocks     map[string]time.Time
	hostOutput map[string][]string
	portOutput map[string][]string
}

func newDemoHostAPI(indexPath string, defaultMode, version bool, scriptArgs string, verbosity, debug int) *demoHostAPI {
	return &demoHostAPI{
		indexPath:   indexPath,
		defaultMode: defaultMode,
		version:     version,
		scriptArgs:  scriptArgs,
		verbosity:   verbosity,
		debug:       debug,
		ports: map[string][]*nse.Port{
			"h1": {
				{Number: 80, Protocol: "tcp", Service: "http"},
				{Number: 22, Protocol: "tcp", Service: "ssh"},
			},
			"h2": {
				{Number: 8080, Protocol: "tcp", Service: "http"},
			},
		},
		clocks:     map[string]time.Time{},
		hostOutput: map[string][]string{},
		portOutput: map[string][]string{},
	}
}

func (a *demoHostAPI) FetchFileAbsolute(path string) (nse.FileKind, string) {
	info, err := os.Stat(path)
	if err != nil {
		return nse.FileKindNone, ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if info.IsDir() {
		return nse.FileKindDirectory, abs
	}
	return nse.FileKindFile, abs
}

func (a *demoHostAPI) UpdateDB() bool {
	dir := filepath.Dir(a.indexPath)
	return scandb.Generate(dir, a.indexPath) == nil
}

func (a *demoHostAPI) ScriptDBPath() string  { return a.indexPath }
func (a *demoHostAPI) ScriptVersion() bool   { return a.version }
func (a *demoHostAPI) Default() bool         { return a.defaultMode }
func (a *demoHostAPI) ScriptArgs() string    { return a.scriptArgs }
func (a *demoHostAPI) Verbosity() int        { return a.verbosity }
func (a *demoHostAPI) Debugging() int        { return a.debug }
func (a *demoHostAPI) KeyWasPressed() bool   { return false }

func (a *demoHostAPI) ScanProgressMeter(name string) nse.ProgressMeter { return nil }

// NsockLoop is a no-op here: the demo wires internal/asyncio's own
// virtual clock directly as the engine's AsyncIO, so nothing drives a
// real nsock-equivalent through this hook. A production HostAPI backs
// this with its actual event loop for an AsyncIO implementation that
// delegates to it instead.
func (a *demoHostAPI) NsockLoop(budget time.Duration) {}

func (a *demoHostAPI) Ports(host *nse.Host) []*nse.Port {
	return a.ports[host.Identity]
}

func (a *demoHostAPI) StartTimeoutClock(host *nse.Host) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.clocks[host.Identity]; !ok {
		a.clocks[host.Identity] = time.Now()
	}
}

func (a *demoHostAPI) StopTimeoutClock(host *nse.Host) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.clocks, host.Identity)
}

// TimedOut never fires in the demo; a production HostAPI compares the
// clock started above against its configured per-host script timeout.
func (a *demoHostAPI) TimedOut(host *nse.Host) bool { return false }

func (a *demoHostAPI) HostSetOutput(host *nse.Host, scriptID, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hostOutput[host.Identity] = append(a.hostOutput[host.Identity], scriptID+": "+text)
}

func (a *demoHostAPI) PortSetOutput(host *nse.Host, port *nse.Port, scriptID, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := portKey(host, port)
	a.portOutput[key] = append(a.portOutput[key], scriptID+": "+text)
}

func (a *demoHostAPI) DumpDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, filepath.Join(path, e.Name()))
	}
	return out, nil
}
