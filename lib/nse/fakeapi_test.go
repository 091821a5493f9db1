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

package nse

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeAPI is a minimal in-test HostAPI used by selector, scheduler and
// engine tests. Only the methods a given test touches need meaningful
// behavior; the rest are harmless stubs.
type fakeAPI struct {
	dir           string
	indexPath     string
	defaultMode   bool
	scriptVersion bool
	scriptArgs    string
	updateDBErr   bool
	ports         map[string][]*Port
	timedOut      map[string]bool

	hostOutputs map[string][]string
	portOutputs map[string][]string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	dir := t.TempDir()
	return &fakeAPI{
		dir:         dir,
		indexPath:   filepath.Join(dir, "index.yaml"),
		ports:       map[string][]*Port{},
		timedOut:    map[string]bool{},
		hostOutputs: map[string][]string{},
		portOutputs: map[string][]string{},
	}
}

func (f *fakeAPI) writeIndex(yamlBody string) {
	_ = os.WriteFile(f.indexPath, []byte(yamlBody), 0o644)
}

func (f *fakeAPI) FetchFileAbsolute(path string) (FileKind, string) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(f.dir, path)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return FileKindNone, ""
	}
	if info.IsDir() {
		return FileKindDirectory, abs
	}
	return FileKindFile, abs
}

func (f *fakeAPI) UpdateDB() bool { return !f.updateDBErr }

func (f *fakeAPI) ScriptDBPath() string { return f.indexPath }
func (f *fakeAPI) ScriptVersion() bool  { return f.scriptVersion }
func (f *fakeAPI) Default() bool        { return f.defaultMode }
func (f *fakeAPI) ScriptArgs() string   { return f.scriptArgs }

func (f *fakeAPI) ScanProgressMeter(name string) ProgressMeter { return nil }

func (f *fakeAPI) NsockLoop(budget time.Duration) {}

func (f *fakeAPI) KeyWasPressed() bool { return false }

func (f *fakeAPI) Ports(host *Host) []*Port { return f.ports[host.Identity] }

func (f *fakeAPI) StartTimeoutClock(host *Host) {}
func (f *fakeAPI) StopTimeoutClock(host *Host)  {}
func (f *fakeAPI) TimedOut(host *Host) bool     { return f.timedOut[host.Identity] }

func (f *fakeAPI) HostSetOutput(host *Host, scriptID, text string) {
	f.hostOutputs[host.Identity] = append(f.hostOutputs[host.Identity], scriptID+": "+text)
}

func (f *fakeAPI) PortSetOutput(host *Host, port *Port, scriptID, text string) {
	key := host.Identity
	f.portOutputs[key] = append(f.portOutputs[key], scriptID+": "+text)
}

func (f *fakeAPI) DumpDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, filepath.Join(path, e.Name()))
		}
	}
	return out, nil
}

func (f *fakeAPI) Verbosity() int { return 0 }
func (f *fakeAPI) Debugging() int { return 0 }
