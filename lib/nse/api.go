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

import "time"

// FileKind is the result of resolving a path via HostAPI.FetchFileAbsolute.
type FileKind int

const (
	// FileKindNone means the path resolved to neither a file nor a directory.
	FileKindNone FileKind = iota
	FileKindFile
	FileKindDirectory
)

// ProgressMeter is the per-scan progress reporter the host program
// exposes through HostAPI.ScanProgressMeter (spec.md §6).
type ProgressMeter interface {
	PrintStats(fraction float64)
	PrintStatsIfNecessary(fraction float64)
	MayBePrinted() bool
	EndTask()
}

// HostAPI is everything the host program hands the engine at embedding
// time (spec.md §6). It is the engine's window onto the scanner, the
// script index and the console; the asynchronous I/O layer reaches the
// engine separately, through the AsyncIO factory passed to New. Every
// method here is an external collaborator, implemented by the embedding
// program (or, for tests and the demo CLI, by small in-memory
// implementations).
type HostAPI interface {
	// FetchFileAbsolute resolves path to a file or directory.
	FetchFileAbsolute(path string) (FileKind, string)
	// UpdateDB (re)generates the script index. Returns false on failure.
	UpdateDB() bool

	ScriptDBPath() string
	ScriptVersion() bool
	Default() bool
	ScriptArgs() string

	ScanProgressMeter(name string) ProgressMeter

	// NsockLoop drives the asynchronous I/O layer for up to budget.
	NsockLoop(budget time.Duration)

	KeyWasPressed() bool
	Ports(host *Host) []*Port

	StartTimeoutClock(host *Host)
	StopTimeoutClock(host *Host)
	TimedOut(host *Host) bool

	HostSetOutput(host *Host, scriptID, text string)
	PortSetOutput(host *Host, port *Port, scriptID, text string)

	DumpDir(path string) ([]string, error)

	Verbosity() int
	Debugging() int
}
