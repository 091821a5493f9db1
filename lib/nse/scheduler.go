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
	"runtime"
	"time"

	"github.com/davecgh/go-spew/spew"
	mapset "github.com/deckarep/golang-set"
	"github.com/fatih/color"
)

// nsockBudget is the short per-tick budget the Scheduler gives the
// asynchronous I/O layer, per spec.md §4.5 step 1.
const nsockBudget = 50 * time.Millisecond

// AsyncIO is the external asynchronous networking layer the Scheduler
// drives. A real embedder backs this with an actual event loop
// (nsock-equivalent); internal/asyncio provides a timer-driven stand-in
// for tests and the demo CLI (spec.md §1 "Out of scope", §6).
type AsyncIO interface {
	// Loop drives pending operations for up to budget, invoking the
	// Scheduler's wake hook (supplied at construction) for every
	// operation that completes within the budget.
	Loop(budget time.Duration)
	// Register tells the async layer that taskID is now waiting on op;
	// op is opaque to the Scheduler — only Register's implementation
	// and the Action that produced it agree on its shape.
	Register(taskID string, op interface{})
}

// WakeFunc is the stable hook described in spec.md §4.5 "Wake-up
// contract": the asynchronous I/O layer calls it to mark a suspended
// task runnable again.
type WakeFunc func(taskID string, args ...interface{})

// Scheduler is the cooperative loop over one runlevel (C6, spec.md
// §4.5). A fresh Scheduler is used per runlevel so that runlevel k+1
// never shares running/waiting/pending state with runlevel k.
type Scheduler struct {
	adapter *HostAdapter
	asyncIO AsyncIO

	running mapset.Set
	waiting mapset.Set
	pending mapset.Set
	hosts   map[string]mapset.Set // host identity -> live task IDs
	byID    map[string]*Task

	total int
	ticks int

	progress ProgressMeter
	keyPress func() bool
	debug    int
	verbose  int

	// ScrubHostsOnTimeout controls whether a timed-out task is also
	// removed from hosts[host] immediately. The source engine does not
	// do this — see spec.md §9 Open Questions — so the default is
	// false, replicating that behavior; set true to fix it.
	ScrubHostsOnTimeout bool
}

// NewScheduler builds a Scheduler for one runlevel.
func NewScheduler(adapter *HostAdapter, asyncIO AsyncIO, progress ProgressMeter, keyPress func() bool, verbose, debug int) *Scheduler {
	return &Scheduler{
		adapter:  adapter,
		asyncIO:  asyncIO,
		running:  mapset.NewSet(),
		waiting:  mapset.NewSet(),
		pending:  mapset.NewSet(),
		hosts:    map[string]mapset.Set{},
		byID:     map[string]*Task{},
		progress: progress,
		keyPress: keyPress,
		verbose:  verbose,
		debug:    debug,
	}
}

// Wake is the stable hook of spec.md §4.5 "Wake-up contract". Wake-ups
// for unknown or non-waiting tasks are ignored.
func (s *Scheduler) Wake(taskID string, args ...interface{}) {
	if !s.waiting.Contains(taskID) {
		return
	}
	s.waiting.Remove(taskID)
	s.pending.Add(taskID)
	if t, ok := s.byID[taskID]; ok {
		t.resumeArgs = args
	}
}

// Run drives every task in tasks to completion, enforcing per-host
// timeouts, and returns once both running and waiting are empty
// (spec.md §4.5 "Outer loop").
func (s *Scheduler) Run(tasks []*Task) {
	s.total = len(tasks)
	for _, t := range tasks {
		t.Status = StatusRunning
		s.byID[t.ID] = t
		s.running.Add(t.ID)
		s.liveSet(t.Host.Identity).Add(t.ID)
	}

	for !s.running.IsEmpty() || !s.waiting.IsEmpty() {
		s.asyncIO.Loop(nsockBudget)
		s.reportProgress()
		s.timeoutSweep()
		s.runSweep()
		s.promotePending()
		s.reclaimHint()
		runtime.Gosched()
	}
}

// gcTickInterval throttles reclaimHint so a long scan doesn't pay for a
// GC cycle every 50ms tick.
const gcTickInterval = 40

// reclaimHint implements spec.md §4.5 step 6: periodically nudge the
// garbage collector so sockets, buffers, and transient proxies that
// scripts dropped this tick don't pile up over a long scan.
func (s *Scheduler) reclaimHint() {
	s.ticks++
	if s.ticks%gcTickInterval == 0 {
		runtime.GC()
	}
}

func (s *Scheduler) liveSet(hostID string) mapset.Set {
	set, ok := s.hosts[hostID]
	if !ok {
		set = mapset.NewSet()
		s.hosts[hostID] = set
	}
	return set
}

func (s *Scheduler) fractionDone() float64 {
	if s.total == 0 {
		return 1
	}
	live := s.running.Cardinality() + s.waiting.Cardinality() + s.pending.Cardinality()
	return float64(s.total-live) / float64(s.total)
}

// reportProgress implements spec.md §4.5 step 2.
func (s *Scheduler) reportProgress() {
	if s.keyPress != nil && s.keyPress() {
		color.New(color.FgCyan).Printf(
			"Active threads: %d (%d waiting)\n",
			s.running.Cardinality()+s.pending.Cardinality(),
			s.waiting.Cardinality(),
		)
		if s.progress != nil {
			s.progress.PrintStats(s.fractionDone())
		}
		return
	}
	if s.progress == nil {
		return
	}
	if s.verbose > 0 || s.debug > 0 {
		s.progress.PrintStats(s.fractionDone())
		return
	}
	if s.progress.MayBePrinted() {
		s.progress.PrintStatsIfNecessary(s.fractionDone())
	}
}

// timeoutSweep implements spec.md §4.5 step 3, including the
// documented source quirk: hosts[host] is not scrubbed here unless
// ScrubHostsOnTimeout is set.
func (s *Scheduler) timeoutSweep() {
	for _, id := range s.waiting.ToSlice() {
		taskID := id.(string)
		t := s.byID[taskID]
		if t == nil {
			continue
		}
		if !s.adapter.TimedOut(t.Host) {
			continue
		}
		s.waiting.Remove(taskID)
		logger().WithField("task_id", taskID).Infof("%s target timed out", t.String())
		if s.ScrubHostsOnTimeout {
			if set, ok := s.hosts[t.Host.Identity]; ok {
				set.Remove(taskID)
				if set.Cardinality() == 0 {
					s.adapter.StopTimeoutClock(t.Host)
				}
			}
		}
	}
}

// runSweep implements spec.md §4.5 step 4: advance every task currently
// in running, snapshotting the set first so wakes triggered during the
// sweep don't get resumed in the same tick.
func (s *Scheduler) runSweep() {
	snapshot := s.running.ToSlice()
	for _, id := range snapshot {
		taskID := id.(string)
		if !s.running.Contains(taskID) {
			continue
		}
		t := s.byID[taskID]
		s.adapter.StartTimeoutClock(t.Host)

		event := t.resume(t.resumeArgs)
		t.resumeArgs = nil

		switch event.kind {
		case eventErrored:
			s.logTaskError(t, event.err)
			s.running.Remove(taskID)
			s.dropFromHost(t)
		case eventDone:
			s.running.Remove(taskID)
			t.Status = StatusDone
			if event.result != "" {
				out := event.result
				t.Output = &out
				s.deliver(t, out)
			}
			s.dropFromHost(t)
		case eventYielded:
			s.running.Remove(taskID)
			s.waiting.Add(taskID)
			t.Status = StatusWaiting
		}
	}
}

func (s *Scheduler) deliver(t *Task, result string) {
	switch t.Kind {
	case TaskHost:
		s.adapter.DeliverHostOutput(t.Host, t.Script.ID, result)
	case TaskPort:
		s.adapter.DeliverPortOutput(t.Host, t.Port, t.Script.ID, result)
	}
}

func (s *Scheduler) dropFromHost(t *Task) {
	set, ok := s.hosts[t.Host.Identity]
	if !ok {
		return
	}
	set.Remove(t.ID)
	if set.Cardinality() == 0 {
		s.adapter.StopTimeoutClock(t.Host)
	}
}

func (s *Scheduler) logTaskError(t *Task, err error) {
	entry := logger().WithField("task_id", t.ID)
	if te, ok := err.(*TaskError); ok {
		if st := te.StackTrace(); st != nil {
			entry = entry.WithField("stack", spew.Sdump(st))
		}
	}
	entry.Debugf("%s failed: %v", t.String(), err)
}

// promotePending implements spec.md §4.5 step 5.
func (s *Scheduler) promotePending() {
	for _, id := range s.pending.ToSlice() {
		taskID := id.(string)
		s.pending.Remove(taskID)
		s.running.Add(taskID)
		if t, ok := s.byID[taskID]; ok {
			t.Status = StatusRunning
		}
	}
}
