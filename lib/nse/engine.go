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

// Engine is the embedded entry point of spec.md §6: "The engine is
// loaded once by its host program and given (api, rules) ... It
// returns a callable invoked once per scan with (hosts)."
type Engine struct {
	api     HostAPI
	scripts []*Script

	// newAsyncIO builds a fresh AsyncIO for one Scheduler.Run call,
	// wired to that Scheduler's Wake hook. internal/asyncio provides the
	// reference implementation; embedders of this package supply their
	// own factory over New's newAsyncIO parameter.
	newAsyncIO func(wake WakeFunc) AsyncIO
}

// New is the engine's embedding constructor: "loaded once ... given
// (api, rules)" (spec.md §6). It runs the Selector immediately, since
// script loading happens once at load time, not once per scan.
func New(api HostAPI, rules []string, newAsyncIO func(wake WakeFunc) AsyncIO) (*Engine, error) {
	scripts, err := NewSelector(api).Select(rules)
	if err != nil {
		return nil, err
	}
	logger().Infof("Loaded %d scripts for scanning.", len(scripts))
	return &Engine{api: api, scripts: scripts, newAsyncIO: newAsyncIO}, nil
}

// Scripts returns the ordered list of scripts this engine loaded.
func (e *Engine) Scripts() []*Script { return e.scripts }

// Scan is the callable returned by the embedding constructor: "invoked
// once per scan with (hosts)" (spec.md §6). It builds every task for
// every (script, host[, port]) combination, partitions them by
// runlevel, and drains each runlevel's bucket through a fresh
// Scheduler before moving to the next.
func (e *Engine) Scan(hosts []*Host) error {
	adapter := NewHostAdapter(e.api)

	// The Argument Preloader (C8) parses --script-args once per scan;
	// its keyed mapping becomes every task's Environment fallback, so an
	// action reads a preloaded argument with env.Get("name") the same
	// way it reads any other top-level binding (spec.md §4.8, §6).
	preloaded, err := ParseScriptArgs(e.api.ScriptArgs())
	if err != nil {
		return err
	}
	fallback := make(map[string]interface{}, len(preloaded))
	for k, v := range preloaded {
		fallback[k] = v
	}

	var tasks []*Task
	buildErrs := 0

	// Predicate evaluation (spec.md §4.3) never itself suspends, so
	// task construction needs no AsyncIO yet; the Scheduler wires each
	// task's AsyncIO to its own Wake hook just before running its
	// runlevel bucket.
	for _, script := range e.scripts {
		for _, host := range hosts {
			t, err := BuildHostTask(script, host, fallback, nil)
			if err != nil {
				buildErrs++
				logger().Debugf("hostrule for %s against %s failed: %v", script.ID, host.Address, err)
				continue
			}
			if t != nil {
				tasks = append(tasks, t)
			}
		}
	}
	for _, script := range e.scripts {
		for _, host := range hosts {
			for _, port := range e.api.Ports(host) {
				t, err := BuildPortTask(script, host, port, fallback, nil)
				if err != nil {
					buildErrs++
					logger().Debugf("portrule for %s against %s:%d failed: %v", script.ID, host.Address, port.Number, err)
					continue
				}
				if t != nil {
					tasks = append(tasks, t)
				}
			}
		}
	}

	levels := PartitionByRunlevel(tasks)
	for _, level := range levels {
		bucket := TasksInRunlevel(tasks, level)
		progress := e.api.ScanProgressMeter("nse")
		sched := NewScheduler(adapter, nil, progress, e.api.KeyWasPressed, e.api.Verbosity(), e.api.Debugging())
		wired := e.newAsyncIO(sched.Wake)
		sched.asyncIO = wired
		for _, t := range bucket {
			t.asyncIO = wired
		}
		sched.Run(bucket)
		if progress != nil {
			progress.EndTask()
		}
	}

	logger().Info("Script Scanning completed.")
	return nil
}
