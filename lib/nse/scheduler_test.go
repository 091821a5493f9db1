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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noopAsyncIO never completes a suspended task on its own; timeoutSweep
// or an explicit Wake is what moves such a task along in these tests.
type noopAsyncIO struct{}

func (noopAsyncIO) Loop(time.Duration)          {}
func (noopAsyncIO) Register(string, interface{}) {}

func buildImmediateHostTask(t *testing.T, host *Host, result string) *Task {
	script := &Script{
		ID:       "immediate-" + host.Identity,
		HostRule: func(*Host) (interface{}, bool) { return nil, true },
		Action:   func(*Environment, Waiter, interface{}) (string, error) { return result, nil },
		builder:  noopBuilder,
	}
	task, err := BuildHostTask(script, host, nil, noopAsyncIO{})
	require.NoError(t, err)
	require.NotNil(t, task)
	return task
}

func TestScheduler_RunDrainsImmediateTasks(t *testing.T) {
	api := newFakeAPI(t)
	adapter := NewHostAdapter(api)
	sched := NewScheduler(adapter, noopAsyncIO{}, nil, nil, 0, 0)

	host := &Host{Identity: "h1", Address: "10.0.0.1"}
	task := buildImmediateHostTask(t, host, "hello from script")

	sched.Run([]*Task{task})

	assert.Equal(t, StatusDone, task.Status)
	require.Len(t, api.hostOutputs["h1"], 1)
	assert.Contains(t, api.hostOutputs["h1"][0], "hello from script")
}

// wakeOnSecondLoop is an AsyncIO stand-in that wakes the one task it
// was told about the second time the Scheduler drives it, exactly the
// way internal/asyncio wakes a task from inside Scheduler.Run's own
// loop rather than from a separate goroutine.
type wakeOnSecondLoop struct {
	wake   WakeFunc
	taskID string
	calls  int
}

func (w *wakeOnSecondLoop) Register(taskID string, op interface{}) { w.taskID = taskID }

func (w *wakeOnSecondLoop) Loop(time.Duration) {
	w.calls++
	if w.calls == 2 && w.taskID != "" {
		w.wake(w.taskID, "payload")
	}
}

func TestScheduler_WakeResumesWaitingTask(t *testing.T) {
	api := newFakeAPI(t)
	adapter := NewHostAdapter(api)
	asyncIO := &wakeOnSecondLoop{}
	sched := NewScheduler(adapter, asyncIO, nil, nil, 0, 0)
	asyncIO.wake = sched.Wake

	host := &Host{Identity: "h1", Address: "10.0.0.1"}
	script := &Script{
		ID:       "suspends",
		HostRule: func(*Host) (interface{}, bool) { return nil, true },
		Action: func(_ *Environment, w Waiter, _ interface{}) (string, error) {
			args := w.Suspend("wake-op")
			s, _ := args[0].(string)
			return "got " + s, nil
		},
		builder: noopBuilder,
	}
	task, err := BuildHostTask(script, host, nil, asyncIO)
	require.NoError(t, err)

	sched.Run([]*Task{task})

	assert.Equal(t, StatusDone, task.Status)
	require.Len(t, api.hostOutputs["h1"], 1)
	assert.Contains(t, api.hostOutputs["h1"][0], "got payload")
}

func TestScheduler_TimeoutDropsWaitingTask(t *testing.T) {
	api := newFakeAPI(t)
	host := &Host{Identity: "h1", Address: "10.0.0.1"}
	api.timedOut["h1"] = true

	adapter := NewHostAdapter(api)
	sched := NewScheduler(adapter, noopAsyncIO{}, nil, nil, 0, 0)

	script := &Script{
		ID:       "never-wakes",
		HostRule: func(*Host) (interface{}, bool) { return nil, true },
		Action: func(_ *Environment, w Waiter, _ interface{}) (string, error) {
			w.Suspend("op")
			return "should never get here", nil
		},
		builder: noopBuilder,
	}
	task, err := BuildHostTask(script, host, nil, noopAsyncIO{})
	require.NoError(t, err)

	sched.Run([]*Task{task})

	assert.Empty(t, api.hostOutputs["h1"])
}

func TestScheduler_ScrubHostsOnTimeoutEmptiesHostLiveSet(t *testing.T) {
	api := newFakeAPI(t)
	host := &Host{Identity: "h1", Address: "10.0.0.1"}
	api.timedOut["h1"] = true

	adapter := NewHostAdapter(api)
	sched := NewScheduler(adapter, noopAsyncIO{}, nil, nil, 0, 0)
	sched.ScrubHostsOnTimeout = true

	script := &Script{
		ID:       "never-wakes-scrubbed",
		HostRule: func(*Host) (interface{}, bool) { return nil, true },
		Action: func(_ *Environment, w Waiter, _ interface{}) (string, error) {
			w.Suspend("op")
			return "unreachable", nil
		},
		builder: noopBuilder,
	}
	task, err := BuildHostTask(script, host, nil, noopAsyncIO{})
	require.NoError(t, err)

	sched.Run([]*Task{task})

	set, ok := sched.hosts[host.Identity]
	if ok {
		assert.Equal(t, 0, set.Cardinality())
	}
}
