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
	"fmt"

	uuid "github.com/satori/go.uuid"
)

// TaskKind distinguishes a host Task from a port Task (spec.md §3).
type TaskKind int

const (
	TaskHost TaskKind = iota
	TaskPort
)

// TaskStatus is the suspension state of a Task (spec.md §3).
type TaskStatus int

const (
	StatusReady TaskStatus = iota
	StatusRunning
	StatusWaiting
	StatusPending
	StatusDone
)

func (s TaskStatus) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusWaiting:
		return "waiting"
	case StatusPending:
		return "pending"
	case StatusDone:
		return "done"
	default:
		return "unknown"
	}
}

// eventKind is what a task's goroutine reports back to the Scheduler
// after being resumed.
type eventKind int

const (
	eventYielded eventKind = iota
	eventDone
	eventErrored
)

type taskEvent struct {
	kind   eventKind
	result string
	err    error
}

// Task is an ephemeral execution unit: one invocation of a Script
// against a specific host or (host, port), per spec.md §3.
type Task struct {
	ID       string
	Script   *Script
	Kind     TaskKind
	Host     *Host
	Port     *Port
	Runlevel int

	env           *Environment
	predicateArgs interface{}

	Status TaskStatus
	Output *string // set once, on normal completion with a string result

	resumeArgs []interface{}

	started   bool
	resumeCh  chan []interface{}
	eventCh   chan taskEvent
	asyncIO   AsyncIO
}

// String implements fmt.Stringer for log lines such as
// "<task> target timed out" (spec.md §8 scenario 5).
func (t *Task) String() string {
	if t.Kind == TaskPort && t.Port != nil {
		return fmt.Sprintf("%s against %s:%d", t.Script.ID, t.Host.Address, t.Port.Number)
	}
	return fmt.Sprintf("%s against %s", t.Script.ID, t.Host.Address)
}

// newTaskID mints the opaque per-task identifier used for logs and for
// correlating wake() calls with their waiting task (spec.md §3, §4.5).
func newTaskID() string {
	return uuid.NewV4().String()
}

// BuildHostTask is the Task Factory (C4) for a hostrule. It returns
// (nil, nil) when the predicate returns falsy — spec.md §4.3 step 3:
// "discard the context; no task is produced."
func BuildHostTask(script *Script, host *Host, runlevelFallback map[string]interface{}, asyncIO AsyncIO) (*Task, error) {
	if !script.HasHostRule() {
		return nil, nil
	}
	env := script.newEnvironment(runlevelFallback)

	// Clone before the predicate ever runs, not after: a host snapshot
	// is owned by its Task from the moment it exists (spec.md §3
	// "Ownership"), so a predicate can never mutate the scanner's
	// canonical host out from under another script's view of it.
	snapshot := host.Clone()

	args, truthy, err := invokeHostRule(script.HostRule, snapshot)
	if err != nil {
		return nil, newTaskError(err)
	}
	if !truthy {
		return nil, nil
	}

	return &Task{
		ID:            newTaskID(),
		Script:        script,
		Kind:          TaskHost,
		Host:          snapshot,
		Runlevel:      env.Runlevel(),
		env:           env,
		predicateArgs: args,
		Status:        StatusReady,
		resumeCh:      make(chan []interface{}),
		eventCh:       make(chan taskEvent, 1),
		asyncIO:       asyncIO,
	}, nil
}

// BuildPortTask is the Task Factory (C4) for a portrule.
func BuildPortTask(script *Script, host *Host, port *Port, runlevelFallback map[string]interface{}, asyncIO AsyncIO) (*Task, error) {
	if !script.HasPortRule() {
		return nil, nil
	}
	env := script.newEnvironment(runlevelFallback)

	hostSnapshot := host.Clone()
	portSnapshot := port.Clone()

	args, truthy, err := invokePortRule(script.PortRule, hostSnapshot, portSnapshot)
	if err != nil {
		return nil, newTaskError(err)
	}
	if !truthy {
		return nil, nil
	}

	return &Task{
		ID:            newTaskID(),
		Script:        script,
		Kind:          TaskPort,
		Host:          hostSnapshot,
		Port:          portSnapshot,
		Runlevel:      env.Runlevel(),
		env:           env,
		predicateArgs: args,
		Status:        StatusReady,
		resumeCh:      make(chan []interface{}),
		eventCh:       make(chan taskEvent, 1),
		asyncIO:       asyncIO,
	}, nil
}

// invokeHostRule runs a hostrule, recovering a panic into an error the
// same way the source engine turns a Lua runtime error into a logged,
// task-discarding failure (spec.md §4.3 "Failure").
func invokeHostRule(rule HostRule, host *Host) (args interface{}, truthy bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hostrule panic: %v", r)
		}
	}()
	args, truthy = rule(host)
	return args, truthy, nil
}

func invokePortRule(rule PortRule, host *Host, port *Port) (args interface{}, truthy bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("portrule panic: %v", r)
		}
	}()
	args, truthy = rule(host, port)
	return args, truthy, nil
}

// start launches the Task's action on its own goroutine the first time
// the Scheduler resumes it. From then on resume()/events flow over
// resumeCh/eventCh; only one task's goroutine is ever unblocked at a
// time because the Scheduler's run sweep waits on eventCh before
// touching the next task (spec.md §5 "exactly one task is on the CPU").
func (t *Task) start() {
	t.started = true
	go func() {
		w := &taskWaiter{task: t}
		result, err := runAction(t.Script.Action, t.env, w, t.predicateArgs)
		if err != nil {
			t.eventCh <- taskEvent{kind: eventErrored, err: newTaskError(err)}
			return
		}
		t.eventCh <- taskEvent{kind: eventDone, result: result}
	}()
}

func runAction(action Action, env *Environment, w Waiter, predicateArgs interface{}) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panic: %v", r)
		}
	}()
	return action(env, w, predicateArgs)
}

// resume hands resumeArgs to the task's blocked goroutine (or starts it,
// for the first resume) and blocks until the task yields or finishes.
// This is the Scheduler's "run sweep" step for one task (spec.md §4.5
// step 4).
func (t *Task) resume(resumeArgs []interface{}) taskEvent {
	if !t.started {
		t.start()
	} else {
		t.resumeCh <- resumeArgs
	}
	return <-t.eventCh
}

// Waiter is what an Action uses to suspend itself on the asynchronous
// I/O layer. Suspend blocks the task's goroutine (not the Scheduler)
// until the stable wake hook fires for this task's ID.
type Waiter interface {
	Suspend(op interface{}) []interface{}
}

type taskWaiter struct {
	task *Task
}

func (w *taskWaiter) Suspend(op interface{}) []interface{} {
	w.task.asyncIO.Register(w.task.ID, op)
	w.task.eventCh <- taskEvent{kind: eventYielded}
	return <-w.task.resumeCh
}
