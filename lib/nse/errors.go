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

// Package nse implements the Network Scripting Engine: script loading,
// selection, cooperative task scheduling and output sanitization for a
// host network scanner.
package nse

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigError is fatal to the whole scan: missing script index after a
// rebuild attempt, an explicitly-supplied reserved rule, an unresolved
// rule, a script validation failure, or malformed script arguments.
// See spec.md §7.
type ConfigError struct {
	cause error
}

func (e *ConfigError) Error() string { return e.cause.Error() }
func (e *ConfigError) Unwrap() error { return e.cause }

func newConfigError(format string, args ...interface{}) *ConfigError {
	return &ConfigError{cause: errors.WithStack(fmt.Errorf(format, args...))}
}

func wrapConfigError(err error, format string, args ...interface{}) *ConfigError {
	return &ConfigError{cause: errors.Wrapf(err, format, args...)}
}

// TaskError wraps an error raised by an applicability predicate or an
// action. It is never fatal to the scan: the offending task is
// discarded and logged with its stack trace (spec.md §4.3, §4.5, §7).
type TaskError struct {
	cause error
}

func (e *TaskError) Error() string { return e.cause.Error() }
func (e *TaskError) Unwrap() error { return e.cause }

// StackTrace exposes the captured frames for logging with "%+v".
func (e *TaskError) StackTrace() errors.StackTrace {
	type tracer interface{ StackTrace() errors.StackTrace }
	if t, ok := e.cause.(tracer); ok {
		return t.StackTrace()
	}
	return nil
}

func newTaskError(err error) *TaskError {
	return &TaskError{cause: errors.WithStack(err)}
}
