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
	"path/filepath"
	"strings"

	"github.com/asaskevich/govalidator"
)

// HostRule decides whether a Script applies to a host. A true second
// result produces a host Task; the first result is handed to the action.
type HostRule func(host *Host) (interface{}, bool)

// PortRule decides whether a Script applies to a (host, port) pair.
type PortRule func(host *Host, port *Port) (interface{}, bool)

// Action is a script's action function. It receives whatever the
// predicate returned, runs against env, and may suspend on w before
// returning its optional text result.
type Action func(env *Environment, w Waiter, predicateArgs interface{}) (string, error)

// Builder populates env with a script's top-level bindings: categories,
// author, license, description, runlevel, hostrule/portrule and action.
// It is the Go-native stand-in for "compiling the script body" — see
// SPEC_FULL.md §3 for why a registry of Builders replaces dynamic
// evaluation of a foreign scripting language.
type Builder func(env *Environment)

// declared is what a Builder is expected to have written into env by
// the time it returns; readDeclared extracts it.
type declared struct {
	categories  []string
	author      string
	license     string
	description string
	hostrule    HostRule
	portrule    PortRule
	action      Action
	runlevel    int
}

// Script is an immutable descriptor loaded once by the Script Loader.
// It is shared read-only by every Task built from it (spec.md §3).
type Script struct {
	Filename      string // absolute/logical path, e.g. "http-title.nse"
	Basename      string
	ShortBasename string // basename without ".nse"/".nse.go"
	ID            string // == ShortBasename

	Categories  []string
	Author      string
	License     string
	Description string

	HostRule HostRule
	PortRule PortRule
	Action   Action
	Runlevel int

	builder Builder
}

// HasHostRule reports whether the script can apply to bare hosts.
func (s *Script) HasHostRule() bool { return s.HostRule != nil }

// HasPortRule reports whether the script can apply to (host, port) pairs.
func (s *Script) HasPortRule() bool { return s.PortRule != nil }

// newEnvironment builds a fresh per-task Environment and re-runs the
// script's Builder into it, exactly as spec.md §4.1 describes: "The
// body closure is retained and re-evaluated into a fresh environment
// per Task."
func (s *Script) newEnvironment(fallback map[string]interface{}) *Environment {
	env := NewEnvironment(s.Filename, fallback)
	s.builder(env)
	return env
}

// LoadScript is the Script Loader (C2). filename is looked up in the
// package registry populated by script files' init() functions (see
// registry.go); loading does not touch the filesystem beyond the
// ".nse" extension-warning check, since scripts are compiled Go code.
func LoadScript(filename string) (*Script, error) {
	if !strings.HasSuffix(filename, ".nse") && !strings.HasSuffix(filename, ".nse.go") {
		logger().Warnf("%s: script filename does not end in .nse", filename)
	}

	builder, ok := lookupBuilder(filename)
	if !ok {
		return nil, newConfigError("%s: no script registered for this filename", filename)
	}

	// Execute the body once in a throwaway environment purely to inspect
	// declared fields (spec.md §4.1 step 3).
	probe := NewEnvironment(filename, nil)
	builder(probe)

	d, err := readDeclared(filename, probe)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(filename)
	short := strings.TrimSuffix(strings.TrimSuffix(base, ".go"), ".nse")

	return &Script{
		Filename:      filename,
		Basename:      base,
		ShortBasename: short,
		ID:            short,
		Categories:    d.categories,
		Author:        d.author,
		License:       d.license,
		Description:   d.description,
		HostRule:      d.hostrule,
		PortRule:      d.portrule,
		Action:        d.action,
		Runlevel:      d.runlevel,
		builder:       builder,
	}, nil
}

// readDeclared validates the fields a Builder wrote into probe, per the
// required-field rules of spec.md §3/§4.1: description must be present,
// action must be set, categories must be a non-empty sequence of
// strings, and at least one of hostrule/portrule must be set.
func readDeclared(filename string, probe *Environment) (*declared, error) {
	d := &declared{runlevel: 1}

	if v, ok := probe.Get("description"); ok {
		s, ok := v.(string)
		if !ok {
			return nil, newConfigError("%s: field 'description' must be a string", filename)
		}
		d.description = s
	}
	if d.description == "" {
		return nil, newConfigError("%s: missing required field 'description'", filename)
	}

	if v, ok := probe.Get("categories"); ok {
		cats, ok := v.([]string)
		if !ok {
			return nil, newConfigError("%s: field 'categories' must be a sequence of strings", filename)
		}
		if len(cats) == 0 {
			return nil, newConfigError("%s: field 'categories' must be non-empty", filename)
		}
		for _, c := range cats {
			if c == "" || !govalidator.IsPrintableASCII(c) {
				return nil, newConfigError("%s: invalid category tag %q", filename, c)
			}
		}
		d.categories = cats
	} else {
		return nil, newConfigError("%s: missing required field 'categories'", filename)
	}

	if v, ok := probe.Get("action"); ok {
		a, ok := v.(Action)
		if !ok {
			return nil, newConfigError("%s: field 'action' must be callable", filename)
		}
		d.action = a
	} else {
		return nil, newConfigError("%s: missing required field 'action'", filename)
	}

	if v, ok := probe.Get("hostrule"); ok {
		hr, ok := v.(HostRule)
		if !ok {
			return nil, newConfigError("%s: field 'hostrule' must be callable", filename)
		}
		d.hostrule = hr
	}
	if v, ok := probe.Get("portrule"); ok {
		pr, ok := v.(PortRule)
		if !ok {
			return nil, newConfigError("%s: field 'portrule' must be callable", filename)
		}
		d.portrule = pr
	}
	if d.hostrule == nil && d.portrule == nil {
		return nil, newConfigError("%s: script must declare hostrule and/or portrule", filename)
	}

	if v, ok := probe.Get("author"); ok {
		if s, ok := v.(string); ok {
			d.author = s
		}
	}
	if v, ok := probe.Get("license"); ok {
		if s, ok := v.(string); ok {
			d.license = s
		}
	}

	d.runlevel = probe.Runlevel()

	return d, nil
}
