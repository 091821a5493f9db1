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

import "sync"

// Environment is the per-task substitute for the source engine's fresh
// Lua globals table. A script's Builder populates one of these once per
// Task; the predicate and action closures it returns read and write it
// on every resume instead of touching package-level state, so concurrent
// tasks of the same Script never see each other's globals.
type Environment struct {
	mu   sync.RWMutex
	vars map[string]interface{}

	// fallback is consulted when a key is missing locally, mirroring the
	// source's metatable fallback onto the host program's globals.
	fallback map[string]interface{}
}

// NewEnvironment seeds a fresh Environment with the runlevel default and
// the script's filename, matching Task Factory step 1 in spec.md §4.3.
func NewEnvironment(filename string, fallback map[string]interface{}) *Environment {
	return &Environment{
		vars: map[string]interface{}{
			"runlevel": float64(1),
			"filename": filename,
		},
		fallback: fallback,
	}
}

// Set stores a value under key, as a script's top-level assignment would.
func (e *Environment) Set(key string, value interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vars[key] = value
}

// Get looks up key locally, falling back to the host-program globals.
func (e *Environment) Get(key string) (interface{}, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if v, ok := e.vars[key]; ok {
		return v, true
	}
	if e.fallback != nil {
		v, ok := e.fallback[key]
		return v, ok
	}
	return nil, false
}

// Runlevel reads the effective runlevel set by the script, ceiled to the
// next integer and defaulting to 1, per spec.md §3 and §4.3 step 5.
func (e *Environment) Runlevel() int {
	v, ok := e.Get("runlevel")
	if !ok {
		return 1
	}
	n, ok := v.(float64)
	if !ok || n <= 0 {
		return 1
	}
	return ceilInt(n)
}

func ceilInt(n float64) int {
	i := int(n)
	if float64(i) < n {
		i++
	}
	if i < 1 {
		i = 1
	}
	return i
}
