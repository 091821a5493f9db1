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
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Builder{}
)

// Register adds a script Builder under its logical filename. Script
// files call this from an init() function, the same way database
// drivers or image codecs register themselves with the standard
// library — see SPEC_FULL.md §3 for why this replaces dynamic source
// evaluation in the Go port of the engine.
func Register(filename string, b Builder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[filename]; exists {
		panic("nse: script already registered: " + filename)
	}
	registry[filename] = b
}

func lookupBuilder(filename string) (Builder, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := registry[filename]
	return b, ok
}

// RegisteredFilenames returns every filename currently registered,
// sorted by registration-independent lexical order. It backs the
// Selector's "did you mean" suggestion for an unresolved rule and the
// reference index generator in internal/scandb.
func RegisteredFilenames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for f := range registry {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
