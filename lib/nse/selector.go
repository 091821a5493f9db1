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
	"strings"

	"github.com/xrash/smetrics"
)

// reservedRules may never be supplied explicitly by the user
// (spec.md §3 "Rule Set", §4.2 step 1, §9 "Reserved-rule detection").
var reservedRules = map[string]bool{
	"version": true,
}

// ruleEntry is the dynamic rule table of spec.md §9: keyed by the
// lower-cased canonical token, but remembering the caller's original
// casing so error messages can report it unchanged.
type ruleEntry struct {
	original string
	loaded   bool
}

// Selector resolves user rules against the Script Index into an
// ordered list of loaded Scripts (C3, spec.md §4.2).
type Selector struct {
	api HostAPI
}

// NewSelector builds a Selector bound to the embedding host program.
func NewSelector(api HostAPI) *Selector {
	return &Selector{api: api}
}

// Select runs the full C3 algorithm described in spec.md §4.2.
func (s *Selector) Select(userRules []string) ([]*Script, error) {
	// Step 1: reserved check.
	for _, r := range userRules {
		if reservedRules[strings.ToLower(r)] {
			return nil, newConfigError(
				"explicitly specifying rule '%s' is prohibited", r,
			)
		}
	}

	rules := append([]string{}, userRules...)

	// Step 2: default-mode injection.
	if len(rules) == 0 && s.api.Default() {
		rules = append(rules, "default")
	}

	// Step 3: scanner-requested reserved rules.
	if s.api.ScriptVersion() {
		rules = append(rules, "version")
	}

	// Step 4: rule table, keyed by canonical lower-case token.
	table := map[string]*ruleEntry{}
	var order []string
	wantAll := false
	for _, r := range rules {
		lower := strings.ToLower(r)
		if lower == "all" {
			wantAll = true
		}
		if _, exists := table[lower]; !exists {
			table[lower] = &ruleEntry{original: r}
			order = append(order, lower)
		}
	}

	var loaded []*Script
	seenFilenames := map[string]bool{}

	// Step 5: index-driven loading.
	entries, err := s.loadIndex()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		cat := strings.ToLower(e.Category)
		entry, hasToken := table[cat]
		matchesAll := wantAll && cat != "version"
		if !hasToken && !matchesAll {
			continue
		}
		if hasToken {
			entry.loaded = true
		}
		if matchesAll {
			table["all"].loaded = true
		}
		if seenFilenames[e.Filename] {
			continue
		}
		script, err := LoadScript(e.Filename)
		if err != nil {
			return nil, err
		}
		seenFilenames[e.Filename] = true
		loaded = append(loaded, script)
	}

	// Step 6: by-name loading, for every rule not yet satisfied, in the
	// order the user originally supplied them.
	for _, k := range order {
		entry := table[k]
		if entry.loaded {
			continue
		}
		more, err := s.resolveByName(entry.original, seenFilenames)
		if err != nil {
			return nil, err
		}
		entry.loaded = true
		loaded = append(loaded, more...)
	}

	return loaded, nil
}

func (s *Selector) loadIndex() ([]IndexEntry, error) {
	path := s.api.ScriptDBPath()
	entries, err := LoadIndex(path)
	if err == nil {
		return entries, nil
	}
	logger().Warnf("script index %s unreadable, attempting rebuild: %v", path, err)
	if !s.api.UpdateDB() {
		return nil, wrapConfigError(err, "script index %s is missing or corrupt and rebuild failed", path)
	}
	entries, err = LoadIndex(path)
	if err != nil {
		return nil, wrapConfigError(err, "script index %s is still missing or corrupt after rebuild", path)
	}
	return entries, nil
}

// resolveByName implements spec.md §4.2 step 6: try as a file, then as
// a file with ".nse" appended, then as a directory (loading every file
// in it, skipping ones already loaded), and otherwise raise the
// "No such category, filename or directory" error.
func (s *Selector) resolveByName(rule string, seenFilenames map[string]bool) ([]*Script, error) {
	kind, abs := s.api.FetchFileAbsolute(rule)
	if kind == FileKindNone {
		kind, abs = s.api.FetchFileAbsolute(rule + ".nse")
	}

	switch kind {
	case FileKindFile:
		if seenFilenames[abs] {
			return nil, nil
		}
		script, err := LoadScript(abs)
		if err != nil {
			return nil, err
		}
		seenFilenames[abs] = true
		return []*Script{script}, nil

	case FileKindDirectory:
		names, err := s.api.DumpDir(abs)
		if err != nil {
			return nil, wrapConfigError(err, "failed to enumerate directory %s", abs)
		}
		var out []*Script
		for _, f := range names {
			if seenFilenames[f] {
				continue
			}
			script, err := LoadScript(f)
			if err != nil {
				return nil, err
			}
			seenFilenames[f] = true
			out = append(out, script)
		}
		return out, nil

	default:
		return nil, newConfigError("No such category, filename or directory: %s%s", rule, suggestion(rule))
	}
}

// suggestion appends a "did you mean" hint using Jaro-Winkler similarity
// against every registered script filename. It never
// changes the mandated error text itself (spec.md §8 scenario 6), only
// appends to it.
func suggestion(rule string) string {
	best := ""
	bestScore := 0.0
	for _, f := range RegisteredFilenames() {
		score := smetrics.JaroWinkler(strings.ToLower(rule), strings.ToLower(f), 0.7, 4)
		if score > bestScore {
			bestScore = score
			best = f
		}
	}
	if best == "" || bestScore < 0.7 {
		return ""
	}
	return " (did you mean \"" + best + "\"?)"
}
