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
	"github.com/mitchellh/copystructure"
)

// Host is a value snapshot of a scanned target, handed to tasks. Only
// the fields scripts actually read live here; the scanner's canonical
// host object is referenced only by Identity for timeout bookkeeping
// (spec.md §3 "Ownership").
type Host struct {
	Identity string // weak identity used as the key into hosts[h]
	Address  string
	Hostname string
	OS       string
	Extra    map[string]interface{}
}

// Port is a value snapshot of one open port on a Host.
type Port struct {
	Number   int
	Protocol string
	Service  string
	Version  string
	Extra    map[string]interface{}
}

// Clone deep-copies the Host via mitchellh/copystructure so that a task
// mutating its own snapshot can never affect another task's view of the
// same host (spec.md §3 Ownership, §8 "Deep copy" invariant).
func (h *Host) Clone() *Host {
	if h == nil {
		return nil
	}
	out, err := copystructure.Copy(h)
	if err != nil {
		// copystructure only fails on unsupported field kinds; Host's
		// fields are all copyable. Fall back to a shallow field copy
		// rather than panicking a running scan.
		clone := *h
		clone.Extra = cloneExtra(h.Extra)
		return &clone
	}
	return out.(*Host)
}

// Clone deep-copies the Port the same way Host.Clone does.
func (p *Port) Clone() *Port {
	if p == nil {
		return nil
	}
	out, err := copystructure.Copy(p)
	if err != nil {
		clone := *p
		clone.Extra = cloneExtra(p.Extra)
		return &clone
	}
	return out.(*Port)
}

func cloneExtra(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
