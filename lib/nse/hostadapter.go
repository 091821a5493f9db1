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

// HostAdapter is the thin façade (C1) the Scheduler drives to manage a
// host's timeout clock and to deliver sanitized task output. Timeout
// clocks are implicitly reference-counted by the Scheduler's hosts[h]
// set becoming empty (spec.md §4.6).
type HostAdapter struct {
	api HostAPI
}

// NewHostAdapter wraps a HostAPI implementation.
func NewHostAdapter(api HostAPI) *HostAdapter {
	return &HostAdapter{api: api}
}

func (a *HostAdapter) StartTimeoutClock(h *Host) { a.api.StartTimeoutClock(h) }
func (a *HostAdapter) StopTimeoutClock(h *Host)   { a.api.StopTimeoutClock(h) }
func (a *HostAdapter) TimedOut(h *Host) bool      { return a.api.TimedOut(h) }
func (a *HostAdapter) Ports(h *Host) []*Port      { return a.api.Ports(h) }

// DeliverHostOutput sanitizes text and hands it to the host output sink.
func (a *HostAdapter) DeliverHostOutput(h *Host, scriptID, text string) {
	a.api.HostSetOutput(h, scriptID, Sanitize(text))
}

// DeliverPortOutput sanitizes text and hands it to the port output sink.
func (a *HostAdapter) DeliverPortOutput(h *Host, p *Port, scriptID, text string) {
	a.api.PortSetOutput(h, p, scriptID, Sanitize(text))
}
