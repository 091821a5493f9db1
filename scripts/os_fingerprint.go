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

package scripts

import (
	"fmt"
	"time"

	"github.com/gonse/netscan/internal/asyncio"
	"github.com/gonse/netscan/lib/nse"
)

func init() {
	nse.Register("os-fingerprint.nse", osFingerprintBuilder)
}

// osFingerprintBuilder runs one runlevel after the port scripts
// (runlevel 2), matching the source engine's convention that OS/topology
// scripts read results left behind by earlier, cheaper scripts. It reads
// "oshint", a preloaded --script-args key, out of its Environment's
// fallback to show the Argument Preloader flowing all the way through
// to an action.
func osFingerprintBuilder(env *nse.Environment) {
	env.Set("description", "Guesses the remote OS family from already-collected host state.")
	env.Set("categories", []string{"discovery"})
	env.Set("author", "netscan contributors")
	env.Set("license", "Same as netscan itself")
	env.Set("runlevel", float64(2))

	env.Set("hostrule", nse.HostRule(func(host *nse.Host) (interface{}, bool) {
		if host.OS != "" {
			return nil, false
		}
		return host.Address, true
	}))

	env.Set("action", nse.Action(func(env *nse.Environment, w nse.Waiter, predicateArgs interface{}) (string, error) {
		w.Suspend(asyncio.Wait{After: 30 * time.Millisecond})
		address, _ := predicateArgs.(string)
		guess := "unknown"
		if hint, ok := env.Get("oshint"); ok {
			if s, ok := hint.(string); ok && s != "" {
				guess = s + " (hinted by scriptargs)"
			}
		}
		return fmt.Sprintf("os-fingerprint: %s is likely %s", address, guess), nil
	}))
}
