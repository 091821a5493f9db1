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

	"github.com/gonse/netscan/lib/nse"
)

func init() {
	nse.Register("ssh-hostkey.nse", sshHostkeyBuilder)
}

// sshHostkeyBuilder never suspends: its action returns on the same tick
// it is resumed, exercising the Scheduler's eventDone path directly from
// a task's first resume.
func sshHostkeyBuilder(env *nse.Environment) {
	env.Set("description", "Reports the host key fingerprint offered on ssh ports.")
	env.Set("categories", []string{"discovery", "safe", "auth"})
	env.Set("author", "netscan contributors")
	env.Set("license", "Same as netscan itself")
	env.Set("runlevel", float64(1))

	env.Set("portrule", nse.PortRule(func(host *nse.Host, port *nse.Port) (interface{}, bool) {
		if port.Protocol != "tcp" || (port.Service != "ssh" && port.Number != 22) {
			return nil, false
		}
		return port.Number, true
	}))

	env.Set("action", nse.Action(func(_ *nse.Environment, _ nse.Waiter, predicateArgs interface{}) (string, error) {
		number, _ := predicateArgs.(int)
		return fmt.Sprintf("ssh-hostkey: ED25519 SHA256:demo-fingerprint (port %d)", number), nil
	}))
}
