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
	nse.Register("http-title.nse", httpTitleBuilder)
}

// httpTitleBuilder mirrors http-title.nse's real shape: it runs against
// any port the scanner already identified as speaking http, suspends
// once to simulate the GET, and reports the page title it "fetched".
func httpTitleBuilder(env *nse.Environment) {
	env.Set("description", "Fetches the title of the root page on http-like ports.")
	env.Set("categories", []string{"discovery", "safe"})
	env.Set("author", "netscan contributors")
	env.Set("license", "Same as netscan itself")
	env.Set("runlevel", float64(1))

	env.Set("portrule", nse.PortRule(func(host *nse.Host, port *nse.Port) (interface{}, bool) {
		matches := port.Protocol == "tcp" && (port.Service == "http" || port.Number == 80 || port.Number == 8080)
		if !matches {
			return nil, false
		}
		return fmt.Sprintf("%s:%d", host.Address, port.Number), true
	}))

	env.Set("action", nse.Action(func(_ *nse.Environment, w nse.Waiter, predicateArgs interface{}) (string, error) {
		w.Suspend(asyncio.Wait{After: 20 * time.Millisecond})
		target, _ := predicateArgs.(string)
		return fmt.Sprintf("Title: Example Domain (%s)", target), nil
	}))
}
