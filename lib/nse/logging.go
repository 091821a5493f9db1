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

import log "github.com/sirupsen/logrus"

var pkgLogger = log.WithField("component", "nse")

// logger returns the package-wide structured logger. Embedders that
// want scan logs folded into their own logrus.Logger can call
// SetLogger before running a scan.
func logger() *log.Entry {
	return pkgLogger
}

// SetLogger lets the host program redirect nse's log output into its
// own logrus.Logger instance.
func SetLogger(l *log.Logger) {
	pkgLogger = l.WithField("component", "nse")
}
