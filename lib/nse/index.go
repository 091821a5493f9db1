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
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// IndexEntry is one record of the Script Index (spec.md §3): a category
// a script belongs to, and the filename of that script. A script with N
// categories appears N times in the index.
type IndexEntry struct {
	Category string `yaml:"category"`
	Filename string `yaml:"filename"`
}

// LoadIndex reads the Script Index from path, a YAML sequence of
// IndexEntry records. The index's generator is an external collaborator
// (spec.md §1); this repository's reference generator is
// internal/scandb.Generate, which writes this same format.
func LoadIndex(path string) ([]IndexEntry, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []IndexEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, wrapConfigError(err, "%s: malformed script index", path)
	}
	return entries, nil
}
