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
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v2"
)

// bareIdentifier matches an unquoted value so it can be quoted before
// being handed to the mapping parser (spec.md §4.8).
var bareIdentifier = regexp.MustCompile(`(=|:\s*)([A-Za-z0-9_]+)(\s*[,}]|\s*$)`)

// ParseScriptArgs is the Argument Preloader (C8). It parses the
// scanner's --script-args string into a key-to-value mapping. Bare
// identifier values are quoted first so that "a=foo,b=bar" is treated
// as the flow mapping "{a: \"foo\", b: \"bar\"}"; this repository
// parses that mapping with gopkg.in/yaml.v2 rather than a hand-rolled
// grammar, since YAML flow mappings are a superset of the table
// literal syntax the source language uses here.
func ParseScriptArgs(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]string{}, nil
	}

	normalized := normalizeScriptArgs(raw)

	var m map[string]string
	if err := yaml.Unmarshal([]byte(normalized), &m); err != nil {
		return nil, newConfigError("invalid --script-args %q: %v", raw, err)
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

// normalizeScriptArgs rewrites "a=foo,b=bar" into the YAML flow mapping
// "{a: \"foo\", b: \"bar\"}", quoting bare identifier values in place.
func normalizeScriptArgs(raw string) string {
	body := strings.TrimPrefix(strings.TrimSuffix(raw, "}"), "{")
	body = strings.ReplaceAll(body, "=", ": ")
	body = "{" + body + "}"

	return bareIdentifier.ReplaceAllStringFunc(body, func(m string) string {
		sub := bareIdentifier.FindStringSubmatch(m)
		return fmt.Sprintf("%s\"%s\"%s", sub[1], sub[2], sub[3])
	})
}
