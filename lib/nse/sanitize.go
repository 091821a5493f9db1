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

import "strings"

// Sanitize is the Output Sanitizer (C7). Every byte that is not one of
// tab/LF/CR and not in the printable ASCII range [0x20, 0x7E] is
// replaced with the six-character escape "\xHH" (uppercase hex),
// guaranteeing the result is safe to embed as XML text content
// (spec.md §4.7).
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == 0x09 || c == 0x0A || c == 0x0D || (c >= 0x20 && c <= 0x7E) {
			b.WriteByte(c)
			continue
		}
		b.WriteString(hexEscape(c))
	}
	return b.String()
}

const hexDigits = "0123456789ABCDEF"

func hexEscape(c byte) string {
	return string([]byte{'\\', 'x', hexDigits[c>>4], hexDigits[c&0x0F]})
}
