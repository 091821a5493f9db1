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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleBuilder(description string, categories []string) Builder {
	return func(env *Environment) {
		env.Set("description", description)
		env.Set("categories", categories)
		env.Set("hostrule", HostRule(func(h *Host) (interface{}, bool) { return nil, true }))
		env.Set("action", Action(func(*Environment, Waiter, interface{}) (string, error) { return "", nil }))
	}
}

func registerOnce(filename string, b Builder) {
	if _, ok := lookupBuilder(filename); ok {
		return
	}
	Register(filename, b)
}

func TestSelector_ReservedRuleRejected(t *testing.T) {
	api := newFakeAPI(t)
	_, err := NewSelector(api).Select([]string{"version"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prohibited")
}

func TestSelector_CategoryResolvesThroughIndex(t *testing.T) {
	registerOnce("selector-test-discovery.nse", simpleBuilder("discovery script", []string{"discovery"}))

	api := newFakeAPI(t)
	api.writeIndex("- category: discovery\n  filename: selector-test-discovery.nse\n")

	scripts, err := NewSelector(api).Select([]string{"discovery"})
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	assert.Equal(t, "selector-test-discovery", scripts[0].ID)
}

func TestSelector_AllExcludesVersion(t *testing.T) {
	registerOnce("selector-test-all-a.nse", simpleBuilder("a", []string{"safe"}))
	registerOnce("selector-test-all-b.nse", simpleBuilder("b", []string{"version"}))

	api := newFakeAPI(t)
	api.writeIndex("" +
		"- category: safe\n  filename: selector-test-all-a.nse\n" +
		"- category: version\n  filename: selector-test-all-b.nse\n")

	scripts, err := NewSelector(api).Select([]string{"all"})
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	assert.Equal(t, "selector-test-all-a", scripts[0].ID)
}

func TestSelector_ByNameFile(t *testing.T) {
	api := newFakeAPI(t)
	api.writeIndex("")

	// resolveByName resolves the rule to an absolute path via
	// FetchFileAbsolute, then loads whatever filename that resolved to;
	// the registered builder has to live under that same absolute path.
	abs := filepath.Join(api.dir, "selector-test-byname.nse")
	require.NoError(t, os.WriteFile(abs, nil, 0o644))
	registerOnce(abs, simpleBuilder("byname", []string{"safe"}))

	scripts, err := NewSelector(api).Select([]string{"selector-test-byname.nse"})
	require.NoError(t, err)
	require.Len(t, scripts, 1)
}

func TestSelector_UnresolvedRuleReportsSuggestion(t *testing.T) {
	registerOnce("selector-test-suggest.nse", simpleBuilder("suggest", []string{"safe"}))

	api := newFakeAPI(t)
	api.writeIndex("")

	_, err := NewSelector(api).Select([]string{"selector-test-suges"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No such category, filename or directory")
	assert.Contains(t, err.Error(), "did you mean")
}

func TestSelector_DefaultModeInjectsDefaultCategory(t *testing.T) {
	registerOnce("selector-test-default.nse", simpleBuilder("default script", []string{"default"}))

	api := newFakeAPI(t)
	api.defaultMode = true
	api.writeIndex("- category: default\n  filename: selector-test-default.nse\n")

	scripts, err := NewSelector(api).Select(nil)
	require.NoError(t, err)
	require.Len(t, scripts, 1)
}
