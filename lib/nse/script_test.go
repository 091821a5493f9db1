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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeBuilder(env *Environment) {
	env.Set("description", "a complete test script")
	env.Set("categories", []string{"safe", "discovery"})
	env.Set("author", "tester")
	env.Set("license", "MIT")
	env.Set("runlevel", float64(2))
	env.Set("hostrule", HostRule(func(h *Host) (interface{}, bool) { return nil, true }))
	env.Set("action", Action(func(*Environment, Waiter, interface{}) (string, error) { return "ok", nil }))
}

func TestLoadScript_Complete(t *testing.T) {
	Register("script-test-complete.nse", completeBuilder)

	s, err := LoadScript("script-test-complete.nse")
	require.NoError(t, err)
	assert.Equal(t, "a complete test script", s.Description)
	assert.Equal(t, []string{"safe", "discovery"}, s.Categories)
	assert.Equal(t, "tester", s.Author)
	assert.Equal(t, 2, s.Runlevel)
	assert.True(t, s.HasHostRule())
	assert.False(t, s.HasPortRule())
	assert.Equal(t, "script-test-complete", s.ID)
}

func TestLoadScript_MissingDescription(t *testing.T) {
	Register("script-test-missing-description.nse", func(env *Environment) {
		env.Set("categories", []string{"safe"})
		env.Set("hostrule", HostRule(func(h *Host) (interface{}, bool) { return nil, true }))
		env.Set("action", Action(func(*Environment, Waiter, interface{}) (string, error) { return "", nil }))
	})

	_, err := LoadScript("script-test-missing-description.nse")
	require.Error(t, err)
	var ce *ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestLoadScript_MissingRule(t *testing.T) {
	Register("script-test-missing-rule.nse", func(env *Environment) {
		env.Set("description", "no rule at all")
		env.Set("categories", []string{"safe"})
		env.Set("action", Action(func(*Environment, Waiter, interface{}) (string, error) { return "", nil }))
	})

	_, err := LoadScript("script-test-missing-rule.nse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hostrule and/or portrule")
}

func TestLoadScript_UnregisteredFilename(t *testing.T) {
	_, err := LoadScript("no-such-script.nse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no script registered")
}

func TestLoadScript_InvalidCategoryTag(t *testing.T) {
	Register("script-test-bad-category.nse", func(env *Environment) {
		env.Set("description", "bad category")
		env.Set("categories", []string{"safe\x01"})
		env.Set("hostrule", HostRule(func(h *Host) (interface{}, bool) { return nil, true }))
		env.Set("action", Action(func(*Environment, Waiter, interface{}) (string, error) { return "", nil }))
	})

	_, err := LoadScript("script-test-bad-category.nse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid category tag")
}
