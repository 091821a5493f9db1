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

package asyncio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIO_WakesOnceBudgetExceedsAfter(t *testing.T) {
	var woken []interface{}
	io := New(func(taskID string, args ...interface{}) { woken = args })

	io.Register("task-1", Wait{After: 120 * time.Millisecond, Args: []interface{}{"done"}})

	io.Loop(50 * time.Millisecond)
	assert.Equal(t, 1, io.Pending())
	assert.Nil(t, woken)

	io.Loop(50 * time.Millisecond)
	assert.Equal(t, 1, io.Pending())

	io.Loop(50 * time.Millisecond)
	assert.Equal(t, 0, io.Pending())
	require.Len(t, woken, 1)
	assert.Equal(t, "done", woken[0])
}

func TestIO_RegisterWithZeroWaitFiresNextLoop(t *testing.T) {
	woke := false
	io := New(func(string, ...interface{}) { woke = true })

	io.Register("task-1", Wait{})
	io.Loop(time.Millisecond)

	assert.True(t, woke)
	assert.Equal(t, 0, io.Pending())
}

func TestIO_UnknownOpTypeTreatedAsZeroWait(t *testing.T) {
	woke := false
	io := New(func(string, ...interface{}) { woke = true })

	io.Register("task-1", "not-a-Wait")
	io.Loop(time.Millisecond)

	assert.True(t, woke)
}
