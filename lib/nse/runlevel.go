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

import "sort"

// PartitionByRunlevel is the Runlevel Partitioner (C5): it groups tasks
// by their declared runlevel and returns the buckets in ascending
// numeric order. Within a bucket, task order is preserved from the
// input slice — construction order, i.e. hostrule tasks for hosts in
// input order, then portrule tasks per host (spec.md §4.4).
func PartitionByRunlevel(tasks []*Task) []int {
	seen := map[int]bool{}
	var levels []int
	for _, t := range tasks {
		if !seen[t.Runlevel] {
			seen[t.Runlevel] = true
			levels = append(levels, t.Runlevel)
		}
	}
	sort.Ints(levels)
	return levels
}

// TasksInRunlevel returns, in construction order, the tasks belonging
// to one runlevel bucket.
func TasksInRunlevel(tasks []*Task, level int) []*Task {
	var out []*Task
	for _, t := range tasks {
		if t.Runlevel == level {
			out = append(out, t)
		}
	}
	return out
}
