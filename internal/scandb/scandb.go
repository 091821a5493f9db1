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

// Package scandb is the reference generator for the Network Scripting
// Engine's Script Index (spec.md §3, §4.2 step 5). The index's
// generator is explicitly out of scope for nse itself (spec.md §1); a
// real install runs one over the whole scripts/ tree at package time.
// This package plays that role for the demo and for tests: it walks
// every filename nse.Register'd at init() time, loads each one, and
// writes out both the YAML index nse.LoadIndex expects and a small
// per-script JSON cache backed by nanobox-io/golang-scribble, so a
// host program can look up a script's metadata without re-loading it.
package scandb

import (
	"encoding/json"
	"io/ioutil"
	"path/filepath"

	scribble "github.com/nanobox-io/golang-scribble"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/gonse/netscan/lib/nse"
)

// Record is the cached metadata scandb keeps per script, one JSON
// document per script in the scribble store's "scripts" collection.
type Record struct {
	Filename    string   `json:"filename"`
	ID          string   `json:"id"`
	Categories  []string `json:"categories"`
	Author      string   `json:"author"`
	License     string   `json:"license"`
	Description string   `json:"description"`
	Runlevel    int      `json:"runlevel"`
}

// Store wraps a scribble.Driver rooted at one directory.
type Store struct {
	driver *scribble.Driver
}

// Open creates or reuses a scribble JSON store rooted at dir.
func Open(dir string) (*Store, error) {
	driver, err := scribble.New(dir, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "scandb: open %s", dir)
	}
	return &Store{driver: driver}, nil
}

// Put persists one script's Record under its ID.
func (s *Store) Put(rec Record) error {
	return s.driver.Write("scripts", rec.ID, rec)
}

// Get retrieves a previously-persisted Record by script ID.
func (s *Store) Get(id string) (Record, error) {
	var rec Record
	err := s.driver.Read("scripts", id, &rec)
	return rec, err
}

// All returns every Record the store currently holds.
func (s *Store) All() ([]Record, error) {
	raw, err := s.driver.ReadAll("scripts")
	if err != nil {
		return nil, err
	}
	recs := make([]Record, 0, len(raw))
	for _, entry := range raw {
		var rec Record
		if err := json.Unmarshal([]byte(entry), &rec); err != nil {
			return nil, errors.Wrap(err, "scandb: decoding cached record")
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Generate loads every registered script, writes its Record into the
// scribble store at dbDir, and writes a spec.md-§3-shaped YAML index
// (one entry per (script, category) pair) to indexPath.
func Generate(dbDir, indexPath string) error {
	store, err := Open(dbDir)
	if err != nil {
		return err
	}

	var entries []nse.IndexEntry
	for _, filename := range nse.RegisteredFilenames() {
		script, err := nse.LoadScript(filename)
		if err != nil {
			return errors.Wrapf(err, "scandb: loading %s", filename)
		}

		rec := Record{
			Filename:    script.Filename,
			ID:          script.ID,
			Categories:  script.Categories,
			Author:      script.Author,
			License:     script.License,
			Description: script.Description,
			Runlevel:    script.Runlevel,
		}
		if err := store.Put(rec); err != nil {
			return errors.Wrapf(err, "scandb: caching %s", script.ID)
		}

		for _, cat := range script.Categories {
			entries = append(entries, nse.IndexEntry{
				Category: cat,
				Filename: filepath.Base(script.Filename),
			})
		}
	}

	raw, err := yaml.Marshal(entries)
	if err != nil {
		return errors.Wrap(err, "scandb: marshaling index")
	}
	if err := ioutil.WriteFile(indexPath, raw, 0o644); err != nil {
		return errors.Wrapf(err, "scandb: writing %s", indexPath)
	}
	return nil
}
