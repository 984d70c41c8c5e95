// Copyright 2026 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"gvisor.dev/syncguard/pkg/sentry/kernel/resource"
)

// stateFile is the YAML form of a process's accounting state. Resources are
// written as "mutex:N" or "semaphore:N".
type stateFile struct {
	Available  map[string]uint64   `yaml:"available"`
	Allocation []map[string]uint64 `yaml:"allocation"`
	Need       []map[string]uint64 `yaml:"need"`
	Detect     bool                `yaml:"detect,omitempty"`
}

func parseCounts(m map[string]uint64) (map[resource.Resource]uint64, error) {
	counts := make(map[resource.Resource]uint64, len(m))
	for key, n := range m {
		r, err := resource.Parse(key)
		if err != nil {
			return nil, err
		}
		counts[r] += n
	}
	return counts, nil
}

func parseRows(rows []map[string]uint64) ([]map[resource.Resource]uint64, error) {
	out := make([]map[resource.Resource]uint64, len(rows))
	for i, row := range rows {
		counts, err := parseCounts(row)
		if err != nil {
			return nil, fmt.Errorf("thread %d: %w", i, err)
		}
		out[i] = counts
	}
	return out, nil
}

// decodeState reads a stateFile from r.
func decodeState(r io.Reader) (resource.Snapshot, error) {
	var sf stateFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		return resource.Snapshot{}, fmt.Errorf("decoding state: %w", err)
	}
	var (
		s   = resource.Snapshot{DetectionEnabled: sf.Detect}
		err error
	)
	if s.Available, err = parseCounts(sf.Available); err != nil {
		return resource.Snapshot{}, fmt.Errorf("available: %w", err)
	}
	if s.Allocation, err = parseRows(sf.Allocation); err != nil {
		return resource.Snapshot{}, fmt.Errorf("allocation: %w", err)
	}
	if s.Need, err = parseRows(sf.Need); err != nil {
		return resource.Snapshot{}, fmt.Errorf("need: %w", err)
	}
	return s, nil
}

func formatCounts(m map[resource.Resource]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(m))
	for r, n := range m {
		if n > 0 {
			out[r.String()] = n
		}
	}
	return out
}

// encodeState writes s to w in the stateFile format.
func encodeState(w io.Writer, s resource.Snapshot) error {
	sf := stateFile{
		Available:  formatCounts(s.Available),
		Allocation: make([]map[string]uint64, len(s.Allocation)),
		Need:       make([]map[string]uint64, len(s.Need)),
		Detect:     s.DetectionEnabled,
	}
	for i, row := range s.Allocation {
		sf.Allocation[i] = formatCounts(row)
	}
	for i, row := range s.Need {
		sf.Need[i] = formatCounts(row)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&sf); err != nil {
		return err
	}
	return enc.Close()
}
