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

// Package metric provides primitives for collecting metrics.
package metric

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"sync/atomic"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
	"gvisor.dev/syncguard/pkg/sync"
)

var (
	// ErrNameInUse indicates that another metric is already defined for
	// the given name.
	ErrNameInUse = errors.New("metric name already in use")

	// ErrFieldHasNoAllowedValues indicates that the field needs to define some
	// allowed values to be a valid and useful field.
	ErrFieldHasNoAllowedValues = errors.New("metric field does not define any allowed values")

	// ErrTooManyFieldCombinations indicates that the number of unique
	// combinations of fields is too large to support.
	ErrTooManyFieldCombinations = errors.New("metric has too many combinations of allowed field values")
)

// Field contains the field name and allowed values for the metric which is
// used in registration of the metric.
type Field struct {
	// name is the metric field name.
	name string

	// allowedValues is the list of allowed values for the field.
	allowedValues []string
}

// NewField defines a new Field that can be used to break down a metric.
func NewField(name string, allowedValues ...string) Field {
	return Field{
		name:          name,
		allowedValues: allowedValues,
	}
}

// fieldMapper provides multi-dimensional fields to a single unique integer key.
type fieldMapper struct {
	fields []Field

	// numFieldCombinations is the number of unique keys for all possible field
	// combinations.
	numFieldCombinations int
}

func newFieldMapper(fields ...Field) (fieldMapper, error) {
	numFieldCombinations := 1
	for _, f := range fields {
		if len(f.allowedValues) == 0 {
			return fieldMapper{}, ErrFieldHasNoAllowedValues
		}
		numFieldCombinations *= len(f.allowedValues)
		if numFieldCombinations > math.MaxUint32 {
			return fieldMapper{}, ErrTooManyFieldCombinations
		}
	}
	return fieldMapper{
		fields:               fields,
		numFieldCombinations: numFieldCombinations,
	}, nil
}

// lookup returns the index of the given field value combination.
//
// This *must* be called with the correct number of fields, or it will panic.
func (m fieldMapper) lookup(values ...string) int {
	if len(values) != len(m.fields) {
		panic("invalid field lookup depth")
	}
	idx := 0
	remaining := m.numFieldCombinations
Lookup:
	for i, val := range values {
		for valIdx, allowed := range m.fields[i].allowedValues {
			if val == allowed {
				remaining /= len(m.fields[i].allowedValues)
				idx += remaining * valIdx
				continue Lookup
			}
		}
		panic(fmt.Sprintf("disallowed value %q for field %q", val, m.fields[i].name))
	}
	return idx
}

// keyToMultiField is the reverse of lookup.
func (m fieldMapper) keyToMultiField(key int) []string {
	if len(m.fields) == 0 {
		return nil
	}
	values := make([]string, len(m.fields))
	remaining := m.numFieldCombinations
	for i := range m.fields {
		remaining /= len(m.fields[i].allowedValues)
		values[i] = m.fields[i].allowedValues[key/remaining]
		key = key % remaining
	}
	return values
}

// Uint64Metric encapsulates a uint64 that represents some kind of metric to be
// monitored.
type Uint64Metric struct {
	name        string
	description string

	// fields holds one counter per field value combination.
	fields []atomic.Uint64

	fieldMapper fieldMapper
}

var (
	// mu protects allMetrics.
	mu sync.Mutex

	// allMetrics are the registered metrics, keyed by name.
	allMetrics = make(map[string]*Uint64Metric)
)

// NewUint64Metric creates and registers a new cumulative metric with the
// given name.
func NewUint64Metric(name, description string, fields ...Field) (*Uint64Metric, error) {
	fm, err := newFieldMapper(fields...)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	if _, ok := allMetrics[name]; ok {
		return nil, ErrNameInUse
	}
	m := &Uint64Metric{
		name:        name,
		description: description,
		fields:      make([]atomic.Uint64, fm.numFieldCombinations),
		fieldMapper: fm,
	}
	allMetrics[name] = m
	return m, nil
}

// MustCreateNewUint64Metric calls NewUint64Metric and panics if it returns an
// error.
func MustCreateNewUint64Metric(name, description string, fields ...Field) *Uint64Metric {
	m, err := NewUint64Metric(name, description, fields...)
	if err != nil {
		panic(fmt.Sprintf("Unable to create metric %q: %s", name, err))
	}
	return m
}

// Value returns the current value of the metric for the given set of fields.
// This must be called with the correct number of field values or it will
// panic.
func (m *Uint64Metric) Value(fieldValues ...string) uint64 {
	return m.fields[m.fieldMapper.lookup(fieldValues...)].Load()
}

// Increment increments the metric by 1.
// This must be called with the correct number of field values or it will
// panic.
func (m *Uint64Metric) Increment(fieldValues ...string) {
	m.IncrementBy(1, fieldValues...)
}

// IncrementBy increments the metric by v.
// This must be called with the correct number of field values or it will
// panic.
func (m *Uint64Metric) IncrementBy(v uint64, fieldValues ...string) {
	m.fields[m.fieldMapper.lookup(fieldValues...)].Add(v)
}

// promName converts a metric path such as /sync/requests to a Prometheus
// metric name such as sync_requests.
func promName(name string) string {
	return strings.ReplaceAll(strings.TrimPrefix(name, "/"), "/", "_")
}

// family builds the Prometheus representation of m.
func (m *Uint64Metric) family() *dto.MetricFamily {
	mf := &dto.MetricFamily{
		Name: proto.String(promName(m.name)),
		Help: proto.String(m.description),
		Type: dto.MetricType_COUNTER.Enum(),
	}
	for key := range m.fields {
		pm := &dto.Metric{
			Counter: &dto.Counter{Value: proto.Float64(float64(m.fields[key].Load()))},
		}
		for i, v := range m.fieldMapper.keyToMultiField(key) {
			pm.Label = append(pm.Label, &dto.LabelPair{
				Name:  proto.String(m.fieldMapper.fields[i].name),
				Value: proto.String(v),
			})
		}
		mf.Metric = append(mf.Metric, pm)
	}
	return mf
}

// WriteText writes every registered metric to w in the Prometheus text
// exposition format, ordered by metric name.
func WriteText(w io.Writer) error {
	mu.Lock()
	names := make([]string, 0, len(allMetrics))
	for name := range allMetrics {
		names = append(names, name)
	}
	metrics := make([]*Uint64Metric, 0, len(names))
	sort.Strings(names)
	for _, name := range names {
		metrics = append(metrics, allMetrics[name])
	}
	mu.Unlock()

	for _, m := range metrics {
		if _, err := expfmt.MetricFamilyToText(w, m.family()); err != nil {
			return fmt.Errorf("writing metric %q: %w", m.name, err)
		}
	}
	return nil
}
