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

package metric

import (
	"bytes"
	"strings"
	"testing"
)

func TestFieldMapper(t *testing.T) {
	fm, err := newFieldMapper(
		NewField("kind", "mutex", "semaphore"),
		NewField("result", "granted", "blocked", "denied"),
	)
	if err != nil {
		t.Fatalf("newFieldMapper failed: %v", err)
	}
	if fm.numFieldCombinations != 6 {
		t.Fatalf("numFieldCombinations got: %d, want: 6", fm.numFieldCombinations)
	}
	seen := make(map[int]bool)
	for _, kind := range []string{"mutex", "semaphore"} {
		for _, result := range []string{"granted", "blocked", "denied"} {
			key := fm.lookup(kind, result)
			if seen[key] {
				t.Errorf("lookup(%q, %q) reused key %d", kind, result, key)
			}
			seen[key] = true
			got := fm.keyToMultiField(key)
			if got[0] != kind || got[1] != result {
				t.Errorf("keyToMultiField(%d) got: %v, want: [%s %s]", key, got, kind, result)
			}
		}
	}
}

func TestFieldWithoutValues(t *testing.T) {
	if _, err := NewUint64Metric("/test/empty_field", "", NewField("kind")); err != ErrFieldHasNoAllowedValues {
		t.Errorf("NewUint64Metric got err: %v, want: %v", err, ErrFieldHasNoAllowedValues)
	}
}

func TestDuplicateName(t *testing.T) {
	if _, err := NewUint64Metric("/test/dup", "first"); err != nil {
		t.Fatalf("NewUint64Metric failed: %v", err)
	}
	if _, err := NewUint64Metric("/test/dup", "second"); err != ErrNameInUse {
		t.Errorf("NewUint64Metric got err: %v, want: %v", err, ErrNameInUse)
	}
}

func TestIncrementAndExport(t *testing.T) {
	m := MustCreateNewUint64Metric("/test/requests", "Requests by result.", NewField("result", "granted", "denied"))
	m.Increment("granted")
	m.IncrementBy(3, "denied")

	if got := m.Value("granted"); got != 1 {
		t.Errorf("Value(granted) got: %d, want: 1", got)
	}
	if got := m.Value("denied"); got != 3 {
		t.Errorf("Value(denied) got: %d, want: 3", got)
	}

	var buf bytes.Buffer
	if err := WriteText(&buf); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# TYPE test_requests counter",
		`test_requests{result="granted"} 1`,
		`test_requests{result="denied"} 3`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("WriteText output missing %q:\n%s", want, out)
		}
	}
}

func TestIncrementDisallowedValue(t *testing.T) {
	m := MustCreateNewUint64Metric("/test/disallowed", "", NewField("result", "ok"))
	defer func() {
		if recover() == nil {
			t.Errorf("Increment with a disallowed value did not panic")
		}
	}()
	m.Increment("bogus")
}
