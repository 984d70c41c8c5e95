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
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/google/subcommands"

	"gvisor.dev/syncguard/pkg/sentry/kernel"
	"gvisor.dev/syncguard/syncguard/cmd/util"
)

// Syscalls implements subcommands.Command for the "syscalls" command.
type Syscalls struct {
	output string
	table  string
}

// TableInfo maps a table name to the documentation of its syscalls.
type TableInfo map[string][]SyscallDoc

// SyscallDoc represents a single item of syscall documentation.
type SyscallDoc struct {
	Num  uintptr `json:"num"`
	Name string  `json:"name"`
	Note string  `json:"note,omitempty"`
}

type outputFunc func(io.Writer, TableInfo) error

var (
	// The string name to use for printing all tables.
	tableAll = "all"

	// A map of output type names to output functions.
	outputMap = map[string]outputFunc{
		"table": outputTable,
		"json":  outputJSON,
		"csv":   outputCSV,
	}
)

// Name implements subcommands.Command.Name.
func (*Syscalls) Name() string {
	return "syscalls"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Syscalls) Synopsis() string {
	return "Print the supported syscalls."
}

// Usage implements subcommands.Command.Usage.
func (*Syscalls) Usage() string {
	return `syscalls [options] - Print the supported syscalls.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (s *Syscalls) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.output, "o", "table", "Output format (table, csv, json).")
	f.StringVar(&s.table, "table", tableAll, "The syscall table (e.g. sync).")
}

// Execute implements subcommands.Command.Execute.
func (s *Syscalls) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	out, ok := outputMap[s.output]
	if !ok {
		util.Fatalf("Unsupported output format %q", s.output)
	}
	info, err := getTableInfo(s.table)
	if err != nil {
		util.Fatalf("%v", err)
	}
	if err := out(os.Stdout, info); err != nil {
		util.Fatalf("Error writing output: %v", err)
	}
	return subcommands.ExitSuccess
}

// getTableInfo returns the documentation of the named table, or of every
// registered table for "all".
func getTableInfo(name string) (TableInfo, error) {
	info := make(TableInfo)
	for _, t := range kernel.SyscallTables() {
		if name != tableAll && t.Name != name {
			continue
		}
		var docs []SyscallDoc
		for _, num := range t.Numbers() {
			sc := t.Table[num]
			docs = append(docs, SyscallDoc{Num: num, Name: sc.Name, Note: sc.Note})
		}
		info[t.Name] = docs
	}
	if len(info) == 0 {
		return nil, fmt.Errorf("syscall table %q not found", name)
	}
	return info, nil
}

// outputTable outputs the syscall info in tabular format.
func outputTable(w io.Writer, info TableInfo) error {
	for name, docs := range info {
		fmt.Fprintf(w, "%s:\n\n", name)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", "NUM", "NAME", "ARGS"); err != nil {
			return err
		}
		for _, sc := range docs {
			if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", strconv.FormatUint(uint64(sc.Num), 10), sc.Name, sc.Note); err != nil {
				return err
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// outputJSON outputs the syscall info in JSON format.
func outputJSON(w io.Writer, info TableInfo) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(info)
}

// outputCSV outputs the syscall info in CSV format.
func outputCSV(w io.Writer, info TableInfo) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write([]string{"table", "num", "name", "args"}); err != nil {
		return err
	}
	for name, docs := range info {
		for _, sc := range docs {
			if err := csvWriter.Write([]string{name, strconv.FormatUint(uint64(sc.Num), 10), sc.Name, sc.Note}); err != nil {
				return err
			}
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}
