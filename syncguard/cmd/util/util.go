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

// Package util groups a bunch of common helper functions used by commands.
package util

import (
	"fmt"
	"io"
	"os"

	"gvisor.dev/syncguard/pkg/log"
)

// ErrorLogger is where error messages should be written to. These messages
// are consumed by the caller of syncguard alongside the command's output.
var ErrorLogger io.Writer

// Fatalf logs an error to the error logger and stderr, then exits with
// status 128.
func Fatalf(format string, args ...any) {
	log.Warningf(format, args...)
	msg := fmt.Sprintf(format, args...)
	if ErrorLogger != nil {
		fmt.Fprintln(ErrorLogger, msg)
	}
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(128)
}
