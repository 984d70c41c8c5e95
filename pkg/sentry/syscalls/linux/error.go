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

package linux

import (
	"gvisor.dev/syncguard/pkg/abi/linux"
	"gvisor.dev/syncguard/pkg/errors/linuxerr"
)

// encodeResult converts a handler's result into the single integer returned
// to the caller.
func encodeResult(val uintptr, err error) int64 {
	switch {
	case err == nil:
		return int64(val)
	case linuxerr.Equals(linuxerr.EDEADLK, err):
		return -linux.DeadlockDenied
	default:
		return -1
	}
}
