// Copyright 2020 The gVisor Authors.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd.

// Package sync provides the synchronization types used throughout the
// kernel. Code in this module imports it instead of the standard library
// sync package so that lock types can be swapped for instrumented ones in a
// single place.
package sync

import (
	"sync"
)

// Aliases of standard library types.
type (
	// Mutex is an alias of sync.Mutex.
	Mutex = sync.Mutex

	// Locker is an alias of sync.Locker.
	Locker = sync.Locker
)
