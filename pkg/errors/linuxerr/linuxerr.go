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

// Package linuxerr contains syscall error codes exported as error interface
// pointers. This allows for fast comparison and return operations comparable
// to unix.Errno constants.
package linuxerr

import (
	"golang.org/x/sys/unix"
	"gvisor.dev/syncguard/pkg/errors"
)

// The following errors are semantically identical to the unix.Errno values
// of the same name, but are distinct *errors.Error values. Use Equals to
// compare an arbitrary error against them.
var (
	EPERM   = errors.New(unix.EPERM, "operation not permitted")
	ESRCH   = errors.New(unix.ESRCH, "no such process")
	EBADF   = errors.New(unix.EBADF, "bad file number")
	EAGAIN  = errors.New(unix.EAGAIN, "try again")
	EBUSY   = errors.New(unix.EBUSY, "device or resource busy")
	EINVAL  = errors.New(unix.EINVAL, "invalid argument")
	EDEADLK = errors.New(unix.EDEADLK, "resource deadlock would occur")
	ENOSYS  = errors.New(unix.ENOSYS, "invalid system call number")
)

var errnoTable = map[unix.Errno]*errors.Error{
	unix.EPERM:   EPERM,
	unix.ESRCH:   ESRCH,
	unix.EBADF:   EBADF,
	unix.EAGAIN:  EAGAIN,
	unix.EBUSY:   EBUSY,
	unix.EINVAL:  EINVAL,
	unix.EDEADLK: EDEADLK,
	unix.ENOSYS:  ENOSYS,
}

// ErrorFromUnix returns the *errors.Error for the given unix.Errno, or nil
// if the errno is not known to this package.
func ErrorFromUnix(err unix.Errno) *errors.Error {
	return errnoTable[err]
}

// ToUnix converts e to its unix.Errno. A nil e converts to 0.
func ToUnix(e *errors.Error) unix.Errno {
	if e == nil {
		return 0
	}
	return e.Errno()
}

// Equals reports whether err carries the same errno as e. err may be an
// *errors.Error, a unix.Errno, or any error wrapping either.
func Equals(e *errors.Error, err error) bool {
	if err == nil {
		return e == nil
	}
	if e == nil {
		return false
	}
	for err != nil {
		switch v := err.(type) {
		case *errors.Error:
			return v.Errno() == e.Errno()
		case unix.Errno:
			return v == e.Errno()
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
