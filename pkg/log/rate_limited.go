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

package log

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// rateLimitedLogger forwards at most one message per interval to logger,
// whatever its level. The next message that gets through is annotated with
// the number of messages dropped since the previous one.
type rateLimitedLogger struct {
	logger     Logger
	limit      *rate.Limiter
	suppressed atomic.Uint64
}

// allow returns true and the number of dropped messages if a message may be
// logged now.
func (rl *rateLimitedLogger) allow() (bool, uint64) {
	if !rl.limit.Allow() {
		rl.suppressed.Add(1)
		return false, 0
	}
	return true, rl.suppressed.Swap(0)
}

func annotate(format string, v []any, dropped uint64) (string, []any) {
	if dropped == 0 {
		return format, v
	}
	return format + " (%d similar messages suppressed)", append(v, dropped)
}

func (rl *rateLimitedLogger) Debugf(format string, v ...any) {
	if ok, dropped := rl.allow(); ok {
		format, v = annotate(format, v, dropped)
		rl.logger.Debugf(format, v...)
	}
}

func (rl *rateLimitedLogger) Infof(format string, v ...any) {
	if ok, dropped := rl.allow(); ok {
		format, v = annotate(format, v, dropped)
		rl.logger.Infof(format, v...)
	}
}

func (rl *rateLimitedLogger) Warningf(format string, v ...any) {
	if ok, dropped := rl.allow(); ok {
		format, v = annotate(format, v, dropped)
		rl.logger.Warningf(format, v...)
	}
}

func (rl *rateLimitedLogger) IsLogging(level Level) bool {
	return rl.logger.IsLogging(level)
}

// RateLimitedLogger returns a Logger that logs to the provided logger no more
// than once per the provided duration. Dropped messages are counted and the
// count is appended to the next message logged.
func RateLimitedLogger(logger Logger, every time.Duration) Logger {
	return &rateLimitedLogger{
		logger: logger,
		limit:  rate.NewLimiter(rate.Every(every), 1),
	}
}
