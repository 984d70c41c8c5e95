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

package kernel

import (
	"gvisor.dev/syncguard/pkg/metric"
	"gvisor.dev/syncguard/pkg/sentry/kernel/resource"
)

var (
	requestsMetric = metric.MustCreateNewUint64Metric("/sync/requests",
		"Lock and down requests, by resource kind and outcome.",
		metric.NewField("kind", resource.KindMutex.String(), resource.KindSemaphore.String()),
		metric.NewField("result", "granted", "blocked", "denied"))

	releasesMetric = metric.MustCreateNewUint64Metric("/sync/releases",
		"Unlock and up requests, by resource kind.",
		metric.NewField("kind", resource.KindMutex.String(), resource.KindSemaphore.String()))

	safetyChecksMetric = metric.MustCreateNewUint64Metric("/sync/safety_checks",
		"Deadlock safety checks, by outcome.",
		metric.NewField("result", "safe", "unsafe"))
)
