// Copyright 2023 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package v2

import "github.com/prometheus/client_golang/prometheus"

var (
	memMPoolAllocatedSizeGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "fv",
			Subsystem: "mem",
			Name:      "mpool_allocated_size",
			Help:      "Size of mpool have allocated.",
		}, []string{"type"})

	memMPoolOOMCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fv",
			Subsystem: "mem",
			Name:      "mpool_oom_total",
			Help:      "Total number of mpool requests refused because of the pool cap.",
		}, []string{"type"})
)

var (
	MallocAllocateBytesCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fv",
			Subsystem: "mem",
			Name:      "malloc_allocate_bytes_total",
			Help:      "Total bytes allocated by the raw allocator.",
		})

	MallocInuseBytesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fv",
			Subsystem: "mem",
			Name:      "malloc_inuse_bytes",
			Help:      "Bytes allocated by the raw allocator and not yet released.",
		})

	MallocAllocateObjectsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fv",
			Subsystem: "mem",
			Name:      "malloc_allocate_objects_total",
			Help:      "Total number of allocations made by the raw allocator.",
		})

	MallocInuseObjectsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fv",
			Subsystem: "mem",
			Name:      "malloc_inuse_objects",
			Help:      "Number of raw allocations not yet released.",
		})
)

// MPoolAllocatedGauge returns the allocated-size gauge of the named pool.
func MPoolAllocatedGauge(name string) prometheus.Gauge {
	return memMPoolAllocatedSizeGauge.WithLabelValues(name)
}

// MPoolOOMCounter returns the OOM counter of the named pool.
func MPoolOOMCounter(name string) prometheus.Counter {
	return memMPoolOOMCounter.WithLabelValues(name)
}

// DeleteMPoolMetrics drops the series of a deleted pool.
func DeleteMPoolMetrics(name string) {
	memMPoolAllocatedSizeGauge.DeleteLabelValues(name)
	memMPoolOOMCounter.DeleteLabelValues(name)
}

func initMemMetrics() {
	registry.MustRegister(memMPoolAllocatedSizeGauge)
	registry.MustRegister(memMPoolOOMCounter)
	registry.MustRegister(MallocAllocateBytesCounter)
	registry.MustRegister(MallocInuseBytesGauge)
	registry.MustRegister(MallocAllocateObjectsCounter)
	registry.MustRegister(MallocInuseObjectsGauge)
}
