// Copyright 2024 Matrix Origin
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

package malloc

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	metric "github.com/matrixorigin/fluentvec/pkg/util/metric/v2"
)

type MetricsAllocator[U Allocator] struct {
	upstream U

	allocateBytesCounter   prometheus.Counter
	inuseBytesGauge        prometheus.Gauge
	allocateObjectsCounter prometheus.Counter
	inuseObjectsGauge      prometheus.Gauge

	inuseBytes atomic.Int64
	peak       *PeakInuseTracker
}

func NewMetricsAllocator[U Allocator](
	upstream U,
	allocateBytesCounter prometheus.Counter,
	inuseBytesGauge prometheus.Gauge,
	allocateObjectsCounter prometheus.Counter,
	inuseObjectsGauge prometheus.Gauge,
) *MetricsAllocator[U] {
	return &MetricsAllocator[U]{
		upstream:               upstream,
		allocateBytesCounter:   allocateBytesCounter,
		inuseBytesGauge:        inuseBytesGauge,
		allocateObjectsCounter: allocateObjectsCounter,
		inuseObjectsGauge:      inuseObjectsGauge,
		peak:                   GlobalPeakInuseTracker,
	}
}

// NewDefaultMetricsAllocator wires upstream to the process wide malloc
// metrics.
func NewDefaultMetricsAllocator[U Allocator](upstream U) *MetricsAllocator[U] {
	return NewMetricsAllocator(
		upstream,
		metric.MallocAllocateBytesCounter,
		metric.MallocInuseBytesGauge,
		metric.MallocAllocateObjectsCounter,
		metric.MallocInuseObjectsGauge,
	)
}

var _ Allocator = new(MetricsAllocator[Allocator])

func (m *MetricsAllocator[U]) Allocate(size uint64, hints Hints) ([]byte, Deallocator, error) {
	ptr, dec, err := m.upstream.Allocate(size, hints)
	if err != nil {
		return nil, nil, err
	}

	if m.allocateBytesCounter != nil {
		m.allocateBytesCounter.Add(float64(size))
	}
	if m.inuseBytesGauge != nil {
		m.inuseBytesGauge.Add(float64(size))
	}
	if m.allocateObjectsCounter != nil {
		m.allocateObjectsCounter.Inc()
	}
	if m.inuseObjectsGauge != nil {
		m.inuseObjectsGauge.Inc()
	}
	if inuse := m.inuseBytes.Add(int64(size)); m.peak != nil {
		m.peak.Update(uint64(inuse))
	}

	return ptr, ChainDeallocator(
		dec,
		FuncDeallocator(func(Hints) {
			m.inuseBytes.Add(-int64(size))
			if m.inuseBytesGauge != nil {
				m.inuseBytesGauge.Sub(float64(size))
			}
			if m.inuseObjectsGauge != nil {
				m.inuseObjectsGauge.Dec()
			}
		}),
	), nil
}

// InuseBytes returns bytes allocated through m and not yet released.
func (m *MetricsAllocator[U]) InuseBytes() int64 {
	return m.inuseBytes.Load()
}
