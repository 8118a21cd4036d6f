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
	vectorResizeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fv",
			Subsystem: "vector",
			Name:      "resize_total",
			Help:      "Total number of container resizes.",
		}, []string{"kind", "result"})

	vectorGrowSlotsHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fv",
			Subsystem: "vector",
			Name:      "resize_capacity",
			Help:      "Capacity, in slots, requested by container resizes.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 24),
		}, []string{"kind"})

	TypedVectorResizeCounter      = vectorResizeCounter.WithLabelValues("typed", "ok")
	TypedVectorResizeFailCounter  = vectorResizeCounter.WithLabelValues("typed", "fail")
	RawVectorResizeCounter        = vectorResizeCounter.WithLabelValues("raw", "ok")
	RawVectorResizeFailCounter    = vectorResizeCounter.WithLabelValues("raw", "fail")
	TypedVectorResizeCapacityHist = vectorGrowSlotsHistogram.WithLabelValues("typed")
	RawVectorResizeCapacityHist   = vectorGrowSlotsHistogram.WithLabelValues("raw")
)

func initVectorMetrics() {
	registry.MustRegister(vectorResizeCounter)
	registry.MustRegister(vectorGrowSlotsHistogram)
}
