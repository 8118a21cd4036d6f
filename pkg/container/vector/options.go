// Copyright 2021 Matrix Origin
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

package vector

import (
	"math"
	"sync"

	"github.com/matrixorigin/fluentvec/pkg/common/moerr"
	"github.com/matrixorigin/fluentvec/pkg/common/mpool"
)

const (
	DefaultCapacity     = 8
	DefaultGrowthFactor = 2.0
)

// Options configures a container at construction. Capacity must be
// positive. A zero GrowthFactor means DefaultGrowthFactor and a nil
// Allocator means the package default pool.
type Options struct {
	Capacity     int
	GrowthFactor float64
	Allocator    *mpool.MPool
}

func DefaultOptions() Options {
	return Options{
		Capacity:     DefaultCapacity,
		GrowthFactor: DefaultGrowthFactor,
	}
}

// getDefaultPool returns the pool of containers built without an Allocator.
var getDefaultPool = sync.OnceValue(func() *mpool.MPool {
	return mpool.MustNew("vector")
})

func firstOptions(opts []Options) Options {
	if len(opts) == 0 {
		return DefaultOptions()
	}
	return opts[0]
}

func (opts Options) normalize() (Options, error) {
	if opts.Capacity <= 0 {
		return opts, moerr.NewInvalidArgNoCtx("capacity", opts.Capacity)
	}
	if opts.GrowthFactor == 0 {
		opts.GrowthFactor = DefaultGrowthFactor
	}
	if !(opts.GrowthFactor > 1.0) || math.IsInf(opts.GrowthFactor, 0) {
		return opts, moerr.NewInvalidArgNoCtx("growth factor", opts.GrowthFactor)
	}
	if opts.Allocator == nil {
		opts.Allocator = getDefaultPool()
	}
	return opts, nil
}
