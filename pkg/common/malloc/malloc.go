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
	"strings"

	"github.com/matrixorigin/fluentvec/pkg/common/moerr"
)

const (
	B = 1 << (10 * iota)
	KB
	MB
	GB
	TB
)

// MaxAllocSize is the largest request any allocator accepts. Larger
// requests fail with ErrOOM.
const MaxAllocSize = 1 * TB

// Hints are advisory flags passed to Allocate and Deallocate.
type Hints uint64

const (
	// NoClear tells the allocator the caller will overwrite the memory,
	// so it need not be zeroed.
	NoClear Hints = 1 << iota
)

// Allocator hands out contiguous byte buffers. The returned Deallocator
// must be called exactly once to release the buffer.
type Allocator interface {
	Allocate(size uint64, hints Hints) ([]byte, Deallocator, error)
}

type Deallocator interface {
	Deallocate(hints Hints)
}

type FuncDeallocator func(hints Hints)

var _ Deallocator = FuncDeallocator(nil)

func (f FuncDeallocator) Deallocate(hints Hints) {
	f(hints)
}

var noopDeallocator = FuncDeallocator(func(Hints) {})

func checkSize(size uint64) error {
	if size > MaxAllocSize {
		return moerr.NewOOMNoCtx()
	}
	return nil
}

// ChainDeallocator runs the given deallocators in order.
func ChainDeallocator(decs ...Deallocator) Deallocator {
	return FuncDeallocator(func(hints Hints) {
		for _, dec := range decs {
			if dec != nil {
				dec.Deallocate(hints)
			}
		}
	})
}

const (
	AllocatorGo   = "go"
	AllocatorC    = "c"
	AllocatorMmap = "mmap"
)

type Config struct {
	// Allocator is one of "go", "c" and "mmap". default: "go"
	Allocator string `toml:"allocator"`

	// EnableMetrics wraps the allocator with prometheus counters.
	EnableMetrics bool `toml:"enable-metrics"`
}

func (c Config) Validate() error {
	switch strings.ToLower(c.Allocator) {
	case "", AllocatorGo, AllocatorC, AllocatorMmap:
		return nil
	default:
		return moerr.NewBadConfigNoCtx("unknown allocator %q", c.Allocator)
	}
}

// NewAllocator builds the allocator described by config.
func NewAllocator(config Config) (Allocator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var ret Allocator
	switch strings.ToLower(config.Allocator) {
	case "", AllocatorGo:
		ret = NewGoAllocator()
	case AllocatorC:
		ret = NewCAllocator()
	case AllocatorMmap:
		mmap, err := NewMmapAllocator()
		if err != nil {
			return nil, err
		}
		ret = mmap
	}

	if config.EnableMetrics {
		ret = NewDefaultMetricsAllocator(ret)
	}
	return ret, nil
}

var defaultAllocator Allocator = NewGoAllocator()

// GetDefault returns the process wide default allocator.
func GetDefault() Allocator {
	return defaultAllocator
}
