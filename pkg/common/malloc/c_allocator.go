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
	"sync"

	"go.uber.org/zap"
	"modernc.org/memory"

	"github.com/matrixorigin/fluentvec/pkg/common/moerr"
	"github.com/matrixorigin/fluentvec/pkg/logutil"
)

// CAllocator hands out memory outside of the Go heap, with malloc/free
// semantics. Buffers must never hold Go pointers.
type CAllocator struct {
	mu        sync.Mutex
	allocator memory.Allocator
}

var _ Allocator = new(CAllocator)

func NewCAllocator() *CAllocator {
	return &CAllocator{}
}

func (c *CAllocator) Allocate(size uint64, hints Hints) ([]byte, Deallocator, error) {
	if size == 0 {
		return nil, noopDeallocator, nil
	}
	if err := checkSize(size); err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	var (
		buf []byte
		err error
	)
	if hints&NoClear != 0 {
		buf, err = c.allocator.Malloc(int(size))
	} else {
		buf, err = c.allocator.Calloc(int(size))
	}
	c.mu.Unlock()
	if err != nil {
		logutil.Warn("c allocator refused request",
			zap.Uint64("size", size),
			zap.Error(err),
		)
		return nil, nil, moerr.NewOOMNoCtx()
	}

	return buf, FuncDeallocator(func(Hints) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if err := c.allocator.Free(buf); err != nil {
			panic(moerr.NewInternalErrorNoCtx("c allocator free: %v", err))
		}
	}), nil
}

// Close releases every mapping held by the allocator. Outstanding buffers
// become invalid.
func (c *CAllocator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allocator.Close()
}
