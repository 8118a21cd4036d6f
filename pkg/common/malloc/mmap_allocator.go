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

//go:build linux || darwin

package malloc

import (
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/matrixorigin/fluentvec/pkg/common/moerr"
	"github.com/matrixorigin/fluentvec/pkg/logutil"
)

// MmapAllocator maps anonymous pages for every allocation. It suits large,
// long lived buffers; small requests still cost a whole page.
type MmapAllocator struct {
	pageSize uint64
}

var _ Allocator = new(MmapAllocator)

func NewMmapAllocator() (*MmapAllocator, error) {
	return &MmapAllocator{
		pageSize: uint64(unix.Getpagesize()),
	}, nil
}

func (m *MmapAllocator) Allocate(size uint64, _ Hints) ([]byte, Deallocator, error) {
	if size == 0 {
		return nil, noopDeallocator, nil
	}
	if err := checkSize(size); err != nil {
		return nil, nil, err
	}

	length := (size + m.pageSize - 1) / m.pageSize * m.pageSize
	mapped, err := unix.Mmap(
		-1, 0,
		int(length),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON,
	)
	if err != nil {
		logutil.Warn("mmap allocator refused request",
			zap.Uint64("size", size),
			zap.Error(err),
		)
		return nil, nil, moerr.NewOOMNoCtx()
	}

	// fresh anonymous mappings are zero filled
	return mapped[:size:size], FuncDeallocator(func(Hints) {
		if err := unix.Munmap(mapped); err != nil {
			panic(moerr.NewInternalErrorNoCtx("munmap: %v", err))
		}
	}), nil
}
