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

	"github.com/matrixorigin/fluentvec/pkg/common/malloc"
	"github.com/matrixorigin/fluentvec/pkg/common/moerr"
)

// MaxCapacity bounds the number of slots of any container.
const MaxCapacity = math.MaxInt32

// growCapacity returns the capacity needed to hold n more elements. It is
// capacity itself when no resize is needed, otherwise the larger of the
// grown capacity and the exact requirement.
func growCapacity(capacity, length, n int, factor float64) (int, error) {
	if n < 0 {
		return 0, moerr.NewInvalidArgNoCtx("ensure count", n)
	}
	need := length + n
	if need < length || need > MaxCapacity {
		return 0, moerr.NewOOMNoCtx()
	}
	if need <= capacity {
		return capacity, nil
	}

	grown := math.Floor(float64(capacity) * factor)
	if grown > MaxCapacity {
		grown = MaxCapacity
	}
	return max(int(grown), need), nil
}

// capacityBytes returns capacity*elemSize, or an OOM error when it exceeds
// malloc.MaxAllocSize.
func capacityBytes(capacity, elemSize int) (int64, error) {
	if elemSize == 0 {
		return 0, nil
	}
	if int64(capacity) > malloc.MaxAllocSize/int64(elemSize) {
		return 0, moerr.NewOOMNoCtx()
	}
	return int64(capacity) * int64(elemSize), nil
}
