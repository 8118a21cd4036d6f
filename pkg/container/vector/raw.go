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
	"bytes"
	"fmt"
	"iter"

	"github.com/RoaringBitmap/roaring"
	"go.uber.org/zap"

	"github.com/matrixorigin/fluentvec/pkg/common/moerr"
	"github.com/matrixorigin/fluentvec/pkg/common/mpool"
	"github.com/matrixorigin/fluentvec/pkg/container/types"
	"github.com/matrixorigin/fluentvec/pkg/logutil"
	metric "github.com/matrixorigin/fluentvec/pkg/util/metric/v2"
)

// RawVector is a growable array of fixed size elements whose size is known
// only at runtime. The storage is allocated from the pool and must never
// hold Go pointers.
type RawVector struct {
	// len(data) is capacity*elemSize.
	data     []byte
	elemSize int
	length   int
	capacity int
	factor   float64
	pool     *mpool.MPool
}

func NewRaw(elemSize int, opts ...Options) (*RawVector, error) {
	vec := new(RawVector)
	if err := vec.Init(elemSize, firstOptions(opts)); err != nil {
		return nil, err
	}
	return vec, nil
}

// Init initializes a zero or destroyed vector.
func (vec *RawVector) Init(elemSize int, opts Options) error {
	if vec.data != nil {
		return moerr.NewInvalidStateNoCtx("raw vector already initialized")
	}
	if elemSize <= 0 {
		return moerr.NewInvalidArgNoCtx("element size", elemSize)
	}
	opts, err := opts.normalize()
	if err != nil {
		return err
	}
	if opts.Capacity > MaxCapacity {
		return moerr.NewOOMNoCtx()
	}
	sz, err := capacityBytes(opts.Capacity, elemSize)
	if err != nil {
		return err
	}
	data, err := opts.Allocator.Alloc(int(sz))
	if err != nil {
		return err
	}

	vec.data = data
	vec.elemSize = elemSize
	vec.length = 0
	vec.capacity = opts.Capacity
	vec.factor = opts.GrowthFactor
	vec.pool = opts.Allocator
	return nil
}

func (vec *RawVector) Capacity() int {
	return vec.capacity
}

func (vec *RawVector) Length() int {
	return vec.length
}

func (vec *RawVector) ElemSize() int {
	return vec.elemSize
}

func (vec *RawVector) GrowthFactor() float64 {
	return vec.factor
}

func (vec *RawVector) Allocated() int {
	return len(vec.data)
}

func (vec *RawVector) IsDestroyed() bool {
	return vec.data == nil
}

func (vec *RawVector) slot(i int) []byte {
	off := i * vec.elemSize
	return vec.data[off : off+vec.elemSize : off+vec.elemSize]
}

func (vec *RawVector) checkLive() error {
	if vec.data == nil {
		return moerr.NewInvalidStateNoCtx("raw vector is not initialized or destroyed")
	}
	return nil
}

func (vec *RawVector) checkIndex(i int) error {
	if err := vec.checkLive(); err != nil {
		return err
	}
	if i < 0 || i >= vec.length {
		return moerr.NewOutOfRangeNoCtx("raw vector", "index %d, length %d", i, vec.length)
	}
	return nil
}

func (vec *RawVector) checkElem(elem []byte) error {
	if len(elem) != vec.elemSize {
		return moerr.NewInvalidArgNoCtx("element length", len(elem))
	}
	return nil
}

// Resize reallocates the storage to exactly capacity slots. On error the
// vector is left unchanged.
func (vec *RawVector) Resize(capacity int) error {
	if err := vec.checkLive(); err != nil {
		return err
	}
	if capacity <= 0 || capacity < vec.length {
		return moerr.NewInvalidArgNoCtx("capacity", capacity)
	}
	if capacity == vec.capacity {
		return nil
	}
	return vec.resize(capacity)
}

func (vec *RawVector) resize(capacity int) (err error) {
	defer func() {
		if err != nil {
			metric.RawVectorResizeFailCounter.Inc()
			return
		}
		metric.RawVectorResizeCounter.Inc()
		metric.RawVectorResizeCapacityHist.Observe(float64(capacity))
	}()

	if capacity > MaxCapacity {
		return moerr.NewOOMNoCtx()
	}
	sz, err := capacityBytes(capacity, vec.elemSize)
	if err != nil {
		return err
	}
	data, err := vec.pool.Realloc(vec.data, int(sz))
	if err != nil {
		return err
	}
	logutil.Debug("raw vector resized",
		zap.Int("from", vec.capacity),
		zap.Int("to", capacity),
		zap.Int("elem-size", vec.elemSize),
	)
	vec.data = data
	vec.capacity = capacity
	return nil
}

// Ensure makes room for n more elements with at most one resize.
func (vec *RawVector) Ensure(n int) error {
	if err := vec.checkLive(); err != nil {
		return err
	}
	capacity, err := growCapacity(vec.capacity, vec.length, n, vec.factor)
	if err != nil {
		return err
	}
	if capacity == vec.capacity {
		return nil
	}
	return vec.resize(capacity)
}

// Push appends a copy of elem, which must be ElemSize bytes long.
func (vec *RawVector) Push(elem []byte) error {
	if err := vec.checkLive(); err != nil {
		return err
	}
	if err := vec.checkElem(elem); err != nil {
		return err
	}
	if vec.length == vec.capacity {
		// elem may alias the storage released by the resize.
		elem = bytes.Clone(elem)
	}
	if err := vec.Ensure(1); err != nil {
		return err
	}
	copy(vec.slot(vec.length), elem)
	vec.length++
	return nil
}

// Pop removes the last element and returns a copy of it. The slot is not
// cleared.
func (vec *RawVector) Pop() ([]byte, error) {
	if err := vec.checkLive(); err != nil {
		return nil, err
	}
	if vec.length == 0 {
		return nil, moerr.NewEmptyVectorNoCtx()
	}
	vec.length--
	return bytes.Clone(vec.slot(vec.length)), nil
}

// Get returns element i. The result aliases the storage.
func (vec *RawVector) Get(i int) ([]byte, error) {
	if err := vec.checkIndex(i); err != nil {
		return nil, err
	}
	return vec.slot(i), nil
}

func (vec *RawVector) Set(i int, elem []byte) error {
	if err := vec.checkIndex(i); err != nil {
		return err
	}
	if err := vec.checkElem(elem); err != nil {
		return err
	}
	copy(vec.slot(i), elem)
	return nil
}

// ForEach calls op for every live element in index order, elem aliases the
// storage. Returning moerr.GetOkStopCurrRecur() stops without error.
func (vec *RawVector) ForEach(op func(elem []byte, row int) error) error {
	if err := vec.checkLive(); err != nil {
		return err
	}
	return foreachWindow(0, vec.length, func(row int) error {
		return op(vec.slot(row), row)
	}, nil)
}

func (vec *RawVector) ForEachWindow(offset, length int, op func(elem []byte, row int) error, sels *roaring.Bitmap) error {
	if err := vec.checkLive(); err != nil {
		return err
	}
	if offset < 0 || length < 0 || offset+length > vec.length {
		return moerr.NewOutOfRangeNoCtx("raw vector", "window [%d, %d), length %d", offset, offset+length, vec.length)
	}
	return foreachWindow(offset, length, func(row int) error {
		return op(vec.slot(row), row)
	}, sels)
}

func (vec *RawVector) All() iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		n := vec.length
		for i := 0; i < n && vec.data != nil; i++ {
			if !yield(i, vec.slot(i)) {
				return
			}
		}
	}
}

// Bytes returns the live elements back to back. The result aliases the
// storage.
func (vec *RawVector) Bytes() []byte {
	return vec.data[:vec.length*vec.elemSize]
}

func (vec *RawVector) Clear() {
	vec.length = 0
}

// Destroy calls fin, if any, on each live element in index order and then
// returns the storage to the pool. Destroying twice is a no-op.
func (vec *RawVector) Destroy(fin RawFinalizer) {
	if vec.data == nil {
		return
	}
	if fin != nil {
		for i := 0; i < vec.length; i++ {
			fin(vec.slot(i), i)
		}
	}
	vec.pool.Free(vec.data)
	vec.data = nil
	vec.length = 0
	vec.capacity = 0
	vec.pool = nil
}

func (vec *RawVector) String() string {
	return fmt.Sprintf("RawVector[%d]:Len=%d[Rows];Cap=%d[Rows];Allocted:%d[Bytes]",
		vec.elemSize, vec.length, vec.capacity, len(vec.data))
}

func checkFixed[T types.FixedSizeT](vec *RawVector) error {
	if err := vec.checkLive(); err != nil {
		return err
	}
	if sz := types.Sizeof[T](); sz != vec.elemSize {
		return moerr.NewInvalidArgNoCtx("element size", sz)
	}
	return nil
}

// PushFixed appends val to a vector whose element size is that of T.
func PushFixed[T types.FixedSizeT](vec *RawVector, val T) error {
	if err := checkFixed[T](vec); err != nil {
		return err
	}
	return vec.Push(types.EncodeFixed(val))
}

func GetFixed[T types.FixedSizeT](vec *RawVector, i int) (v T, err error) {
	if err = checkFixed[T](vec); err != nil {
		return
	}
	elem, err := vec.Get(i)
	if err != nil {
		return
	}
	return types.DecodeFixed[T](elem), nil
}

func SetFixed[T types.FixedSizeT](vec *RawVector, i int, val T) error {
	if err := checkFixed[T](vec); err != nil {
		return err
	}
	return vec.Set(i, types.EncodeFixed(val))
}

// FixedCol views the live elements as a slice of T. The result aliases the
// storage.
func FixedCol[T types.FixedSizeT](vec *RawVector) ([]T, error) {
	if err := checkFixed[T](vec); err != nil {
		return nil, err
	}
	return types.DecodeSlice[T](vec.Bytes()), nil
}
