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
	"fmt"
	"iter"
	"reflect"

	"github.com/RoaringBitmap/roaring"
	"go.uber.org/zap"

	"github.com/matrixorigin/fluentvec/pkg/common/moerr"
	"github.com/matrixorigin/fluentvec/pkg/common/mpool"
	"github.com/matrixorigin/fluentvec/pkg/container/types"
	"github.com/matrixorigin/fluentvec/pkg/logutil"
	metric "github.com/matrixorigin/fluentvec/pkg/util/metric/v2"
)

// Vector is a growable contiguous array of T owned by a single goroutine.
// The storage stays on the Go heap, its size is accounted in the allocator
// pool. Slices and pointers obtained from a Vector are invalidated by any
// operation that changes its capacity.
type Vector[T any] struct {
	// len(data) is the capacity, data[:length] the live elements.
	data     []T
	length   int
	factor   float64
	pool     *mpool.MPool
	reserved int64
}

// New returns an initialized vector. Without options DefaultOptions is used.
func New[T any](opts ...Options) (*Vector[T], error) {
	vec := new(Vector[T])
	if err := vec.Init(firstOptions(opts)); err != nil {
		return nil, err
	}
	return vec, nil
}

// Init initializes a zero or destroyed vector.
func (vec *Vector[T]) Init(opts Options) error {
	if vec.data != nil {
		return moerr.NewInvalidStateNoCtx("vector already initialized")
	}
	opts, err := opts.normalize()
	if err != nil {
		return err
	}
	if opts.Capacity > MaxCapacity {
		return moerr.NewOOMNoCtx()
	}
	sz, err := capacityBytes(opts.Capacity, types.Sizeof[T]())
	if err != nil {
		return err
	}
	if err = opts.Allocator.Reserve(sz); err != nil {
		return err
	}

	vec.data = make([]T, opts.Capacity)
	vec.length = 0
	vec.factor = opts.GrowthFactor
	vec.pool = opts.Allocator
	vec.reserved = sz
	return nil
}

func (vec *Vector[T]) Capacity() int {
	return len(vec.data)
}

func (vec *Vector[T]) Length() int {
	return vec.length
}

func (vec *Vector[T]) GrowthFactor() float64 {
	return vec.factor
}

// Allocated returns the bytes accounted for the storage.
func (vec *Vector[T]) Allocated() int {
	return int(vec.reserved)
}

func (vec *Vector[T]) IsDestroyed() bool {
	return vec.data == nil
}

func (vec *Vector[T]) checkLive() error {
	if vec.data == nil {
		return moerr.NewInvalidStateNoCtx("vector is not initialized or destroyed")
	}
	return nil
}

func (vec *Vector[T]) checkIndex(i int) error {
	if err := vec.checkLive(); err != nil {
		return err
	}
	if i < 0 || i >= vec.length {
		return moerr.NewOutOfRangeNoCtx("vector", "index %d, length %d", i, vec.length)
	}
	return nil
}

// Resize reallocates the storage to exactly capacity slots. On error the
// vector is left unchanged.
func (vec *Vector[T]) Resize(capacity int) error {
	if err := vec.checkLive(); err != nil {
		return err
	}
	if capacity <= 0 || capacity < vec.length {
		return moerr.NewInvalidArgNoCtx("capacity", capacity)
	}
	if capacity == len(vec.data) {
		return nil
	}
	return vec.resize(capacity)
}

func (vec *Vector[T]) resize(capacity int) (err error) {
	defer func() {
		if err != nil {
			metric.TypedVectorResizeFailCounter.Inc()
			return
		}
		metric.TypedVectorResizeCounter.Inc()
		metric.TypedVectorResizeCapacityHist.Observe(float64(capacity))
	}()

	if capacity > MaxCapacity {
		return moerr.NewOOMNoCtx()
	}
	sz, err := capacityBytes(capacity, types.Sizeof[T]())
	if err != nil {
		return err
	}
	// reserve the new storage before the old one is released.
	if err = vec.pool.Reserve(sz); err != nil {
		return err
	}
	data := make([]T, capacity)
	copy(data, vec.data[:vec.length])
	logutil.Debug("vector resized",
		zap.Int("from", len(vec.data)),
		zap.Int("to", capacity),
		zap.Int("length", vec.length),
	)
	vec.data = data
	vec.pool.Release(vec.reserved)
	vec.reserved = sz
	return nil
}

// Ensure makes room for n more elements with at most one resize.
func (vec *Vector[T]) Ensure(n int) error {
	if err := vec.checkLive(); err != nil {
		return err
	}
	capacity, err := growCapacity(len(vec.data), vec.length, n, vec.factor)
	if err != nil {
		return err
	}
	if capacity == len(vec.data) {
		return nil
	}
	return vec.resize(capacity)
}

func (vec *Vector[T]) Push(v T) error {
	if err := vec.Ensure(1); err != nil {
		return err
	}
	vec.data[vec.length] = v
	vec.length++
	return nil
}

// Pop removes and returns the last element. The slot is not cleared.
func (vec *Vector[T]) Pop() (v T, err error) {
	if err = vec.checkLive(); err != nil {
		return
	}
	if vec.length == 0 {
		err = moerr.NewEmptyVectorNoCtx()
		return
	}
	vec.length--
	return vec.data[vec.length], nil
}

func (vec *Vector[T]) Get(i int) (v T, err error) {
	if err = vec.checkIndex(i); err != nil {
		return
	}
	return vec.data[i], nil
}

// GetPtr returns the address of element i.
func (vec *Vector[T]) GetPtr(i int) (*T, error) {
	if err := vec.checkIndex(i); err != nil {
		return nil, err
	}
	return &vec.data[i], nil
}

func (vec *Vector[T]) Set(i int, v T) error {
	if err := vec.checkIndex(i); err != nil {
		return err
	}
	vec.data[i] = v
	return nil
}

// ForEach calls op for every live element in index order. The range is
// fixed when ForEach starts. Returning moerr.GetOkStopCurrRecur() stops the
// iteration without error.
func (vec *Vector[T]) ForEach(op func(v T, row int) error) error {
	if err := vec.checkLive(); err != nil {
		return err
	}
	return foreachWindow(0, vec.length, func(row int) error {
		return op(vec.data[row], row)
	}, nil)
}

// ForEachPtr is ForEach handing out element addresses, so op may update
// elements in place.
func (vec *Vector[T]) ForEachPtr(op func(v *T, row int) error) error {
	if err := vec.checkLive(); err != nil {
		return err
	}
	return foreachWindow(0, vec.length, func(row int) error {
		return op(&vec.data[row], row)
	}, nil)
}

// ForEachWindow calls op for the elements of [offset, offset+length). If
// sels is not empty only the selected rows of the window are visited.
func (vec *Vector[T]) ForEachWindow(offset, length int, op func(v T, row int) error, sels *roaring.Bitmap) error {
	if err := vec.checkLive(); err != nil {
		return err
	}
	if offset < 0 || length < 0 || offset+length > vec.length {
		return moerr.NewOutOfRangeNoCtx("vector", "window [%d, %d), length %d", offset, offset+length, vec.length)
	}
	return foreachWindow(offset, length, func(row int) error {
		return op(vec.data[row], row)
	}, sels)
}

// All returns an iterator over the live elements.
func (vec *Vector[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		n := vec.length
		for i := 0; i < n && vec.data != nil; i++ {
			if !yield(i, vec.data[i]) {
				return
			}
		}
	}
}

// Slice returns the live elements. The result aliases the storage.
func (vec *Vector[T]) Slice() []T {
	return vec.data[:vec.length]
}

// Clear drops every element, keeping the storage. No finalizer runs.
func (vec *Vector[T]) Clear() {
	vec.length = 0
}

// Destroy calls fin, if any, on each live element in index order and then
// releases the storage. Destroying twice is a no-op.
func (vec *Vector[T]) Destroy(fin Finalizer[T]) {
	if vec.data == nil {
		return
	}
	if fin != nil {
		for i := 0; i < vec.length; i++ {
			fin(vec.data[i], i)
		}
	}
	vec.pool.Release(vec.reserved)
	vec.data = nil
	vec.length = 0
	vec.reserved = 0
	vec.pool = nil
}

func (vec *Vector[T]) String() string {
	return fmt.Sprintf("Vector[%s]:Len=%d[Rows];Cap=%d[Rows];Allocted:%d[Bytes]",
		reflect.TypeFor[T](), vec.length, len(vec.data), vec.reserved)
}

// Generic is the container of arbitrary values.
type Generic = Vector[any]

func NewGeneric(opts ...Options) (*Generic, error) {
	return New[any](opts...)
}
