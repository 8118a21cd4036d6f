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
	"errors"
	"math"
	"testing"

	"github.com/RoaringBitmap/roaring"
	"github.com/prashantv/gostub"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/fluentvec/pkg/common/malloc"
	"github.com/matrixorigin/fluentvec/pkg/common/moerr"
	"github.com/matrixorigin/fluentvec/pkg/common/mpool"
	metric "github.com/matrixorigin/fluentvec/pkg/util/metric/v2"
)

func testPool(t *testing.T, cap int64) *mpool.MPool {
	mp, err := mpool.NewMPool("", cap, mpool.NoMetrics)
	require.NoError(t, err)
	t.Cleanup(func() { mpool.DeleteMPool(mp) })
	return mp
}

func TestGrowCapacity(t *testing.T) {
	tests := []struct {
		name                string
		capacity, length, n int
		factor              float64
		want                int
	}{
		{"fits", 4, 2, 2, 2.0, 4},
		{"grow by factor", 4, 4, 1, 2.0, 8},
		{"grow to need", 4, 4, 10, 2.0, 14},
		{"floor", 3, 3, 1, 1.5, 4},
		{"factor too small to add a slot", 1, 1, 1, 1.5, 2},
		{"zero n", 4, 4, 0, 2.0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := growCapacity(tt.capacity, tt.length, tt.n, tt.factor)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := growCapacity(4, 4, -1, 2.0)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))
	_, err = growCapacity(MaxCapacity, MaxCapacity, 1, 2.0)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOOM))
	got, err := growCapacity(MaxCapacity/2+1, MaxCapacity/2+1, 1, 2.0)
	require.NoError(t, err)
	require.Equal(t, MaxCapacity, got)
}

func TestNewOptions(t *testing.T) {
	mp := testPool(t, mpool.NoLimit)
	stubs := gostub.Stub(&getDefaultPool, func() *mpool.MPool { return mp })
	defer stubs.Reset()

	vec, err := New[int64]()
	require.NoError(t, err)
	require.Equal(t, DefaultCapacity, vec.Capacity())
	require.Equal(t, 0, vec.Length())
	require.Equal(t, DefaultGrowthFactor, vec.GrowthFactor())
	require.Equal(t, DefaultCapacity*8, vec.Allocated())
	require.Equal(t, int64(DefaultCapacity*8), mp.CurrNB())

	vec.Destroy(nil)
	require.Equal(t, int64(0), mp.CurrNB())

	vec, err = New[int64](Options{Capacity: 3})
	require.NoError(t, err)
	require.Equal(t, 3, vec.Capacity())
	require.Equal(t, DefaultGrowthFactor, vec.GrowthFactor())
	vec.Destroy(nil)
}

func TestNewInvalidOptions(t *testing.T) {
	mp := testPool(t, mpool.NoLimit)
	tests := []struct {
		name string
		opts Options
	}{
		{"zero capacity", Options{Capacity: 0, Allocator: mp}},
		{"negative capacity", Options{Capacity: -1, Allocator: mp}},
		{"factor one", Options{Capacity: 4, GrowthFactor: 1.0, Allocator: mp}},
		{"factor below one", Options{Capacity: 4, GrowthFactor: 0.5, Allocator: mp}},
		{"negative factor", Options{Capacity: 4, GrowthFactor: -2, Allocator: mp}},
		{"nan factor", Options{Capacity: 4, GrowthFactor: math.NaN(), Allocator: mp}},
		{"inf factor", Options{Capacity: 4, GrowthFactor: math.Inf(1), Allocator: mp}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec, err := New[int](tt.opts)
			require.Nil(t, vec)
			require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg), "%v", err)

			raw, err := NewRaw(8, tt.opts)
			require.Nil(t, raw)
			require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg), "%v", err)
		})
	}
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestInitLifecycle(t *testing.T) {
	mp := testPool(t, mpool.NoLimit)
	var vec Vector[int]
	require.True(t, vec.IsDestroyed())
	require.True(t, moerr.IsMoErrCode(vec.Push(1), moerr.ErrInvalidState))

	opts := Options{Capacity: 2, Allocator: mp}
	require.NoError(t, vec.Init(opts))
	require.True(t, moerr.IsMoErrCode(vec.Init(opts), moerr.ErrInvalidState))
	require.NoError(t, vec.Push(1))

	vec.Destroy(nil)
	require.True(t, vec.IsDestroyed())
	require.NoError(t, vec.Init(opts))
	require.Equal(t, 0, vec.Length())
	require.Equal(t, 2, vec.Capacity())
	vec.Destroy(nil)
}

func TestPushGrowth(t *testing.T) {
	mp := testPool(t, mpool.NoLimit)
	vec, err := New[int](Options{Capacity: 2, GrowthFactor: 2.0, Allocator: mp})
	require.NoError(t, err)
	defer vec.Destroy(nil)

	caps := []int{}
	for _, v := range []int{10, 20, 30, 40, 50} {
		require.NoError(t, vec.Push(v))
		require.LessOrEqual(t, vec.Length(), vec.Capacity())
		caps = append(caps, vec.Capacity())
	}
	require.Equal(t, []int{2, 2, 4, 4, 8}, caps)
	require.Equal(t, 5, vec.Length())
	require.Equal(t, []int{10, 20, 30, 40, 50}, vec.Slice())
	require.Equal(t, int64(8*8), mp.CurrNB())
}

func TestPushPop(t *testing.T) {
	mp := testPool(t, mpool.NoLimit)
	vec, err := New[string](Options{Capacity: 4, Allocator: mp})
	require.NoError(t, err)
	defer vec.Destroy(nil)

	_, err = vec.Pop()
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrEmptyVector))

	require.NoError(t, vec.Push("a"))
	require.NoError(t, vec.Push("b"))
	v, err := vec.Pop()
	require.NoError(t, err)
	require.Equal(t, "b", v)
	require.Equal(t, 1, vec.Length())
	require.Equal(t, 4, vec.Capacity())

	// the slot is not cleared.
	require.Equal(t, "b", vec.data[1])
}

func TestGetSetBounds(t *testing.T) {
	mp := testPool(t, mpool.NoLimit)
	vec, err := New[float64](Options{Capacity: 4, Allocator: mp})
	require.NoError(t, err)
	defer vec.Destroy(nil)

	for _, i := range []int{-1, 0, 3} {
		_, err = vec.Get(i)
		require.True(t, moerr.IsMoErrCode(err, moerr.ErrOutOfRange))
		require.True(t, moerr.IsMoErrCode(vec.Set(i, 1), moerr.ErrOutOfRange))
		_, err = vec.GetPtr(i)
		require.True(t, moerr.IsMoErrCode(err, moerr.ErrOutOfRange))
	}

	require.NoError(t, vec.Push(1.5))
	require.NoError(t, vec.Set(0, 2.5))
	v, err := vec.Get(0)
	require.NoError(t, err)
	require.Equal(t, 2.5, v)
	require.True(t, moerr.IsMoErrCode(vec.Set(1, 3), moerr.ErrOutOfRange))
	require.Equal(t, 1, vec.Length())

	p, err := vec.GetPtr(0)
	require.NoError(t, err)
	*p = 4.5
	v, _ = vec.Get(0)
	require.Equal(t, 4.5, v)
}

func TestResize(t *testing.T) {
	mp := testPool(t, mpool.NoLimit)
	vec, err := New[int64](Options{Capacity: 4, Allocator: mp})
	require.NoError(t, err)
	defer vec.Destroy(nil)

	for i := int64(0); i < 3; i++ {
		require.NoError(t, vec.Push(i))
	}
	require.True(t, moerr.IsMoErrCode(vec.Resize(2), moerr.ErrInvalidArg))
	require.True(t, moerr.IsMoErrCode(vec.Resize(0), moerr.ErrInvalidArg))

	require.NoError(t, vec.Resize(16))
	require.Equal(t, 16, vec.Capacity())
	require.Equal(t, 16*8, vec.Allocated())
	require.Equal(t, int64(16*8), mp.CurrNB())

	require.NoError(t, vec.Resize(3))
	require.Equal(t, 3, vec.Capacity())
	require.Equal(t, []int64{0, 1, 2}, vec.Slice())
	require.Equal(t, int64(3*8), mp.CurrNB())
}

func TestEnsure(t *testing.T) {
	mp := testPool(t, mpool.NoLimit)
	vec, err := New[int32](Options{Capacity: 4, GrowthFactor: 1.5, Allocator: mp})
	require.NoError(t, err)
	defer vec.Destroy(nil)

	for i := int32(0); i < 4; i++ {
		require.NoError(t, vec.Push(i))
	}
	resized := testutil.ToFloat64(metric.TypedVectorResizeCounter)
	require.NoError(t, vec.Ensure(10))
	require.Equal(t, 14, vec.Capacity())
	require.Equal(t, resized+1, testutil.ToFloat64(metric.TypedVectorResizeCounter))

	require.NoError(t, vec.Ensure(10))
	require.Equal(t, 14, vec.Capacity())
	require.True(t, moerr.IsMoErrCode(vec.Ensure(-1), moerr.ErrInvalidArg))
}

func TestClear(t *testing.T) {
	mp := testPool(t, mpool.NoLimit)
	vec, err := New[int](Options{Capacity: 2, Allocator: mp})
	require.NoError(t, err)

	require.NoError(t, vec.Push(1))
	require.NoError(t, vec.Push(2))
	require.NoError(t, vec.Push(3))
	capacity := vec.Capacity()

	called := 0
	vec.Clear()
	require.Equal(t, 0, vec.Length())
	require.Equal(t, capacity, vec.Capacity())

	resized := testutil.ToFloat64(metric.TypedVectorResizeCounter)
	require.NoError(t, vec.Push(4))
	require.Equal(t, resized, testutil.ToFloat64(metric.TypedVectorResizeCounter))
	require.Equal(t, capacity, vec.Capacity())

	vec.Destroy(func(v int, row int) { called++ })
	require.Equal(t, 1, called)
}

func TestDestroy(t *testing.T) {
	mp := testPool(t, mpool.NoLimit)
	vec, err := New[string](Options{Capacity: 2, Allocator: mp})
	require.NoError(t, err)
	for _, v := range []string{"a", "b", "c"} {
		require.NoError(t, vec.Push(v))
	}

	type seen struct {
		v   string
		row int
	}
	var got []seen
	fin := func(v string, row int) {
		got = append(got, seen{v, row})
	}
	vec.Destroy(fin)
	require.Equal(t, []seen{{"a", 0}, {"b", 1}, {"c", 2}}, got)
	require.True(t, vec.IsDestroyed())
	require.Equal(t, 0, vec.Length())
	require.Equal(t, 0, vec.Capacity())
	require.Equal(t, 0, vec.Allocated())
	require.Equal(t, int64(0), mp.CurrNB())

	vec.Destroy(fin)
	require.Equal(t, 3, len(got))

	_, err = vec.Get(0)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidState))
	_, err = vec.Pop()
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidState))
	require.True(t, moerr.IsMoErrCode(vec.Push("d"), moerr.ErrInvalidState))
	require.True(t, moerr.IsMoErrCode(vec.Resize(4), moerr.ErrInvalidState))
	require.True(t, moerr.IsMoErrCode(vec.Ensure(1), moerr.ErrInvalidState))
	require.True(t, moerr.IsMoErrCode(vec.ForEach(func(string, int) error { return nil }), moerr.ErrInvalidState))
	for range vec.All() {
		t.Fatal("destroyed vector yields")
	}
}

func TestOOMKeepsState(t *testing.T) {
	mp := testPool(t, 64)
	vec, err := New[int64](Options{Capacity: 4, Allocator: mp})
	require.NoError(t, err)
	defer vec.Destroy(nil)

	for i := int64(1); i <= 4; i++ {
		require.NoError(t, vec.Push(i))
	}
	failed := testutil.ToFloat64(metric.TypedVectorResizeFailCounter)
	err = vec.Push(5)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOOM))
	require.Equal(t, failed+1, testutil.ToFloat64(metric.TypedVectorResizeFailCounter))
	require.Equal(t, 4, vec.Length())
	require.Equal(t, 4, vec.Capacity())
	require.Equal(t, []int64{1, 2, 3, 4}, vec.Slice())
	require.Equal(t, int64(32), mp.CurrNB())

	_, err = New[int64](Options{Capacity: 5, Allocator: mp})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOOM))
	_, err = New[int64](Options{Capacity: MaxCapacity + 1, Allocator: mp})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOOM))
}

func TestCapacityBytes(t *testing.T) {
	sz, err := capacityBytes(8, 8)
	require.NoError(t, err)
	require.Equal(t, int64(64), sz)

	sz, err = capacityBytes(MaxCapacity, 0)
	require.NoError(t, err)
	require.Equal(t, int64(0), sz)

	sz, err = capacityBytes(1, malloc.MaxAllocSize)
	require.NoError(t, err)
	require.Equal(t, int64(malloc.MaxAllocSize), sz)

	_, err = capacityBytes(2, malloc.MaxAllocSize)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOOM))
	_, err = capacityBytes(1<<29, 1<<20)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOOM))
	_, err = capacityBytes(MaxCapacity, math.MaxInt64)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOOM))
}

type block [1 << 20]byte

func TestOversizedStorage(t *testing.T) {
	mp := testPool(t, mpool.NoLimit)

	_, err := New[block](Options{Capacity: 1 << 29, Allocator: mp})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOOM))
	_, err = NewRaw(1<<30, Options{Capacity: 1 << 19, Allocator: mp})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOOM))
	require.Equal(t, int64(0), mp.CurrNB())

	vec, err := New[block](Options{Capacity: 1, Allocator: mp})
	require.NoError(t, err)
	defer vec.Destroy(nil)
	require.NoError(t, vec.Push(block{7}))
	err = vec.Resize(1 << 29)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOOM))
	err = vec.Ensure(1 << 29)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOOM))
	require.Equal(t, 1, vec.Length())
	require.Equal(t, 1, vec.Capacity())
	got, err := vec.Get(0)
	require.NoError(t, err)
	require.Equal(t, byte(7), got[0])

	raw, err := NewRaw(1<<20, Options{Capacity: 1, Allocator: mp})
	require.NoError(t, err)
	defer raw.Destroy(nil)
	elem := make([]byte, 1<<20)
	elem[0] = 9
	require.NoError(t, raw.Push(elem))
	err = raw.Resize(1 << 29)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOOM))
	require.Equal(t, 1, raw.Length())
	require.Equal(t, 1, raw.Capacity())
	stored, err := raw.Get(0)
	require.NoError(t, err)
	require.Equal(t, byte(9), stored[0])
	require.Equal(t, int64(2<<20), mp.CurrNB())
}

func TestForEach(t *testing.T) {
	mp := testPool(t, mpool.NoLimit)
	vec, err := New[int](Options{Capacity: 4, Allocator: mp})
	require.NoError(t, err)
	defer vec.Destroy(nil)
	for i := 0; i < 5; i++ {
		require.NoError(t, vec.Push(i*10))
	}

	var rows []int
	err = vec.ForEach(func(v int, row int) error {
		assert.Equal(t, row*10, v)
		rows = append(rows, row)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 3, 4}, rows)

	rows = rows[:0]
	err = vec.ForEach(func(v int, row int) error {
		rows = append(rows, row)
		if row == 2 {
			return moerr.GetOkStopCurrRecur()
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, rows)

	boom := errors.New("boom")
	err = vec.ForEach(func(v int, row int) error { return boom })
	require.ErrorIs(t, err, boom)

	// the range is fixed at the start.
	visited := 0
	err = vec.ForEach(func(v int, row int) error {
		visited++
		return vec.Push(v)
	})
	require.NoError(t, err)
	require.Equal(t, 5, visited)
	require.Equal(t, 10, vec.Length())

	err = vec.ForEachPtr(func(v *int, row int) error {
		*v = row
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, vec.Slice())
}

func TestForEachWindow(t *testing.T) {
	mp := testPool(t, mpool.NoLimit)
	vec, err := New[int](Options{Capacity: 16, Allocator: mp})
	require.NoError(t, err)
	defer vec.Destroy(nil)
	for i := 0; i < 10; i++ {
		require.NoError(t, vec.Push(i))
	}

	var rows []int
	op := func(v int, row int) error {
		rows = append(rows, v)
		return nil
	}
	require.NoError(t, vec.ForEachWindow(2, 3, op, nil))
	require.Equal(t, []int{2, 3, 4}, rows)

	rows = rows[:0]
	require.NoError(t, vec.ForEachWindow(2, 3, op, roaring.New()))
	require.Equal(t, []int{2, 3, 4}, rows)

	rows = rows[:0]
	sels := roaring.BitmapOf(0, 3, 5, 7, 9)
	require.NoError(t, vec.ForEachWindow(1, 7, op, sels))
	require.Equal(t, []int{3, 5, 7}, rows)

	err = vec.ForEachWindow(5, 6, op, nil)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOutOfRange))
	err = vec.ForEachWindow(-1, 2, op, nil)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOutOfRange))
}

func TestAll(t *testing.T) {
	mp := testPool(t, mpool.NoLimit)
	vec, err := NewFloat64Vector(Options{Capacity: 2, Allocator: mp})
	require.NoError(t, err)
	defer vec.Destroy(nil)
	for _, v := range []float64{1, 2, 3} {
		require.NoError(t, vec.Push(v))
	}

	var sum float64
	for i, v := range vec.All() {
		if i == 2 {
			break
		}
		sum += v
	}
	require.Equal(t, 3.0, sum)
}

func TestGeneric(t *testing.T) {
	mp := testPool(t, mpool.NoLimit)
	vec, err := NewGeneric(Options{Capacity: 2, Allocator: mp})
	require.NoError(t, err)
	defer vec.Destroy(nil)

	require.NoError(t, vec.Push(1))
	require.NoError(t, vec.Push("two"))
	require.NoError(t, vec.Push([]byte("three")))
	require.NoError(t, vec.Push(nil))

	v, err := vec.Get(1)
	require.NoError(t, err)
	require.Equal(t, "two", v)
	v, err = vec.Pop()
	require.NoError(t, err)
	require.Nil(t, v)
	require.Equal(t, "Vector[interface {}]:Len=3[Rows];Cap=4[Rows];Allocted:64[Bytes]", vec.String())
}

type closer struct {
	closed *int
	err    error
}

func (c closer) Close() error {
	*c.closed++
	return c.err
}

func TestCloserFinalizer(t *testing.T) {
	mp := testPool(t, mpool.NoLimit)
	vec, err := New[closer](Options{Capacity: 2, Allocator: mp})
	require.NoError(t, err)

	closed := 0
	require.NoError(t, vec.Push(closer{closed: &closed}))
	require.NoError(t, vec.Push(closer{closed: &closed, err: errors.New("close")}))
	vec.Destroy(CloserFinalizer[closer]())
	require.Equal(t, 2, closed)

	ivec, err := New[interface{ Close() error }](Options{Capacity: 2, Allocator: mp})
	require.NoError(t, err)
	require.NoError(t, ivec.Push(nil))
	require.NoError(t, ivec.Push(closer{closed: &closed}))
	ivec.Destroy(CloserFinalizer[interface{ Close() error }]())
	require.Equal(t, 3, closed)
}

func TestNamedInstances(t *testing.T) {
	mp := testPool(t, mpool.NoLimit)
	opts := Options{Capacity: 1, Allocator: mp}

	bs, err := NewBytesVector(opts)
	require.NoError(t, err)
	require.NoError(t, bs.Push([]byte("x")))
	bs.Destroy(nil)

	is, err := NewIntVector(opts)
	require.NoError(t, err)
	require.NoError(t, is.Push(1))
	require.Equal(t, "Vector[int]:Len=1[Rows];Cap=1[Rows];Allocted:8[Bytes]", is.String())
	is.Destroy(nil)

	ss, err := NewStringVector(opts)
	require.NoError(t, err)
	require.IsType(t, &Vector[string]{}, ss)
	ss.Destroy(nil)
}
