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

package mpool

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/matrixorigin/fluentvec/pkg/common/malloc"
	"github.com/matrixorigin/fluentvec/pkg/common/moerr"
	"github.com/matrixorigin/fluentvec/pkg/logutil"
	metric "github.com/matrixorigin/fluentvec/pkg/util/metric/v2"
)

// Mo Pool flags.
const (
	// NoMetrics keeps the pool out of the prometheus gauges.
	NoMetrics = 1 << iota
)

// NoLimit is the cap of a pool without a byte limit.
const NoLimit int64 = 0

// MPoolStats are updated atomically and may be read while the pool is in use.
type MPoolStats struct {
	NumAlloc      atomic.Int64 // number of allocations
	NumFree       atomic.Int64 // number of frees
	NumAllocBytes atomic.Int64 // number of bytes allocated
	NumFreeBytes  atomic.Int64 // number of bytes freed
	NumCurrBytes  atomic.Int64 // current number of bytes
	HighWaterMark atomic.Int64 // high water mark
}

func (s *MPoolStats) Report(tab string) string {
	if s.HighWaterMark.Load() == 0 {
		// empty, reduce noise.
		return ""
	}

	ret := ""
	ret += fmt.Sprintf("%s allocations : %d\n", tab, s.NumAlloc.Load())
	ret += fmt.Sprintf("%s frees : %d\n", tab, s.NumFree.Load())
	ret += fmt.Sprintf("%s alloc bytes : %d\n", tab, s.NumAllocBytes.Load())
	ret += fmt.Sprintf("%s free bytes : %d\n", tab, s.NumFreeBytes.Load())
	ret += fmt.Sprintf("%s current bytes : %d\n", tab, s.NumCurrBytes.Load())
	ret += fmt.Sprintf("%s high water mark : %d\n", tab, s.HighWaterMark.Load())
	return ret
}

func (s *MPoolStats) ReportJson() string {
	if s.HighWaterMark.Load() == 0 {
		return ""
	}
	ret := "{"
	ret += fmt.Sprintf("\"alloc\": %d,", s.NumAlloc.Load())
	ret += fmt.Sprintf("\"free\": %d,", s.NumFree.Load())
	ret += fmt.Sprintf("\"allocBytes\": %d,", s.NumAllocBytes.Load())
	ret += fmt.Sprintf("\"freeBytes\": %d,", s.NumFreeBytes.Load())
	ret += fmt.Sprintf("\"currBytes\": %d,", s.NumCurrBytes.Load())
	ret += fmt.Sprintf("\"highWaterMark\": %d", s.HighWaterMark.Load())
	ret += "}"
	return ret
}

// RecordAlloc updates the counters and returns the current byte count.
func (s *MPoolStats) RecordAlloc(sz int64) int64 {
	s.NumAlloc.Add(1)
	s.NumAllocBytes.Add(sz)
	curr := s.NumCurrBytes.Add(sz)
	s.updateHighWaterMark(curr)
	return curr
}

func (s *MPoolStats) updateHighWaterMark(curr int64) {
	for {
		hwm := s.HighWaterMark.Load()
		if curr <= hwm || s.HighWaterMark.CompareAndSwap(hwm, curr) {
			return
		}
	}
}

func (s *MPoolStats) RecordFree(sz int64) int64 {
	s.NumFree.Add(1)
	s.NumFreeBytes.Add(sz)
	return s.NumCurrBytes.Add(-sz)
}

var globalStats MPoolStats

// GlobalStats aggregates every pool of the process.
func GlobalStats() *MPoolStats {
	return &globalStats
}

type allocation struct {
	size int64
	dec  malloc.Deallocator
}

// MPool is an accounted memory pool with an optional byte cap. Buffers handed
// out by Alloc must be returned with Free. Reserve/Release account memory the
// caller keeps on the Go heap.
type MPool struct {
	id        int64
	name      string
	cap       int64
	flag      int
	allocator malloc.Allocator
	stats     MPoolStats
	gauge     prometheus.Gauge
	oom       prometheus.Counter

	mu     sync.Mutex
	allocs map[*byte]allocation
}

var nextPool atomic.Int64

// pools is the registry used by ReportMemUsage, keyed by pool id.
var pools sync.Map

// allocatorFactory returns the allocator of pools created by NewMPool.
var allocatorFactory = malloc.GetDefault

// NewMPool creates a pool named name with a byte cap. Pools with an empty
// name are given a unique one.
func NewMPool(name string, cap int64, flag int) (*MPool, error) {
	return NewMPoolWithAllocator(name, cap, flag, allocatorFactory())
}

func NewMPoolWithAllocator(name string, cap int64, flag int, allocator malloc.Allocator) (*MPool, error) {
	if cap < 0 {
		return nil, moerr.NewInvalidArgNoCtx("mpool cap", cap)
	}
	if allocator == nil {
		return nil, moerr.NewInvalidArgNoCtx("mpool allocator", "nil")
	}
	if name == "" {
		name = uuid.NewString()
	}

	mp := &MPool{
		id:        nextPool.Add(1),
		name:      name,
		cap:       cap,
		flag:      flag,
		allocator: allocator,
		allocs:    make(map[*byte]allocation),
	}
	if flag&NoMetrics == 0 {
		mp.gauge = metric.MPoolAllocatedGauge(name)
		mp.oom = metric.MPoolOOMCounter(name)
	}
	pools.Store(mp.id, mp)
	logutil.Debug("mpool created",
		zap.String("name", name),
		zap.Int64("cap", cap),
	)
	return mp, nil
}

// MustNewZero returns an unnamed, unlimited pool that does not publish
// metrics.
func MustNewZero() *MPool {
	mp, err := NewMPool("", NoLimit, NoMetrics)
	if err != nil {
		panic(err)
	}
	return mp
}

func MustNew(name string) *MPool {
	mp, err := NewMPool(name, NoLimit, 0)
	if err != nil {
		panic(err)
	}
	return mp
}

// DeleteMPool drops mp from the registry. Outstanding bytes are reported as
// a leak.
func DeleteMPool(mp *MPool) {
	if mp == nil {
		return
	}
	if _, ok := pools.LoadAndDelete(mp.id); !ok {
		return
	}
	if curr := mp.CurrNB(); curr != 0 {
		logutil.Warn("mpool deleted with outstanding memory",
			zap.String("name", mp.name),
			zap.Int64("bytes", curr),
		)
	}
	if mp.gauge != nil {
		metric.DeleteMPoolMetrics(mp.name)
	}
}

func (mp *MPool) Name() string {
	return mp.name
}

func (mp *MPool) Cap() int64 {
	return mp.cap
}

func (mp *MPool) CurrNB() int64 {
	return mp.stats.NumCurrBytes.Load()
}

func (mp *MPool) Stats() *MPoolStats {
	return &mp.stats
}

func (mp *MPool) String() string {
	return fmt.Sprintf("MPool %d %s: cap %d, curr %d, hwm %d",
		mp.id, mp.name, mp.cap, mp.CurrNB(), mp.stats.HighWaterMark.Load())
}

func (mp *MPool) account(sz int64) error {
	var curr int64
	for {
		prev := mp.stats.NumCurrBytes.Load()
		curr = prev + sz
		if mp.cap != NoLimit && curr > mp.cap {
			if mp.oom != nil {
				mp.oom.Inc()
			}
			logutil.Warn("mpool out of memory",
				zap.String("name", mp.name),
				zap.Int64("cap", mp.cap),
				zap.Int64("current", prev),
				zap.Int64("request", sz),
			)
			ctx := moerr.AttachDetail(context.Background(),
				fmt.Sprintf("pool %s, cap %d, request %d", mp.name, mp.cap, sz))
			return moerr.NewOOM(ctx)
		}
		if mp.stats.NumCurrBytes.CompareAndSwap(prev, curr) {
			break
		}
	}
	mp.stats.NumAlloc.Add(1)
	mp.stats.NumAllocBytes.Add(sz)
	mp.stats.updateHighWaterMark(curr)

	globalStats.RecordAlloc(sz)
	if mp.gauge != nil {
		mp.gauge.Set(float64(curr))
	}
	return nil
}

func (mp *MPool) unaccount(sz int64) {
	curr := mp.stats.RecordFree(sz)
	globalStats.RecordFree(sz)
	if mp.gauge != nil {
		mp.gauge.Set(float64(curr))
	}
}

// Alloc returns a zeroed buffer of sz bytes.
func (mp *MPool) Alloc(sz int) ([]byte, error) {
	if sz < 0 {
		return nil, moerr.NewInvalidArgNoCtx("mpool alloc size", sz)
	}
	if sz == 0 {
		return nil, nil
	}
	if err := mp.account(int64(sz)); err != nil {
		return nil, err
	}
	buf, dec, err := mp.allocator.Allocate(uint64(sz), 0)
	if err != nil {
		mp.unaccount(int64(sz))
		return nil, err
	}

	mp.mu.Lock()
	mp.allocs[unsafe.SliceData(buf)] = allocation{size: int64(sz), dec: dec}
	mp.mu.Unlock()
	return buf[:sz:sz], nil
}

// Free returns a buffer obtained from Alloc or Realloc. Freeing a buffer the
// pool does not own panics.
func (mp *MPool) Free(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	key := unsafe.SliceData(buf)

	mp.mu.Lock()
	a, ok := mp.allocs[key]
	if ok {
		delete(mp.allocs, key)
	}
	mp.mu.Unlock()
	if !ok {
		panic(moerr.NewInternalErrorNoCtx("mpool %s: free of unknown or already freed buffer", mp.name))
	}

	a.dec.Deallocate(0)
	mp.unaccount(a.size)
}

// Realloc returns a buffer of sz bytes holding the leading bytes of old.
// Bytes past len(old) are zero. On error old is left untouched.
func (mp *MPool) Realloc(old []byte, sz int) ([]byte, error) {
	if cap(old) == 0 {
		return mp.Alloc(sz)
	}
	if sz == len(old) {
		return old, nil
	}
	if sz == 0 {
		mp.Free(old)
		return nil, nil
	}

	buf, err := mp.Alloc(sz)
	if err != nil {
		return nil, err
	}
	copy(buf, old)
	mp.Free(old)
	return buf, nil
}

// Reserve accounts sz bytes held outside of the pool buffers.
func (mp *MPool) Reserve(sz int64) error {
	if sz < 0 {
		return moerr.NewInvalidArgNoCtx("mpool reserve size", sz)
	}
	if sz == 0 {
		return nil
	}
	return mp.account(sz)
}

func (mp *MPool) Release(sz int64) {
	if sz <= 0 {
		return
	}
	mp.unaccount(sz)
}

type poolUsage struct {
	Name  string          `json:"name"`
	Cap   int64           `json:"cap"`
	Stats json.RawMessage `json:"stats,omitempty"`
}

// ReportMemUsage returns the usage of the pools named name as JSON. An empty
// name reports every pool, "global" reports the process totals.
func ReportMemUsage(name string) string {
	if name == "global" {
		return fmt.Sprintf("{\"global\": %s}", orEmpty(globalStats.ReportJson()))
	}

	usage := make([]poolUsage, 0)
	pools.Range(func(_, v any) bool {
		mp := v.(*MPool)
		if name != "" && mp.name != name {
			return true
		}
		u := poolUsage{Name: mp.name, Cap: mp.cap}
		if js := mp.stats.ReportJson(); js != "" {
			u.Stats = json.RawMessage(js)
		}
		usage = append(usage, u)
		return true
	})
	data, err := json.Marshal(usage)
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}", err.Error())
	}
	return string(data)
}

func orEmpty(js string) string {
	if js == "" {
		return "{}"
	}
	return js
}
