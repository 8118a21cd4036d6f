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

package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/matrixorigin/fluentvec/pkg/common/moerr"
	"github.com/matrixorigin/fluentvec/pkg/common/mpool"
	"github.com/matrixorigin/fluentvec/pkg/config"
	"github.com/matrixorigin/fluentvec/pkg/container/vector"
	"github.com/matrixorigin/fluentvec/pkg/logutil"
	"github.com/matrixorigin/fluentvec/pkg/logutil/logutil2"
)

type result struct {
	run      string
	tasks    int
	failed   int
	pushes   int64
	elapsed  time.Duration
	finished map[string]int
}

func (r *result) String() string {
	return fmt.Sprintf("run %s: %d tasks, %d failed, %d pushes, typed %d, generic %d, raw %d, %v",
		r.run, r.tasks, r.failed, r.pushes,
		r.finished[config.BenchTyped], r.finished[config.BenchGeneric], r.finished[config.BenchRaw],
		r.elapsed)
}

// runBench runs cfg.Bench.Tasks workloads on an ants pool. Every workload
// owns its container, the pool mp is the only shared state.
func runBench(ctx context.Context, cfg *config.Config, mp *mpool.MPool) (*result, error) {
	kinds := cfg.Bench.Kinds
	if len(kinds) == 0 {
		kinds = []string{config.BenchTyped, config.BenchGeneric, config.BenchRaw}
	}

	res := &result{
		run:      uuid.NewString(),
		tasks:    cfg.Bench.Tasks,
		finished: make(map[string]int, len(kinds)),
	}
	ctx = logutil.WithContextFields(ctx, zap.String("run", res.run))

	pool, err := ants.NewPool(cfg.Bench.Workers, ants.WithPanicHandler(func(v interface{}) {
		logutil.Error("vecbench task panic", zap.Any("panic", v))
	}))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		errs   []error
		pushes atomic.Int64
	)
	start := time.Now()
	for i := 0; i < cfg.Bench.Tasks; i++ {
		kind := kinds[i%len(kinds)]
		taskCtx := logutil.WithContextFields(ctx, zap.Int("task", i), zap.String("kind", kind))
		wg.Add(1)
		err = pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					errs = append(errs, moerr.ConvertPanicError(taskCtx, r))
					res.failed++
					mu.Unlock()
				}
			}()
			n, err := runWorkload(taskCtx, kind, cfg, mp)
			pushes.Add(int64(n))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logutil2.Warn(taskCtx, "workload failed", zap.Error(err))
				errs = append(errs, err)
				res.failed++
				return
			}
			res.finished[kind]++
		})
		if err != nil {
			wg.Done()
			return nil, err
		}
	}
	wg.Wait()

	res.pushes = pushes.Load()
	res.elapsed = time.Since(start)
	logutil2.Info(ctx, "vecbench finished",
		zap.Int("tasks", res.tasks),
		zap.Int("failed", res.failed),
		zap.Duration("elapsed", res.elapsed),
	)
	return res, errors.Join(errs...)
}

func runWorkload(ctx context.Context, kind string, cfg *config.Config, mp *mpool.MPool) (int, error) {
	opts := cfg.Vector.Options(mp)
	switch kind {
	case config.BenchTyped:
		return typedWorkload(ctx, opts, cfg.Bench.Pushes)
	case config.BenchGeneric:
		return genericWorkload(ctx, opts, cfg.Bench.Pushes)
	case config.BenchRaw:
		return rawWorkload(ctx, opts, cfg.Bench.Pushes)
	default:
		return 0, moerr.NewInvalidInput(ctx, "bench kind %q", kind)
	}
}

func typedWorkload(ctx context.Context, opts vector.Options, n int) (int, error) {
	vec, err := vector.NewInt64Vector(opts)
	if err != nil {
		return 0, err
	}
	defer vec.Destroy(nil)

	var want int64
	for i := 0; i < n; i++ {
		if err = vec.Push(int64(i)); err != nil {
			return i, err
		}
		want += int64(i)
	}
	var got int64
	for _, v := range vec.All() {
		got += v
	}
	if got != want {
		return n, moerr.NewInternalError(ctx, "typed sum %d, want %d", got, want)
	}
	for vec.Length() > n/2 {
		if _, err = vec.Pop(); err != nil {
			return n, err
		}
	}
	logutil2.Debug(ctx, "workload done", zap.String("vector", vec.String()))
	return n, nil
}

func genericWorkload(ctx context.Context, opts vector.Options, n int) (int, error) {
	vec, err := vector.NewGeneric(opts)
	if err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		var v any = i
		if i%2 == 1 {
			v = fmt.Sprint(i)
		}
		if err = vec.Push(v); err != nil {
			vec.Destroy(nil)
			return i, err
		}
	}

	strs := 0
	err = vec.ForEach(func(v any, row int) error {
		if _, ok := v.(string); ok {
			strs++
		}
		return nil
	})
	if err != nil {
		vec.Destroy(nil)
		return n, err
	}
	finalized := 0
	vec.Destroy(func(v any, row int) { finalized++ })
	if strs != n/2 || finalized != n {
		return n, moerr.NewInternalError(ctx, "generic strings %d, finalized %d of %d", strs, finalized, n)
	}
	logutil2.Debug(ctx, "workload done")
	return n, nil
}

func rawWorkload(ctx context.Context, opts vector.Options, n int) (int, error) {
	vec, err := vector.NewRaw(8, opts)
	if err != nil {
		return 0, err
	}
	defer vec.Destroy(nil)

	for i := 0; i < n; i++ {
		if err = vector.PushFixed(vec, float64(i)); err != nil {
			return i, err
		}
	}
	col, err := vector.FixedCol[float64](vec)
	if err != nil {
		return n, err
	}
	for i, v := range col {
		if v != float64(i) {
			return n, moerr.NewInternalError(ctx, "raw row %d holds %v", i, v)
		}
	}
	logutil2.Debug(ctx, "workload done", zap.String("vector", vec.String()))
	return n, nil
}
