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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/fluentvec/pkg/common/malloc"
	"github.com/matrixorigin/fluentvec/pkg/common/moerr"
	"github.com/matrixorigin/fluentvec/pkg/common/mpool"
)

func TestDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 8, cfg.Vector.InitialCapacity)
	require.Equal(t, 2.0, cfg.Vector.GrowthFactor)
	require.Equal(t, []string{BenchTyped, BenchGeneric, BenchRaw}, cfg.Bench.Kinds)
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
[log]
level = "debug"
format = "json"

[malloc]
allocator = "c"
enable-metrics = true

[mpool]
name = "bench"
cap = 1048576
enable-metrics = false

[vector]
initial-capacity = 2
growth-factor = 1.5

[bench]
workers = 2
tasks = 8
pushes = 100
kinds = ["raw"]
`)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, malloc.AllocatorC, cfg.Malloc.Allocator)
	require.True(t, cfg.Malloc.EnableMetrics)
	require.Equal(t, int64(1<<20), cfg.MPool.Cap)
	require.Equal(t, 1.5, cfg.Vector.GrowthFactor)
	require.Equal(t, []string{BenchRaw}, cfg.Bench.Kinds)

	mp, err := cfg.MPool.Build(malloc.NewGoAllocator())
	require.NoError(t, err)
	defer mpool.DeleteMPool(mp)
	require.Equal(t, "bench", mp.Name())
	require.Equal(t, int64(1<<20), mp.Cap())

	opts := cfg.Vector.Options(mp)
	require.Equal(t, 2, opts.Capacity)
	require.Equal(t, 1.5, opts.GrowthFactor)
	require.Equal(t, mp, opts.Allocator)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", `[vector`},
		{"unknown key", "[vector]\ncapacity = 3\n"},
		{"zero capacity", "[vector]\ninitial-capacity = 0\n"},
		{"growth factor", "[vector]\ngrowth-factor = 1.0\n"},
		{"allocator", "[malloc]\nallocator = \"jemalloc\"\n"},
		{"log level", "[log]\nlevel = \"loud\"\n"},
		{"log format", "[log]\nformat = \"xml\"\n"},
		{"mpool cap", "[mpool]\ncap = -1\n"},
		{"workers", "[bench]\nworkers = 0\n"},
		{"kind", "[bench]\nkinds = [\"tree\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadConfig), "%v", err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[bench]\ntasks = 3\n"), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Bench.Tasks)
	require.Equal(t, 4, cfg.Bench.Workers)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadConfig))
}
