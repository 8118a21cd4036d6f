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
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"

	"github.com/matrixorigin/fluentvec/pkg/common/malloc"
	"github.com/matrixorigin/fluentvec/pkg/common/moerr"
	"github.com/matrixorigin/fluentvec/pkg/common/mpool"
	"github.com/matrixorigin/fluentvec/pkg/container/vector"
	"github.com/matrixorigin/fluentvec/pkg/logutil"
)

// Config is the toml configuration of the tools.
type Config struct {
	Log    logutil.LogConfig `toml:"log"`
	Malloc malloc.Config     `toml:"malloc"`
	MPool  MPoolConfig       `toml:"mpool"`
	Vector VectorConfig      `toml:"vector"`
	Bench  BenchConfig       `toml:"bench"`
}

// VectorConfig are the construction options of the containers.
type VectorConfig struct {
	//initial capacity in slots. default: 8
	InitialCapacity int `toml:"initial-capacity"`

	//growth factor, must be greater than 1. default: 2.0
	GrowthFactor float64 `toml:"growth-factor"`
}

// Options returns the container options allocating from mp.
func (c VectorConfig) Options(mp *mpool.MPool) vector.Options {
	return vector.Options{
		Capacity:     c.InitialCapacity,
		GrowthFactor: c.GrowthFactor,
		Allocator:    mp,
	}
}

type MPoolConfig struct {
	//name of the pool, a random one when empty
	Name string `toml:"name"`

	//byte cap, 0 for no limit. default: 0
	Cap int64 `toml:"cap"`

	//default is true. publish the pool usage as prometheus gauges
	EnableMetrics bool `toml:"enable-metrics"`
}

// Build creates the pool on top of allocator.
func (c MPoolConfig) Build(allocator malloc.Allocator) (*mpool.MPool, error) {
	flag := 0
	if !c.EnableMetrics {
		flag |= mpool.NoMetrics
	}
	return mpool.NewMPoolWithAllocator(c.Name, c.Cap, flag, allocator)
}

type BenchConfig struct {
	//size of the worker pool. default: 4
	Workers int `toml:"workers"`

	//number of independent workloads. default: 64
	Tasks int `toml:"tasks"`

	//pushes per workload. default: 10000
	Pushes int `toml:"pushes"`

	//containers exercised, any of "typed", "generic" and "raw". default: all
	Kinds []string `toml:"kinds"`
}

const (
	BenchTyped   = "typed"
	BenchGeneric = "generic"
	BenchRaw     = "raw"
)

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return &Config{
		Log: logutil.LogConfig{
			Level:  zapcore.InfoLevel.String(),
			Format: "console",
		},
		Malloc: malloc.Config{
			Allocator: malloc.AllocatorGo,
		},
		MPool: MPoolConfig{
			Name:          "vecbench",
			EnableMetrics: true,
		},
		Vector: VectorConfig{
			InitialCapacity: vector.DefaultCapacity,
			GrowthFactor:    vector.DefaultGrowthFactor,
		},
		Bench: BenchConfig{
			Workers: 4,
			Tasks:   64,
			Pushes:  10000,
			Kinds:   []string{BenchTyped, BenchGeneric, BenchRaw},
		},
	}
}

// Parse decodes data over the defaults and validates the result.
func Parse(data string) (*Config, error) {
	cfg := NewConfig()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, moerr.NewBadConfigNoCtx("%v", err)
	}
	return cfg, cfg.check(md)
}

// LoadFromFile decodes the file at path over the defaults and validates the
// result.
func LoadFromFile(path string) (*Config, error) {
	cfg := NewConfig()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, moerr.NewBadConfigNoCtx("%s: %v", path, err)
	}
	return cfg, cfg.check(md)
}

func (c *Config) check(md toml.MetaData) error {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return moerr.NewBadConfigNoCtx("unknown keys: %s", strings.Join(keys, ", "))
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return moerr.NewBadConfigNoCtx("log level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "console":
	default:
		return moerr.NewBadConfigNoCtx("log format %q", c.Log.Format)
	}
	if err := c.Malloc.Validate(); err != nil {
		return err
	}
	if c.MPool.Cap < 0 {
		return moerr.NewBadConfigNoCtx("mpool cap %d", c.MPool.Cap)
	}
	if c.Vector.InitialCapacity <= 0 {
		return moerr.NewBadConfigNoCtx("vector initial capacity %d", c.Vector.InitialCapacity)
	}
	if !(c.Vector.GrowthFactor > 1.0) {
		return moerr.NewBadConfigNoCtx("vector growth factor %v", c.Vector.GrowthFactor)
	}
	if c.Bench.Workers <= 0 || c.Bench.Tasks < 0 || c.Bench.Pushes < 0 {
		return moerr.NewBadConfigNoCtx("bench workers %d, tasks %d, pushes %d",
			c.Bench.Workers, c.Bench.Tasks, c.Bench.Pushes)
	}
	for _, kind := range c.Bench.Kinds {
		switch kind {
		case BenchTyped, BenchGeneric, BenchRaw:
		default:
			return moerr.NewBadConfigNoCtx("bench kind %q", kind)
		}
	}
	return nil
}
