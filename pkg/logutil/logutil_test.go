// Copyright 2022 Matrix Origin
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

package logutil

import (
	"context"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	prev := GetGlobalLogger()
	core, logs := observer.New(level)
	replaceGlobalLogger(zap.New(core))
	t.Cleanup(func() { replaceGlobalLogger(prev) })
	return logs
}

func TestHelpers(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	Debug("debug", zap.Int("n", 1))
	Info("info")
	Warn("warn", zap.String("pool", "p"))
	Error("error")
	Infof("hello %s", "world")
	Warnf("%d left", 3)

	entries := logs.AllUntimed()
	require.Equal(t, 6, len(entries))
	require.Equal(t, "debug", entries[0].Message)
	require.Equal(t, int64(1), entries[0].ContextMap()["n"])
	require.Equal(t, zapcore.WarnLevel, entries[2].Level)
	require.Equal(t, "hello world", entries[4].Message)
	require.Equal(t, "3 left", entries[5].Message)
	require.Panics(t, func() { Panic("boom") })
}

func TestContextFields(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	ctx := WithContextFields(context.Background(), zap.Int("worker", 2))
	ctx = WithContextFields(ctx, zap.String("kind", "raw"))
	GetGlobalLogger().WithOptions(ContextFields()(ctx)).Info("done")
	GetGlobalLogger().WithOptions(ContextFields()(context.Background())).Info("plain")

	entries := logs.AllUntimed()
	require.Equal(t, 2, len(entries))
	require.Equal(t, int64(2), entries[0].ContextMap()["worker"])
	require.Equal(t, "raw", entries[0].ContextMap()["kind"])
	require.Empty(t, entries[1].Context)
}

func TestFileOutput(t *testing.T) {
	prev := GetGlobalLogger()
	defer replaceGlobalLogger(prev)

	filename := path.Join(t.TempDir(), "fv.log")
	SetupLogger(&LogConfig{
		Level:    "info",
		Format:   "json",
		Filename: filename,
	})
	Info("to file")
	require.NoError(t, GetGlobalLogger().Sync())

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"to file"`)
}
