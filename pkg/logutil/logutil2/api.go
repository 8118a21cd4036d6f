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

// Package logutil2 logs with the fields carried by a context, see
// logutil.WithContextFields.
package logutil2

import (
	"context"

	"go.uber.org/zap"

	"github.com/matrixorigin/fluentvec/pkg/logutil"
)

// Logger returns the global logger decorated with the fields of ctx.
func Logger(ctx context.Context) *zap.Logger {
	return logger(ctx, 0)
}

func logger(ctx context.Context, skip int) *zap.Logger {
	return logutil.GetGlobalLogger().WithOptions(zap.AddCallerSkip(skip), logutil.ContextFields()(ctx))
}

func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	logger(ctx, 1).Debug(msg, fields...)
}

func Info(ctx context.Context, msg string, fields ...zap.Field) {
	logger(ctx, 1).Info(msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	logger(ctx, 1).Warn(msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...zap.Field) {
	logger(ctx, 1).Error(msg, fields...)
}

// Infof only use in develop mode
func Infof(ctx context.Context, msg string, args ...interface{}) {
	logger(ctx, 1).Sugar().Infof(msg, args...)
}

// Errorf records the stack of the caller.
func Errorf(ctx context.Context, msg string, args ...interface{}) {
	logger(ctx, 1).WithOptions(zap.AddStacktrace(zap.ErrorLevel)).Sugar().Errorf(msg, args...)
}
