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
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	gLogger     atomic.Value
	gLogConfig  atomic.Value
	contextFunc atomic.Value
)

func init() {
	SetupLogger(&LogConfig{
		Level:  zapcore.InfoLevel.String(),
		Format: "console",
	})
	contextFunc.Store(func(ctx context.Context) zap.Option {
		if fields, ok := ctx.Value(fieldsKey{}).([]zap.Field); ok {
			return zap.Fields(fields...)
		}
		return zap.Fields()
	})
}

// SetupLogger replaces the global logger with one built from conf.
func SetupLogger(conf *LogConfig) {
	logger, err := initLogger(conf)
	if err != nil {
		panic(err)
	}
	replaceGlobalLogger(logger)
	gLogConfig.Store(*conf)
	Debugf("logger set at level: %v", conf.Level)
}

func initLogger(conf *LogConfig) (*zap.Logger, error) {
	sinks := conf.getSinks()
	cores := make([]zapcore.Core, 0, len(sinks))
	level := conf.getLevel()
	for _, sink := range sinks {
		cores = append(cores, zapcore.NewCore(sink.enc, sink.out, level))
	}
	return zap.New(zapcore.NewTee(cores...), conf.getOptions()...), nil
}

func replaceGlobalLogger(logger *zap.Logger) {
	gLogger.Store(logger)
}

func GetGlobalLogger() *zap.Logger {
	return gLogger.Load().(*zap.Logger)
}

func getGlobalLogConfig() LogConfig {
	return gLogConfig.Load().(LogConfig)
}

type fieldsKey struct{}

// WithContextFields returns a context whose loggers, via ContextFields,
// carry fields.
func WithContextFields(ctx context.Context, fields ...zap.Field) context.Context {
	if prev, ok := ctx.Value(fieldsKey{}).([]zap.Field); ok {
		fields = append(append([]zap.Field(nil), prev...), fields...)
	}
	return context.WithValue(ctx, fieldsKey{}, fields)
}

// ContextFields returns the func that turns a context into logger options.
func ContextFields() func(ctx context.Context) zap.Option {
	return contextFunc.Load().(func(ctx context.Context) zap.Option)
}

// Debug only use in develop mode
func Debug(msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...)
}

func Panic(msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Panic(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Fatal(msg, fields...)
}

// Debugf only use in develop mode
func Debugf(msg string, fields ...interface{}) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Sugar().Debugf(msg, fields...)
}

func Infof(msg string, fields ...interface{}) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Sugar().Infof(msg, fields...)
}

func Warnf(msg string, fields ...interface{}) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Sugar().Warnf(msg, fields...)
}

func Errorf(msg string, fields ...interface{}) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Sugar().Errorf(msg, fields...)
}

func Fatalf(msg string, fields ...interface{}) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Sugar().Fatalf(msg, fields...)
}
