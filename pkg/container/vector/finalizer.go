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
	"io"

	"go.uber.org/zap"

	"github.com/matrixorigin/fluentvec/pkg/logutil"
)

// Finalizer is called by Destroy once per live element, in index order.
type Finalizer[T any] func(v T, row int)

// RawFinalizer is the Finalizer of RawVector. elem aliases the storage.
type RawFinalizer func(elem []byte, row int)

// CloserFinalizer closes every element. Close errors are logged, nil
// elements are skipped.
func CloserFinalizer[T io.Closer]() Finalizer[T] {
	return func(v T, row int) {
		if any(v) == nil {
			return
		}
		if err := v.Close(); err != nil {
			logutil.Warn("close element on destroy failed",
				zap.Int("row", row),
				zap.Error(err),
			)
		}
	}
}
