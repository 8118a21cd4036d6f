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

package types

import (
	"unsafe"

	"github.com/matrixorigin/fluentvec/pkg/common/moerr"
)

// EncodeSlice views v as bytes. The result aliases v.
func EncodeSlice[T FixedSizeT](v []T) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(v))), len(v)*Sizeof[T]())
}

// DecodeSlice views v as a slice of T. The result aliases v.
func DecodeSlice[T FixedSizeT](v []byte) []T {
	sz := Sizeof[T]()
	if len(v)%sz != 0 {
		panic(moerr.NewInternalErrorNoCtx("decode slice that is not a multiple of element size"))
	}
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(v))), len(v)/sz)
}

func EncodeFixed[T FixedSizeT](v T) []byte {
	sz := unsafe.Sizeof(v)
	return unsafe.Slice((*byte)(unsafe.Pointer(&v)), sz)
}

func DecodeFixed[T FixedSizeT](v []byte) T {
	if len(v) < Sizeof[T]() {
		panic(moerr.NewInternalErrorNoCtx("decode fixed from %d bytes, want %d", len(v), Sizeof[T]()))
	}
	return *(*T)(unsafe.Pointer(&v[0]))
}
