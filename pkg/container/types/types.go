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

import "unsafe"

type Ints interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

type UInts interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

type Floats interface {
	~float32 | ~float64
}

type Complexes interface {
	~complex64 | ~complex128
}

// FixedSizeT are the pointer-free scalar kinds whose values may live in
// memory the garbage collector does not scan.
type FixedSizeT interface {
	~bool | Ints | UInts | Floats | Complexes
}

func Sizeof[T any]() int {
	var v T
	return int(unsafe.Sizeof(v))
}

func SizeOfMany[T any](cnt int) int {
	var v T
	return int(unsafe.Sizeof(v)) * cnt
}
