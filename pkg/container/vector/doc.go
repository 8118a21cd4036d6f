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

// Package vector implements growable contiguous containers: the generic
// Vector[T], its named instantiations, and RawVector whose element size is
// only known at runtime. Containers are owned by a single goroutine.
package vector

//go:generate go run ../../../cmd/vecgen --package vector --out instances_gen.go Int=int Int32=int32 Int64=int64 Uint32=uint32 Uint64=uint64 Float32=float32 Float64=float64 Bool=bool String=string Bytes=[]byte
