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
	"github.com/RoaringBitmap/roaring"

	"github.com/matrixorigin/fluentvec/pkg/common/moerr"
)

// foreachWindow visits the rows of [offset, offset+length), restricted to
// sels when it is not empty.
func foreachWindow(offset, length int, visit func(row int) error, sels *roaring.Bitmap) (err error) {
	end := offset + length
	if sels == nil || sels.IsEmpty() {
		for i := offset; i < end; i++ {
			if err = visit(i); err != nil {
				break
			}
		}
	} else {
		it := sels.Iterator()
		it.AdvanceIfNeeded(uint32(offset))
		for it.HasNext() {
			row := int(it.Next())
			if row >= end {
				break
			}
			if err = visit(row); err != nil {
				break
			}
		}
	}
	if moerr.IsMoErrCode(err, moerr.OkStopCurrRecur) {
		err = nil
	}
	return
}
