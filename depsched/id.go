// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package depsched

import "fmt"

const (
	fnvOffset = 14695981039346656037
	fnvPrime  = 1099511628211
)

// Id is an opaque task name id, derived from the task's name string.
type Id uint64

// NewId derives the id of a name (FNV-1a).
func NewId(name string) Id {
	h := uint64(fnvOffset)
	for i := 0; i < len(name); i++ {
		h ^= uint64(name[i])
		h *= fnvPrime
	}
	return Id(h)
}

func (id Id) String() string { return fmt.Sprintf("%#016x", uint64(id)) }
