// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package spinlock provides a minimal test-and-test-and-set spin lock for the
// short, non-blocking critical sections of the containers.
package spinlock

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Lock is a non-reentrant test-and-test-and-set spin lock.
// The zero value is an unlocked lock. Critical sections guarded by it must
// be short and must not block.
type Lock struct {
	v atomix.Uint64
}

// Lock acquires the lock, spinning with CPU pause until it is free.
func (l *Lock) Lock() {
	sw := spin.Wait{}
	for {
		if l.v.LoadRelaxed() == 0 && l.v.CompareAndSwapAcqRel(0, 1) {
			return
		}
		sw.Once()
	}
}

// TryLock acquires the lock without spinning.
// Returns false if the lock is held by another goroutine.
func (l *Lock) TryLock() bool {
	return l.v.LoadRelaxed() == 0 && l.v.CompareAndSwapAcqRel(0, 1)
}

// Unlock releases the lock. It must only be called by the holder.
func (l *Lock) Unlock() {
	l.v.StoreRelease(0)
}
