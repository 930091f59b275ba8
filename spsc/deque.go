// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package spsc provides a double-ended queue that is contention-free when
// used by a single producer and a single consumer; otherwise contention is
// split between front and back spin locks.
//
// The deque maintains a ring buffer that automatically expands as needed
// (expansion takes both locks). The two ends contend only when the deque
// is empty, one slot below capacity, or during reserve/resize/clear.
// In those cases head and tail race for the same cell and both locks are
// taken, head first.
package spsc

import (
	"code.hybscloud.com/atomix"

	"github.com/jogster/Honeycomb/internal/spinlock"
)

// Deque is a ring-buffered double-ended queue with split end locks.
type Deque[T any] struct {
	headLock spinlock.Lock
	tailLock spinlock.Lock
	data     []T
	capacity atomix.Int64
	size     atomix.Int64
	head     int
	tail     int
}

// New creates a deque with storage preallocated for capacity elements.
func New[T any](capacity int) *Deque[T] {
	d := &Deque[T]{}
	d.Reserve(capacity)
	return d
}

func (d *Deque[T]) capRelaxed() int { return int(d.capacity.LoadRelaxed()) }

func (d *Deque[T]) ringIndex(i int) int { return i % d.capRelaxed() }

func (d *Deque[T]) ringInc(i int) int {
	if i >= d.capRelaxed()-1 {
		return 0
	}
	return i + 1
}

func (d *Deque[T]) ringDec(i int) int {
	if i == 0 {
		return d.capRelaxed() - 1
	}
	return i - 1
}

// Reserve ensures that enough storage is allocated for capacity elements.
func (d *Deque[T]) Reserve(capacity int) {
	d.headLock.Lock()
	d.tailLock.Lock()
	if d.capRelaxed() < capacity {
		d.setCapacity(capacity)
	}
	d.tailLock.Unlock()
	d.headLock.Unlock()
}

// Cap returns the number of elements for which storage is allocated.
func (d *Deque[T]) Cap() int { return int(d.capacity.Load()) }

// Resize resizes the deque to contain size elements: the first
// min(size, Len) existing elements are preserved from the front, and
// max(0, size-Len) copies of initVal are appended.
func (d *Deque[T]) Resize(size int, initVal T) {
	d.headLock.Lock()
	d.tailLock.Lock()
	d.setCapacity(size)
	for i := int(d.size.Load()); i < size; i++ {
		d.data[d.ringIndex(d.head+i)] = initVal
	}
	d.size.Store(int64(size))
	if size > 0 {
		d.tail = d.ringIndex(d.head + size)
	} else {
		d.tail = d.head
	}
	d.tailLock.Unlock()
	d.headLock.Unlock()
}

// PushFront inserts a new element at the beginning of the deque.
func (d *Deque[T]) PushFront(val T) {
	// At size 0, head and tail vie for the same first slot; at
	// capacity-1 they vie for the same last slot; at capacity the ring
	// must expand. All three need both locks.
	d.headLock.Lock()
	sz := d.size.Load()
	both := sz == 0 || sz >= int64(d.capRelaxed()-1)
	if both {
		d.tailLock.Lock()
	}
	if d.size.Load() == int64(d.capRelaxed()) {
		d.expand()
	}
	d.head = d.ringDec(d.head)
	d.data[d.head] = val
	d.size.Add(1)
	if both {
		d.tailLock.Unlock()
	}
	d.headLock.Unlock()
}

// PushBack adds a new element onto the end of the deque.
func (d *Deque[T]) PushBack(val T) {
	d.tailLock.Lock()
	sz := d.size.Load()
	both := sz == 0 || sz >= int64(d.capRelaxed()-1)
	if both {
		// Lock head first to prevent deadlock.
		d.tailLock.Unlock()
		d.headLock.Lock()
		d.tailLock.Lock()
	}
	if d.size.Load() == int64(d.capRelaxed()) {
		d.expand()
	}
	d.data[d.tail] = val
	d.tail = d.ringInc(d.tail)
	d.size.Add(1)
	d.tailLock.Unlock()
	if both {
		d.headLock.Unlock()
	}
}

// PopFront removes the element at the beginning of the deque.
// Returns (zero-value, ErrWouldBlock) if the deque is empty.
func (d *Deque[T]) PopFront() (T, error) {
	// At size 1, head and tail vie to pop the last slot.
	d.headLock.Lock()
	both := d.size.Load() == 1
	if both {
		d.tailLock.Lock()
	}
	var zero T
	if d.size.Load() == 0 {
		if both {
			d.tailLock.Unlock()
		}
		d.headLock.Unlock()
		return zero, ErrWouldBlock
	}
	val := d.data[d.head]
	d.data[d.head] = zero
	d.head = d.ringInc(d.head)
	d.size.Add(-1)
	if both {
		d.tailLock.Unlock()
	}
	d.headLock.Unlock()
	return val, nil
}

// PopBack removes the element at the end of the deque.
// Returns (zero-value, ErrWouldBlock) if the deque is empty.
func (d *Deque[T]) PopBack() (T, error) {
	d.tailLock.Lock()
	both := d.size.Load() == 1
	if both {
		d.tailLock.Unlock()
		d.headLock.Lock()
		d.tailLock.Lock()
	}
	var zero T
	if d.size.Load() == 0 {
		d.tailLock.Unlock()
		if both {
			d.headLock.Unlock()
		}
		return zero, ErrWouldBlock
	}
	d.tail = d.ringDec(d.tail)
	val := d.data[d.tail]
	d.data[d.tail] = zero
	d.size.Add(-1)
	d.tailLock.Unlock()
	if both {
		d.headLock.Unlock()
	}
	return val, nil
}

// Clear removes all elements.
func (d *Deque[T]) Clear() {
	for {
		if _, err := d.PopBack(); err != nil {
			return
		}
	}
}

// Len returns the number of elements in the deque.
func (d *Deque[T]) Len() int { return int(d.size.Load()) }

// Empty reports whether the deque contains no elements.
func (d *Deque[T]) Empty() bool { return d.Len() == 0 }

// setCapacity moves surviving elements into a fresh buffer with the head
// normalized to index 0. Elements that do not fit are dropped. Both locks
// must be held.
func (d *Deque[T]) setCapacity(capacity int) {
	if capacity == d.capRelaxed() {
		return
	}
	size := int(d.size.Load())
	if capacity < size {
		size = capacity
	}
	var data []T
	if capacity > 0 {
		data = make([]T, capacity)
		if size > 0 {
			copyTail := d.ringIndex(d.head + size)
			if copyTail > d.head {
				copy(data, d.data[d.head:copyTail])
			} else {
				n := copy(data, d.data[d.head:d.capRelaxed()])
				copy(data[n:], d.data[:copyTail])
			}
		}
	}
	d.data = data
	d.capacity.Store(int64(capacity))
	d.size.Store(int64(size))
	d.head = 0
	d.tail = size
}

// expand grows the ring by 50% plus one slot.
func (d *Deque[T]) expand() {
	c := d.capRelaxed()
	d.setCapacity(c + c/2 + 1)
}
