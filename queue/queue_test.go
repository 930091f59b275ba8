// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue_test

import (
	"errors"
	"testing"

	"github.com/jogster/Honeycomb/queue"
)

func TestQueueBasic(t *testing.T) {
	q := queue.New[int](8)

	if !q.Empty() {
		t.Fatal("new queue not empty")
	}
	if _, err := q.Pop(); !errors.Is(err, queue.ErrWouldBlock) {
		t.Fatalf("Pop on empty: got %v, want ErrWouldBlock", err)
	}

	for i := 1; i <= 4; i++ {
		q.Push(i * 100)
	}
	if got := q.Len(); got != 4 {
		t.Fatalf("Len: got %d, want 4", got)
	}

	for i := 1; i <= 4; i++ {
		v, err := q.Pop()
		if err != nil {
			t.Fatalf("Pop(%d): %v", i, err)
		}
		if v != i*100 {
			t.Fatalf("Pop(%d): got %d, want %d", i, v, i*100)
		}
	}
	if _, err := q.Pop(); !errors.Is(err, queue.ErrWouldBlock) {
		t.Fatalf("Pop on drained: got %v, want ErrWouldBlock", err)
	}
}

// TestQueueFIFOOrder pushes [1..1000] and pops until empty; the popped
// sequence must equal [1..1000].
func TestQueueFIFOOrder(t *testing.T) {
	q := queue.New[int](0)
	const n = 1000
	for i := 1; i <= n; i++ {
		q.Push(i)
	}
	for i := 1; i <= n; i++ {
		v, err := q.Pop()
		if err != nil {
			t.Fatalf("Pop(%d): %v", i, err)
		}
		if v != i {
			t.Fatalf("Pop(%d): got %d, want %d", i, v, i)
		}
	}
	if !q.Empty() {
		t.Fatal("queue not empty after draining")
	}
}

func TestQueueFrontBack(t *testing.T) {
	q := queue.New[string](4)

	if _, err := q.Front(); !errors.Is(err, queue.ErrWouldBlock) {
		t.Fatalf("Front on empty: got %v, want ErrWouldBlock", err)
	}
	if _, err := q.Back(); !errors.Is(err, queue.ErrWouldBlock) {
		t.Fatalf("Back on empty: got %v, want ErrWouldBlock", err)
	}

	q.Push("a")
	q.Push("b")
	q.Push("c")

	front, err := q.Front()
	if err != nil || front != "a" {
		t.Fatalf("Front: got %q, %v; want \"a\"", front, err)
	}
	back, err := q.Back()
	if err != nil || back != "c" {
		t.Fatalf("Back: got %q, %v; want \"c\"", back, err)
	}
	// Neither consumes.
	if got := q.Len(); got != 3 {
		t.Fatalf("Len after Front/Back: got %d, want 3", got)
	}
}

func TestQueueClear(t *testing.T) {
	q := queue.New[int](0)
	for i := 0; i < 100; i++ {
		q.Push(i)
	}
	q.Clear()
	if !q.Empty() {
		t.Fatal("queue not empty after Clear")
	}
	// Still usable after Clear.
	q.Push(7)
	v, err := q.Pop()
	if err != nil || v != 7 {
		t.Fatalf("Pop after Clear: got %d, %v", v, err)
	}
}

func TestQueueReserve(t *testing.T) {
	q := queue.New[int](100)
	if q.Cap() < 100 {
		t.Fatalf("Cap after New(100): got %d", q.Cap())
	}
	before := q.Cap()
	q.Reserve(before + 1)
	if q.Cap() <= before {
		t.Fatalf("Cap after Reserve: got %d, want > %d", q.Cap(), before)
	}
}

// TestQueueNodeReuse pushes and pops through several free-list recycles;
// values must never be corrupted by reuse.
func TestQueueNodeReuse(t *testing.T) {
	q := queue.New[int](4)
	for round := 0; round < 10; round++ {
		for i := 0; i < 300; i++ {
			q.Push(round*1000 + i)
		}
		for i := 0; i < 300; i++ {
			v, err := q.Pop()
			if err != nil {
				t.Fatalf("round %d Pop(%d): %v", round, i, err)
			}
			if v != round*1000+i {
				t.Fatalf("round %d Pop(%d): got %d", round, i, v)
			}
		}
	}
}
