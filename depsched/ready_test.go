// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package depsched

import (
	"context"
	"errors"
	"testing"

	"code.hybscloud.com/iox"
)

func ringTask(name string) *Task {
	return NewTask(name, func(context.Context) error { return nil })
}

func TestReadyRingBasic(t *testing.T) {
	r := newReadyRing(3)

	tasks := []*Task{ringTask("r0"), ringTask("r1"), ringTask("r2")}
	for i, task := range tasks {
		if err := r.enqueue(task); err != nil {
			t.Fatalf("enqueue(%d): %v", i, err)
		}
	}
	if got := r.parked(); got != 3 {
		t.Fatalf("parked: got %d, want 3", got)
	}
	if err := r.enqueue(ringTask("overflow")); !errors.Is(err, iox.ErrWouldBlock) {
		t.Fatalf("enqueue at admission bound: got %v, want ErrWouldBlock", err)
	}

	for i, want := range tasks {
		task, err := r.dequeue()
		if err != nil {
			t.Fatalf("dequeue(%d): %v", i, err)
		}
		if task != want {
			t.Fatalf("dequeue(%d): wrong task %s", i, task.Name())
		}
	}
	if _, err := r.dequeue(); !errors.Is(err, iox.ErrWouldBlock) {
		t.Fatalf("dequeue on empty: got %v, want ErrWouldBlock", err)
	}
	if got := r.parked(); got != 0 {
		t.Fatalf("parked after drain: got %d, want 0", got)
	}
}

// TestReadyRingDrainClosesAdmission verifies that drain refuses new
// tasks while the already-parked ones remain dequeueable.
func TestReadyRingDrainClosesAdmission(t *testing.T) {
	r := newReadyRing(2)
	parked := ringTask("parked")
	if err := r.enqueue(parked); err != nil {
		t.Fatal(err)
	}

	r.drain()
	if err := r.enqueue(ringTask("late")); !errors.Is(err, errAdmissionClosed) {
		t.Fatalf("enqueue after drain: got %v, want errAdmissionClosed", err)
	}

	got, err := r.dequeue()
	if err != nil || got != parked {
		t.Fatalf("dequeue after drain: %v, %v", got, err)
	}
	if _, err := r.dequeue(); !errors.Is(err, iox.ErrWouldBlock) {
		t.Fatalf("dequeue on drained ring: got %v, want ErrWouldBlock", err)
	}
}

// TestReadyRingWrapAround cycles one slot far past the ring length.
func TestReadyRingWrapAround(t *testing.T) {
	r := newReadyRing(2)
	task := ringTask("cycled")
	for i := 0; i < 100; i++ {
		if err := r.enqueue(task); err != nil {
			t.Fatalf("round %d enqueue: %v", i, err)
		}
		got, err := r.dequeue()
		if err != nil || got != task {
			t.Fatalf("round %d dequeue: %v, %v", i, got, err)
		}
	}
}

func TestReadyRingCapacityValidation(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("newReadyRing(0) did not panic")
		}
	}()
	newReadyRing(0)
}
