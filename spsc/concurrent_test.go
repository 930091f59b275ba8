// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// The spin locks synchronize through atomic orderings the race detector
// cannot observe, so the concurrent workloads are excluded from race
// builds.

//go:build !race

package spsc_test

import (
	"testing"

	"code.hybscloud.com/iox"
	"github.com/sourcegraph/conc"

	"github.com/jogster/Honeycomb/spsc"
)

// TestDequeProducerConsumer streams values from one producer to one
// consumer across the ring, including growth under the consumer's feet.
func TestDequeProducerConsumer(t *testing.T) {
	const n = 100000
	d := spsc.New[int](8)

	var wg conc.WaitGroup
	wg.Go(func() {
		for i := 0; i < n; i++ {
			d.PushBack(i)
		}
	})

	var got []int
	wg.Go(func() {
		bo := iox.Backoff{}
		for len(got) < n {
			v, err := d.PopFront()
			if err != nil {
				bo.Wait()
				continue
			}
			bo.Reset()
			got = append(got, v)
		}
	})
	wg.Wait()

	for i, v := range got {
		if v != i {
			t.Fatalf("position %d: got %d", i, v)
		}
	}
}

// TestDequeTwoEndedContention exercises the legal-but-slower case of both
// ends contending around empty and full boundaries.
func TestDequeTwoEndedContention(t *testing.T) {
	const perSide = 50000
	d := spsc.New[int](2)

	var wg conc.WaitGroup
	wg.Go(func() {
		for i := 0; i < perSide; i++ {
			d.PushFront(i)
		}
	})
	wg.Go(func() {
		for i := 0; i < perSide; i++ {
			d.PushBack(perSide + i)
		}
	})

	seen := make([]bool, 2*perSide)
	count := 0
	bo := iox.Backoff{}
	for count < 2*perSide {
		v, err := d.PopBack()
		if err != nil {
			bo.Wait()
			continue
		}
		bo.Reset()
		if v < 0 || v >= 2*perSide || seen[v] {
			t.Fatalf("bad or duplicate value %d", v)
		}
		seen[v] = true
		count++
	}
	if !d.Empty() {
		t.Fatal("deque not empty after drain")
	}
}
