// File: timer/heap.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package timer

import "container/heap"

// timerHeap implements container/heap.Interface, ordered by
// (deadlineMs, id) — deadline first, stable identity as tiebreak, per
// spec.md §3's Timer ordering rule.
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadlineMs != h[j].deadlineMs {
		return h[i].deadlineMs < h[j].deadlineMs
	}
	return h[i].id < h[j].id
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// removeAt removes the element at heap index i, maintaining heap order.
func (h *timerHeap) removeAt(i int) {
	heap.Remove(h, i)
}

// fixAt re-establishes heap order after the element at index i had its
// deadline mutated in place.
func (h *timerHeap) fixAt(i int) {
	heap.Fix(h, i)
}
