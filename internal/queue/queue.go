// Package queue implements the bounded double-ended priority queue that holds
// the search frontier.
package queue

import "math/bits"

// PriorityQueueItem represents an item in the priority queue.
// Value-based, so the heap never holds pointers.
type PriorityQueueItem struct {
	Node     uint32  // Node is an arena index.
	Priority float64 // Priority orders items; lower is better.
	Seq      uint64  // Seq breaks priority ties; earlier insertions win.
}

// Less reports whether a is better than b.
func (a PriorityQueueItem) Less(b PriorityQueueItem) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.Seq < b.Seq
}

// MinMax is a min-max heap: both the best and the worst item are reachable in
// O(1) and removable in O(log n). Items on even levels are smaller than their
// descendants, items on odd levels are larger.
//
// A capacity of zero means unbounded.
type MinMax struct {
	capacity int
	items    []PriorityQueueItem
}

// NewMinMax creates a queue holding at most capacity items.
func NewMinMax(capacity int) *MinMax {
	initial := 64
	if capacity > 0 && capacity < initial {
		initial = capacity
	}
	return &MinMax{
		capacity: capacity,
		items:    make([]PriorityQueueItem, 0, initial),
	}
}

// Reset clears the queue and sets a new capacity.
func (q *MinMax) Reset(capacity int) {
	clear(q.items)
	q.items = q.items[:0]
	q.capacity = capacity
}

// Len returns the number of queued items.
func (q *MinMax) Len() int { return len(q.items) }

// Capacity returns the configured capacity, or zero when unbounded.
func (q *MinMax) Capacity() int { return q.capacity }

// Full reports whether another push would drop an item.
func (q *MinMax) Full() bool {
	return q.capacity > 0 && len(q.items) >= q.capacity
}

// Min returns the best item.
func (q *MinMax) Min() (PriorityQueueItem, bool) {
	if len(q.items) == 0 {
		return PriorityQueueItem{}, false
	}
	return q.items[0], true
}

// Max returns the worst item.
func (q *MinMax) Max() (PriorityQueueItem, bool) {
	if len(q.items) == 0 {
		return PriorityQueueItem{}, false
	}
	return q.items[q.maxIndex()], true
}

// WouldAccept reports whether item would be kept by PushBounded.
func (q *MinMax) WouldAccept(item PriorityQueueItem) bool {
	if !q.Full() {
		return true
	}
	if len(q.items) == 0 {
		return false
	}
	return item.Less(q.items[q.maxIndex()])
}

// Push inserts an item regardless of capacity.
func (q *MinMax) Push(item PriorityQueueItem) {
	q.items = append(q.items, item)
	q.bubbleUp(len(q.items) - 1)
}

// PushBounded inserts item. When the queue is full, the worse of item and the
// current worst is dropped and returned with dropped set to true.
func (q *MinMax) PushBounded(item PriorityQueueItem) (evicted PriorityQueueItem, dropped bool) {
	if !q.Full() {
		q.Push(item)
		return PriorityQueueItem{}, false
	}
	if len(q.items) == 0 || !item.Less(q.items[q.maxIndex()]) {
		return item, true
	}
	worst, _ := q.PopMax()
	q.Push(item)
	return worst, true
}

// PopMin removes and returns the best item.
func (q *MinMax) PopMin() (PriorityQueueItem, bool) {
	if len(q.items) == 0 {
		return PriorityQueueItem{}, false
	}
	return q.removeAt(0), true
}

// PopMax removes and returns the worst item.
func (q *MinMax) PopMax() (PriorityQueueItem, bool) {
	if len(q.items) == 0 {
		return PriorityQueueItem{}, false
	}
	return q.removeAt(q.maxIndex()), true
}

func (q *MinMax) maxIndex() int {
	switch len(q.items) {
	case 1:
		return 0
	case 2:
		return 1
	}
	if q.less(1, 2) {
		return 2
	}
	return 1
}

func (q *MinMax) removeAt(i int) PriorityQueueItem {
	n := len(q.items)
	item := q.items[i]
	last := q.items[n-1]
	q.items[n-1] = PriorityQueueItem{}
	q.items = q.items[:n-1]
	if i < n-1 {
		q.items[i] = last
		q.trickleDown(i)
	}
	return item
}

func (q *MinMax) less(i, j int) bool { return q.items[i].Less(q.items[j]) }

func (q *MinMax) swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func isMinLevel(i int) bool { return bits.Len(uint(i+1))%2 == 1 }

func (q *MinMax) bubbleUp(i int) {
	if i == 0 {
		return
	}
	p := (i - 1) / 2
	if isMinLevel(i) {
		if q.less(p, i) {
			q.swap(i, p)
			q.bubbleUpLevel(p, false)
			return
		}
		q.bubbleUpLevel(i, true)
		return
	}
	if q.less(i, p) {
		q.swap(i, p)
		q.bubbleUpLevel(p, true)
		return
	}
	q.bubbleUpLevel(i, false)
}

// bubbleUpLevel moves i up through grandparents on its own level type.
func (q *MinMax) bubbleUpLevel(i int, minLevel bool) {
	for i > 2 {
		g := ((i-1)/2 - 1) / 2
		if minLevel && q.less(i, g) || !minLevel && q.less(g, i) {
			q.swap(i, g)
			i = g
			continue
		}
		return
	}
}

func (q *MinMax) trickleDown(i int) {
	minLevel := isMinLevel(i)
	n := len(q.items)
	for {
		first := 2*i + 1
		if first >= n {
			return
		}
		// Pick the extreme among children and grandchildren.
		m := first
		for _, c := range [...]int{first + 1, 2*first + 1, 2*first + 2, 2*(first+1) + 1, 2*(first+1) + 2} {
			if c >= n {
				continue
			}
			if minLevel && q.less(c, m) || !minLevel && q.less(m, c) {
				m = c
			}
		}

		better := q.less(m, i)
		if !minLevel {
			better = q.less(i, m)
		}
		if !better {
			return
		}
		q.swap(m, i)
		if m <= first+1 {
			return
		}
		p := (m - 1) / 2
		if minLevel && q.less(p, m) || !minLevel && q.less(m, p) {
			q.swap(m, p)
		}
		i = m
	}
}
