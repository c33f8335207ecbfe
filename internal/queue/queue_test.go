package queue

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinMax_Order(t *testing.T) {
	q := NewMinMax(0)
	for i, p := range []float64{5, 1, 4, 1, 3, 9, 2, 6} {
		q.Push(PriorityQueueItem{Node: uint32(i), Priority: p, Seq: uint64(i)})
	}

	top, ok := q.Min()
	require.True(t, ok)
	assert.Equal(t, uint32(1), top.Node)

	worst, ok := q.Max()
	require.True(t, ok)
	assert.Equal(t, 9.0, worst.Priority)

	var got []uint32
	for q.Len() > 0 {
		item, _ := q.PopMin()
		got = append(got, item.Node)
	}
	// Equal priorities pop in insertion order.
	assert.Equal(t, []uint32{1, 3, 6, 4, 2, 0, 7, 5}, got)

	_, ok = q.PopMin()
	assert.False(t, ok)
	_, ok = q.PopMax()
	assert.False(t, ok)
}

func TestMinMax_Bounded(t *testing.T) {
	q := NewMinMax(3)
	push := func(node uint32, p float64) (PriorityQueueItem, bool) {
		return q.PushBounded(PriorityQueueItem{Node: node, Priority: p, Seq: uint64(node)})
	}

	for i, p := range []float64{3, 1, 2} {
		_, dropped := push(uint32(i), p)
		assert.False(t, dropped)
	}
	assert.True(t, q.Full())

	// Worse than the current worst: rejected.
	assert.False(t, q.WouldAccept(PriorityQueueItem{Priority: 4, Seq: 3}))
	evicted, dropped := push(3, 4)
	assert.True(t, dropped)
	assert.Equal(t, uint32(3), evicted.Node)

	// Equal priority but later sequence: rejected.
	evicted, dropped = push(4, 3)
	assert.True(t, dropped)
	assert.Equal(t, uint32(4), evicted.Node)

	// Better: evicts the worst.
	assert.True(t, q.WouldAccept(PriorityQueueItem{Priority: 0.5, Seq: 5}))
	evicted, dropped = push(5, 0.5)
	assert.True(t, dropped)
	assert.Equal(t, uint32(0), evicted.Node)
	assert.Equal(t, 3, q.Len())

	top, _ := q.PopMin()
	assert.Equal(t, uint32(5), top.Node)
}

func TestMinMax_RandomAgainstSort(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	q := NewMinMax(0)
	var ref []PriorityQueueItem
	cmp := func(a, b PriorityQueueItem) int {
		if a.Less(b) {
			return -1
		}
		if b.Less(a) {
			return 1
		}
		return 0
	}

	seq := uint64(0)
	for step := 0; step < 5000; step++ {
		switch op := rng.IntN(4); {
		case op < 2 || len(ref) == 0:
			item := PriorityQueueItem{Node: uint32(seq), Priority: float64(rng.IntN(50)), Seq: seq}
			seq++
			q.Push(item)
			ref = append(ref, item)
		case op == 2:
			slices.SortFunc(ref, cmp)
			got, ok := q.PopMin()
			require.True(t, ok)
			require.Equal(t, ref[0], got)
			ref = ref[1:]
		default:
			slices.SortFunc(ref, cmp)
			got, ok := q.PopMax()
			require.True(t, ok)
			require.Equal(t, ref[len(ref)-1], got)
			ref = ref[:len(ref)-1]
		}
		require.Equal(t, len(ref), q.Len())
	}
}

func TestMinMax_Reset(t *testing.T) {
	q := NewMinMax(2)
	q.Push(PriorityQueueItem{Node: 1})
	q.Reset(5)
	assert.Zero(t, q.Len())
	assert.Equal(t, 5, q.Capacity())
	assert.False(t, q.Full())
}
