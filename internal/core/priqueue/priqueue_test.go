package priqueue

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	rank int
	seq  int
}

func byRank(a, b *item) int { return a.rank - b.rank }

func noPreference(_, _ *item) int { return 0 }

func drain(q *Queue[*item]) []*item {
	var out []*item
	for {
		e, ok := q.Poll()
		if !ok {
			return out
		}
		out = append(out, e)
	}
}

func TestOfferReturnsLandingIndex(t *testing.T) {
	q := New(byRank)
	assert.Equal(t, 0, q.Offer(&item{rank: 5}))
	assert.Equal(t, 0, q.Offer(&item{rank: 1}))
	assert.Equal(t, 2, q.Offer(&item{rank: 9}))
	assert.Equal(t, 2, q.Offer(&item{rank: 5})) // after the existing 5
	assert.Equal(t, 4, q.Len())
}

func TestPollMatchesStableReferenceSort(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		q := New(byRank)
		var offered []*item
		for i := 0; i < 40; i++ {
			e := &item{rank: r.Intn(6), seq: i}
			offered = append(offered, e)
			q.Offer(e)
		}
		expected := append([]*item(nil), offered...)
		sort.SliceStable(expected, func(i, j int) bool { return expected[i].rank < expected[j].rank })

		require.Equal(t, expected, drain(q))
	}
}

func TestNoPreferenceComparatorIsFIFO(t *testing.T) {
	q := New(noPreference)
	var offered []*item
	for i := 0; i < 10; i++ {
		e := &item{rank: 10 - i, seq: i}
		offered = append(offered, e)
		assert.Equal(t, i, q.Offer(e))
	}
	assert.Equal(t, offered, drain(q))
}

func TestEmptyAndOutOfRange(t *testing.T) {
	q := New(byRank)

	e, ok := q.Peek()
	assert.False(t, ok)
	assert.Nil(t, e)
	_, ok = q.Poll()
	assert.False(t, ok)

	q.Offer(&item{rank: 1})
	for _, idx := range []int{-1, 1, 100} {
		_, ok := q.At(idx)
		assert.False(t, ok, "At(%d)", idx)
		_, ok = q.RemoveAt(idx)
		assert.False(t, ok, "RemoveAt(%d)", idx)
	}
	assert.Equal(t, 1, q.Len())
}

func TestPeekDoesNotRemove(t *testing.T) {
	q := New(byRank)
	a := &item{rank: 2}
	b := &item{rank: 1}
	q.Offer(a)
	q.Offer(b)

	head, ok := q.Peek()
	require.True(t, ok)
	assert.Same(t, b, head)
	assert.Equal(t, 2, q.Len())
}

func TestRemoveUsesIdentity(t *testing.T) {
	q := New(byRank)
	a := &item{rank: 1}
	twin := &item{rank: 1}
	b := &item{rank: 2}
	q.Offer(a)
	q.Offer(twin)
	q.Offer(b)
	q.Offer(a)

	assert.Equal(t, 2, q.Remove(a))
	assert.Equal(t, 0, q.Remove(a))
	assert.Equal(t, []*item{twin, b}, drain(q))
}

func TestRemoveAtShiftsLaterElements(t *testing.T) {
	q := New(byRank)
	items := []*item{{rank: 1}, {rank: 2}, {rank: 3}}
	for _, e := range items {
		q.Offer(e)
	}

	removed, ok := q.RemoveAt(1)
	require.True(t, ok)
	assert.Same(t, items[1], removed)

	at1, ok := q.At(1)
	require.True(t, ok)
	assert.Same(t, items[2], at1)
	assert.Equal(t, 2, q.Len())
}

func TestAllIteratesInRankOrder(t *testing.T) {
	q := New(byRank)
	for _, r := range []int{3, 1, 2} {
		q.Offer(&item{rank: r})
	}
	var ranks []int
	for i, e := range q.All() {
		assert.Equal(t, len(ranks), i)
		ranks = append(ranks, e.rank)
	}
	assert.Equal(t, []int{1, 2, 3}, ranks)
}

func TestDestroyLeavesElementsUntouched(t *testing.T) {
	q := New(byRank)
	e := &item{rank: 7, seq: 3}
	q.Offer(e)
	q.Destroy()

	assert.Equal(t, 0, q.Len())
	assert.Equal(t, &item{rank: 7, seq: 3}, e)
}
