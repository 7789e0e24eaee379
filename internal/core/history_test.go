package core

import (
	"testing"

	"github.com/dkeye/dialnet/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(h *History, n int) {
	for i := 1; i <= n; i++ {
		h.Append(domain.Message{ID: int64(i)})
	}
}

func ids(msgs []domain.Message) []int64 {
	out := make([]int64, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestHistory_RecentOrdering(t *testing.T) {
	h := NewHistory(100)
	fill(h, 5)

	tests := []struct {
		name string
		n    int
		want []int64
	}{
		{name: "fewer than stored", n: 3, want: []int64{3, 4, 5}},
		{name: "exactly stored", n: 5, want: []int64{1, 2, 3, 4, 5}},
		{name: "more than stored", n: 50, want: []int64{1, 2, 3, 4, 5}},
		{name: "zero means all", n: 0, want: []int64{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(h.Recent(tt.n)))
		})
	}
}

func TestHistory_DropsOldestPastCapacity(t *testing.T) {
	h := NewHistory(100)
	fill(h, 101)

	require.Equal(t, 100, h.Len())
	got := h.Recent(100)
	require.Len(t, got, 100)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, int64(101), got[99].ID)
}

func TestHistory_WrapsManyTimes(t *testing.T) {
	h := NewHistory(3)
	fill(h, 10)
	assert.Equal(t, []int64{8, 9, 10}, ids(h.Recent(3)))
	assert.Equal(t, []int64{9, 10}, ids(h.Recent(2)))
}

func TestHistory_RecentIsACopy(t *testing.T) {
	h := NewHistory(4)
	fill(h, 2)
	got := h.Recent(2)
	h.Append(domain.Message{ID: 3})
	assert.Equal(t, []int64{1, 2}, ids(got))
}

func TestHistory_EmptyAndDefaultCapacity(t *testing.T) {
	h := NewHistory(0)
	assert.Equal(t, DefaultHistoryCapacity, h.Cap())
	got := h.Recent(50)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
