package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSparklineHistory_PushAndLen(t *testing.T) {
	h := NewSparklineHistory(5)
	assert.Equal(t, 0, h.Len())

	h.Push(SparklinePoint{Timestamp: time.Now(), ActiveUsers: 1})
	assert.Equal(t, 1, h.Len())

	h.Push(SparklinePoint{Timestamp: time.Now(), ActiveUsers: 2})
	h.Push(SparklinePoint{Timestamp: time.Now(), ActiveUsers: 3})
	assert.Equal(t, 3, h.Len())
}

func TestSparklineHistory_OverwritesOldest(t *testing.T) {
	h := NewSparklineHistory(3)

	h.Push(SparklinePoint{ActiveUsers: 10})
	h.Push(SparklinePoint{ActiveUsers: 20})
	h.Push(SparklinePoint{ActiveUsers: 30})
	require.Equal(t, 3, h.Len())

	h.Push(SparklinePoint{ActiveUsers: 40})
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, []float64{20, 30, 40}, h.Values("activeUsers"))

	h.Push(SparklinePoint{ActiveUsers: 50})
	assert.Equal(t, []float64{30, 40, 50}, h.Values("activeUsers"))
}

func TestSparklineHistory_Values_AllFields(t *testing.T) {
	h := NewSparklineHistory(2)
	h.Push(SparklinePoint{ActiveUsers: 1, PageViews: 2, EventCount: 3})

	assert.Equal(t, []float64{1}, h.Values("activeUsers"))
	assert.Equal(t, []float64{2}, h.Values("pageViews"))
	assert.Equal(t, []float64{3}, h.Values("eventCount"))
	assert.Equal(t, []float64{0}, h.Values("bogusField"))
}

func TestSparklineHistory_Last(t *testing.T) {
	h := NewSparklineHistory(2)
	_, ok := h.Last()
	assert.False(t, ok)

	for i := 1; i <= 3; i++ {
		h.Push(SparklinePoint{ActiveUsers: float64(i)})
	}
	p, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, float64(3), p.ActiveUsers)
}

func TestSparklineHistory_Clear(t *testing.T) {
	h := NewSparklineHistory(4)
	h.Push(SparklinePoint{ActiveUsers: 1})
	h.Push(SparklinePoint{ActiveUsers: 2})

	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Values("activeUsers"))

	h.Push(SparklinePoint{ActiveUsers: 99})
	assert.Equal(t, []float64{99}, h.Values("activeUsers"))
}

func TestSparklineHistory_DefaultCapacity(t *testing.T) {
	h := NewSparklineHistory(0)
	for i := 0; i < 65; i++ {
		h.Push(SparklinePoint{EventCount: float64(i)})
	}
	assert.Equal(t, 60, h.Len())
	vals := h.Values("eventCount")
	assert.Equal(t, float64(5), vals[0])
	assert.Equal(t, float64(64), vals[59])
}
