package model

import "time"

const defaultSparklineCap = 60

// SparklinePoint is a single timestamped data point stored in the ring buffer.
type SparklinePoint struct {
	Timestamp   time.Time
	ActiveUsers float64
	PageViews   float64
	EventCount  float64
}

// SparklineHistory is a fixed-size ring buffer of SparklinePoints.
// When the buffer is full, new pushes overwrite the oldest entry.
type SparklineHistory struct {
	buf  []SparklinePoint
	head int // index of the next write position
	size int // number of valid entries
}

// NewSparklineHistory creates a SparklineHistory with the given capacity.
// If capacity <= 0, the defaultSparklineCap (60) is used.
func NewSparklineHistory(capacity int) *SparklineHistory {
	if capacity <= 0 {
		capacity = defaultSparklineCap
	}
	return &SparklineHistory{
		buf: make([]SparklinePoint, capacity),
	}
}

// Push appends a new point to the history, overwriting the oldest if full.
func (h *SparklineHistory) Push(p SparklinePoint) {
	h.buf[h.head] = p
	h.head = (h.head + 1) % len(h.buf)
	if h.size < len(h.buf) {
		h.size++
	}
}

// Len returns the number of valid entries in the history.
func (h *SparklineHistory) Len() int {
	return h.size
}

// Last returns the most recent point, or false when empty.
func (h *SparklineHistory) Last() (SparklinePoint, bool) {
	if h.size == 0 {
		return SparklinePoint{}, false
	}
	return h.buf[(h.head-1+len(h.buf))%len(h.buf)], true
}

// Clear resets the history to empty.
func (h *SparklineHistory) Clear() {
	h.head = 0
	h.size = 0
}

// Values returns a slice of float64 for the named field in chronological order
// (oldest first). Valid field names: "activeUsers", "pageViews", "eventCount".
func (h *SparklineHistory) Values(field string) []float64 {
	out := make([]float64, h.size)
	// oldest entry sits at (head - size + cap) % cap
	start := (h.head - h.size + len(h.buf)) % len(h.buf)
	for i := 0; i < h.size; i++ {
		p := h.buf[(start+i)%len(h.buf)]
		switch field {
		case "activeUsers":
			out[i] = p.ActiveUsers
		case "pageViews":
			out[i] = p.PageViews
		case "eventCount":
			out[i] = p.EventCount
		}
	}
	return out
}
