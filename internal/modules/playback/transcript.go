package playback

import (
	"fmt"
	"math"
	"strings"
)

// Transcript is a script split into paragraphs (by line) and words (by whitespace).
// Word indexes are global across paragraphs.
type Transcript struct {
	Paragraphs [][]string
	Words      int
}

func Tokenize(text string) Transcript {
	var t Transcript
	for _, line := range strings.Split(text, "\n") {
		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}
		t.Paragraphs = append(t.Paragraphs, words)
		t.Words += len(words)
	}
	return t
}

// Index returns the global index of the i-th word of paragraph p.
func (t Transcript) Index(p, i int) int {
	n := 0
	for j := 0; j < p && j < len(t.Paragraphs); j++ {
		n += len(t.Paragraphs[j])
	}
	return n + i
}

// ComputeHighlight maps playback progress onto the active word index, floor(progress*n),
// clamped to [0, n]. Invalid progress is treated as 0.
func ComputeHighlight(progress float64, n int) int {
	if n <= 0 {
		return 0
	}
	p := clamp01(progress)
	idx := int(math.Floor(p * float64(n)))
	if idx > n {
		idx = n
	}
	return idx
}

type WordState int

const (
	WordUnread WordState = iota
	WordActive
	WordRead
)

func (s WordState) String() string {
	switch s {
	case WordRead:
		return "read"
	case WordActive:
		return "active"
	default:
		return "unread"
	}
}

// ClassifyWords returns the state of each of n words at progress.
func ClassifyWords(progress float64, n int) []WordState {
	if n <= 0 {
		return nil
	}
	cur := ComputeHighlight(progress, n)
	out := make([]WordState, n)
	for i := range out {
		switch {
		case i < cur:
			out[i] = WordRead
		case i == cur:
			out[i] = WordActive
		}
	}
	return out
}

// ScrollOffset returns the transcript scroll position for progress, or false when
// the content fits the viewport and no scrolling should happen.
func ScrollOffset(progress, maxScroll float64) (float64, bool) {
	if !(maxScroll > 0) || math.IsInf(maxScroll, 0) {
		return 0, false
	}
	return clamp01(progress) * maxScroll, true
}

// SeekTarget converts a click at x within a strip of width w into a time in seconds.
func SeekTarget(x, w, duration float64) float64 {
	if !(w > 0) || !validDuration(duration) {
		return 0
	}
	return clamp01(x/w) * duration
}

// FormatTimestamp renders seconds as m:ss. Invalid input renders as 0:00.
func FormatTimestamp(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "0:00"
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func validDuration(d float64) bool {
	return d > 0 && !math.IsInf(d, 0)
}
