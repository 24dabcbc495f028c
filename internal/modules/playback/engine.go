// Package playback keeps narrated-lesson playback in sync with its transcript:
// the play/pause/seek state machine plus pure progress-to-highlight mapping.
package playback

import (
	"math"
	"sync"

	"github.com/yungbote/coursecast-backend/internal/pkg/logger"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateEnded   State = "ended"
)

// Token identifies one media source assignment. Events carrying an older token are
// ignored so late progress from a previous source never leaks into the current one.
type Token uint64

type Snapshot struct {
	State    State
	Source   string
	Position float64
	Duration float64
	Progress float64
	Volume   float64
	Muted    bool
}

// Engine is independent of the media transport: the transport reports load, start,
// and position events, and the engine decides the resulting state.
type Engine struct {
	log *logger.Logger

	mu       sync.Mutex
	state    State
	source   string
	token    Token
	position float64
	duration float64
	volume   float64
	muted    bool
}

func NewEngine(log *logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{log: log.With("service", "PlaybackSyncEngine"), state: StateIdle, volume: 1}
}

// SetSource clears the previous source, resets progress and duration, and moves to loading.
func (e *Engine) SetSource(source string) Token {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position, e.duration = 0, 0
	e.token++
	e.source = source
	e.state = StateLoading
	return e.token
}

// Reset detaches the current source and returns to idle.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.token++
	e.source = ""
	e.position, e.duration = 0, 0
	e.state = StateIdle
}

// Loaded records the decoded duration of the source identified by tok.
func (e *Engine) Loaded(tok Token, duration float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tok != e.token {
		return false
	}
	if validDuration(duration) {
		e.duration = duration
	}
	return true
}

// Start reports the outcome of a play attempt. A blocked autoplay parks the engine in
// paused until the user toggles; it is not an error.
func (e *Engine) Start(tok Token, blocked bool) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tok != e.token || e.state != StateLoading {
		return e.state
	}
	if blocked {
		e.log.Debug("Autoplay blocked, awaiting user gesture", "source", e.source)
		e.state = StatePaused
	} else {
		e.state = StatePlaying
	}
	return e.state
}

// Toggle flips between playing and paused. From ended it restarts at the beginning.
func (e *Engine) Toggle() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StatePlaying:
		e.state = StatePaused
	case StatePaused:
		e.state = StatePlaying
	case StateEnded:
		e.position = 0
		e.state = StatePlaying
	}
	return e.state
}

// Tick reports the transport position in seconds for source tok. Reaching the
// duration ends playback.
func (e *Engine) Tick(tok Token, position float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tok != e.token || e.state == StateIdle {
		return false
	}
	e.setPositionLocked(position)
	return true
}

// Seek jumps to the time under a click at x within a strip of width w and returns it.
// Progress updates immediately instead of waiting for the next tick.
func (e *Engine) Seek(x, w float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateIdle {
		return 0
	}
	target := SeekTarget(x, w, e.duration)
	if e.state == StateEnded && target < e.duration {
		e.state = StatePaused
	}
	e.setPositionLocked(target)
	return target
}

func (e *Engine) setPositionLocked(position float64) {
	if math.IsNaN(position) || position < 0 {
		position = 0
	}
	if e.duration > 0 && position >= e.duration {
		e.position = e.duration
		e.state = StateEnded
		return
	}
	e.position = position
}

func (e *Engine) SetVolume(v float64) {
	e.mu.Lock()
	e.volume = clamp01(v)
	e.mu.Unlock()
}

func (e *Engine) SetMuted(muted bool) {
	e.mu.Lock()
	e.muted = muted
	e.mu.Unlock()
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Snapshot{
		State:    e.state,
		Source:   e.source,
		Position: e.position,
		Duration: e.duration,
		Volume:   e.volume,
		Muted:    e.muted,
	}
	if e.duration > 0 {
		s.Progress = clamp01(e.position / e.duration)
	}
	return s
}

// Token returns the token of the current source.
func (e *Engine) Token() Token {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.token
}

// Highlight returns the active word index of an n-word transcript at the current
// position.
func (e *Engine) Highlight(n int) int {
	return ComputeHighlight(e.Snapshot().Progress, n)
}

// Scroll returns the transcript scroll offset at the current position. The
// transcript follows the narration only while playing; otherwise ok is false and
// the view stays where the user left it.
func (e *Engine) Scroll(maxScroll float64) (float64, bool) {
	s := e.Snapshot()
	if s.State != StatePlaying {
		return 0, false
	}
	return ScrollOffset(s.Progress, maxScroll)
}
