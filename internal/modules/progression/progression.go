// Package progression advances topic lock and completion state across an outline.
package progression

import "github.com/yungbote/coursecast-backend/internal/domain/course"

// ResetLocks puts o in its initial state: nothing completed, only the first topic
// of the first chapter unlocked.
func ResetLocks(o *course.CourseOutline) {
	for i, ref := range o.Flatten() {
		t := o.Topic(ref)
		t.Completed = false
		t.Locked = i != 0
	}
}

// Next returns the topic following topicID in flattened order, or nil when topicID
// is last or unknown.
func Next(o *course.CourseOutline, topicID string) *course.Topic {
	refs := o.Flatten()
	for i, ref := range refs {
		if o.Topic(ref).ID != topicID {
			continue
		}
		if i+1 < len(refs) {
			return o.Topic(refs[i+1])
		}
		return nil
	}
	return nil
}

// AdvanceOn applies a quiz outcome for topicID and returns the resulting outline.
// A failed attempt or an unknown topic returns o unchanged. A pass returns a new
// outline with topicID completed and the next topic unlocked; o itself is never
// mutated, so callers swap the snapshot in one assignment.
func AdvanceOn(o *course.CourseOutline, topicID string, passed bool) *course.CourseOutline {
	if o == nil || !passed {
		return o
	}
	if t, _ := o.FindTopic(topicID); t == nil {
		return o
	}
	next := o.Clone()
	t, _ := next.FindTopic(topicID)
	t.Completed = true
	if n := Next(next, topicID); n != nil {
		n.Locked = false
	}
	return next
}

// Selectable reports whether topicID exists and is unlocked.
func Selectable(o *course.CourseOutline, topicID string) bool {
	if o == nil {
		return false
	}
	t, _ := o.FindTopic(topicID)
	return t != nil && !t.Locked
}

// FirstOpen returns the first unlocked topic that is not completed, falling back to
// the last unlocked topic, or nil for an empty outline.
func FirstOpen(o *course.CourseOutline) *course.Topic {
	if o == nil {
		return nil
	}
	var lastUnlocked *course.Topic
	for _, ref := range o.Flatten() {
		t := o.Topic(ref)
		if t.Locked {
			continue
		}
		if !t.Completed {
			return t
		}
		lastUnlocked = t
	}
	return lastUnlocked
}
