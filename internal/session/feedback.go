package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursecast-backend/internal/domain/course"
	"github.com/yungbote/coursecast-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/coursecast-backend/internal/pkg/errors"
)

// AddFeedback records a 1..5 rating for the current lesson or quiz.
func (s *Session) AddFeedback(ctx context.Context, kind course.FeedbackKind, rating int, comment string) (course.FeedbackEntry, error) {
	if rating < 1 || rating > 5 {
		return course.FeedbackEntry{}, fmt.Errorf("rating %d out of range 1..5: %w", rating, apperr.ErrInvalidArgument)
	}
	if kind != course.FeedbackLesson && kind != course.FeedbackQuiz {
		return course.FeedbackEntry{}, fmt.Errorf("feedback kind %q: %w", kind, apperr.ErrInvalidArgument)
	}

	s.mu.Lock()
	if s.lesson == nil {
		s.mu.Unlock()
		return course.FeedbackEntry{}, ErrNoLesson
	}
	entry := course.FeedbackEntry{
		ID:         uuid.NewString(),
		TopicID:    s.lesson.TopicID,
		TopicTitle: s.lesson.TopicTitle,
		Kind:       kind,
		Rating:     rating,
		Comment:    strings.TrimSpace(comment),
		Timestamp:  time.Now().UTC(),
	}
	s.entries = append(s.entries, entry)
	entries := append([]course.FeedbackEntry(nil), s.entries...)
	s.mu.Unlock()

	if err := s.feedback.Save(dbctx.Context{Ctx: ctx}, s.userID, entries); err != nil {
		s.log.Error("Saving feedback failed", "error", err)
		return entry, fmt.Errorf("save feedback: %w", err)
	}
	return entry, nil
}
