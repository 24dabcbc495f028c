package session

import (
	"context"
	"fmt"

	"github.com/yungbote/coursecast-backend/internal/domain/course"
	"github.com/yungbote/coursecast-backend/internal/modules/progression"
	apperr "github.com/yungbote/coursecast-backend/internal/pkg/errors"
)

type QuizResult struct {
	TopicID  string
	Correct  int
	Total    int
	Required int
	Passed   bool
	// Missed holds the questions answered incorrectly.
	Missed []course.QuizQuestion
	// Next is the topic unlocked by this pass, empty on a fail or the last topic.
	Next    string
	Outline *course.CourseOutline
}

// PassThreshold is the number of correct answers needed to pass a quiz of n
// questions: at least two thirds, rounded up.
func PassThreshold(n int) int {
	if n <= 0 {
		return 0
	}
	return (2*n + 2) / 3
}

// PendingQuiz returns the quiz awaiting answers, or nil. It survives a reopen of the
// session, so the questions can be answered by a later process.
func (s *Session) PendingQuiz() *course.PendingQuiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.quiz) == 0 {
		return nil
	}
	return &course.PendingQuiz{TopicID: s.quizTopic, Questions: append([]course.QuizQuestion(nil), s.quiz...)}
}

// StartQuiz generates a fresh quiz for the current lesson's topic, replacing any
// pending one, and persists it until it is submitted.
func (s *Session) StartQuiz(ctx context.Context) ([]course.QuizQuestion, error) {
	s.mu.Lock()
	if s.lesson == nil {
		s.mu.Unlock()
		return nil, ErrNoLesson
	}
	if s.doc.Empty() {
		s.mu.Unlock()
		return nil, apperr.New(apperr.KindDocumentRequired, "document required to generate a quiz", nil)
	}
	gen := s.generation
	topicID, title, doc := s.lesson.TopicID, s.lesson.TopicTitle, s.doc
	s.mu.Unlock()

	qs, err := s.pipeline.GenerateQuiz(ctx, title, doc)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return nil, ErrStaleGeneration
	}
	s.quiz = qs
	s.quizTopic = topicID
	snap := s.snapshotLocked()
	s.mu.Unlock()

	out := append([]course.QuizQuestion(nil), qs...)
	if err := s.saveState(ctx, snap); err != nil {
		return out, err
	}
	return out, nil
}

// SubmitQuiz scores answers (selected option index per question, in order), applies
// the outcome to the outline and persists it. A quiz takes one submission: pass or
// fail, it is discarded and the next attempt needs StartQuiz.
func (s *Session) SubmitQuiz(ctx context.Context, answers []int) (*QuizResult, error) {
	s.mu.Lock()
	if len(s.quiz) == 0 {
		s.mu.Unlock()
		return nil, ErrNoQuiz
	}
	if len(answers) != len(s.quiz) {
		s.mu.Unlock()
		return nil, fmt.Errorf("expected %d answers, got %d: %w", len(s.quiz), len(answers), apperr.ErrInvalidArgument)
	}

	res := &QuizResult{TopicID: s.quizTopic, Total: len(s.quiz), Required: PassThreshold(len(s.quiz))}
	for i, q := range s.quiz {
		if answers[i] == q.CorrectOptionIndex {
			res.Correct++
		} else {
			res.Missed = append(res.Missed, q)
		}
	}
	res.Passed = res.Correct >= res.Required

	before := s.outline
	s.outline = progression.AdvanceOn(s.outline, res.TopicID, res.Passed)
	if res.Passed {
		if n := progression.Next(s.outline, res.TopicID); n != nil {
			if prev, _ := before.FindTopic(n.ID); prev != nil && prev.Locked {
				res.Next = n.ID
			}
		}
	}
	s.quiz, s.quizTopic = nil, ""
	res.Outline = s.outline.Clone()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Info("Quiz submitted", "topic_id", res.TopicID, "correct", res.Correct, "total", res.Total, "passed", res.Passed)
	if err := s.saveState(ctx, snap); err != nil {
		return res, err
	}
	return res, nil
}
