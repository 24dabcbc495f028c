// Package session threads one user's course state through the pipeline, the
// progression rules and the player, persisting a full snapshot at each save point.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/coursecast-backend/internal/data/repos"
	"github.com/yungbote/coursecast-backend/internal/domain/course"
	"github.com/yungbote/coursecast-backend/internal/media/store"
	"github.com/yungbote/coursecast-backend/internal/modules/coursegen"
	"github.com/yungbote/coursecast-backend/internal/modules/playback"
	"github.com/yungbote/coursecast-backend/internal/modules/progression"
	"github.com/yungbote/coursecast-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/coursecast-backend/internal/pkg/errors"
	"github.com/yungbote/coursecast-backend/internal/pkg/logger"
)

var (
	// ErrStaleGeneration is returned when a generation finished after the user moved on
	// to a different topic or document. Its result has been discarded.
	ErrStaleGeneration = errors.New("generation superseded by a newer selection")
	ErrNoCourse        = errors.New("no course loaded")
	ErrTopicLocked     = errors.New("topic is locked")
	ErrNoLesson        = errors.New("no lesson selected")
	ErrNoQuiz          = errors.New("no quiz in progress")
)

type Deps struct {
	Log      *logger.Logger
	Pipeline coursegen.Pipeline
	Media    store.Store
	Profiles repos.ProfileRepo
	States   repos.CourseStateRepo
	Feedback repos.FeedbackRepo
	// Player is optional; a fresh engine is created when nil.
	Player *playback.Engine
}

func (d Deps) validate() error {
	switch {
	case d.Log == nil:
		return fmt.Errorf("logger required")
	case d.Pipeline == nil:
		return fmt.Errorf("pipeline required")
	case d.Media == nil:
		return fmt.Errorf("media store required")
	case d.Profiles == nil || d.States == nil || d.Feedback == nil:
		return fmt.Errorf("repos required")
	}
	return nil
}

// Lesson is the generated content and media of the selected topic.
type Lesson struct {
	TopicID    string
	TopicTitle string
	Content    *course.LessonContent
	Media      course.LessonMedia
	Transcript playback.Transcript
}

type Session struct {
	log      *logger.Logger
	pipeline coursegen.Pipeline
	media    store.Store
	profiles repos.ProfileRepo
	states   repos.CourseStateRepo
	feedback repos.FeedbackRepo
	player   *playback.Engine

	userID uuid.UUID

	mu         sync.Mutex
	outline    *course.CourseOutline
	persona    course.TutorPersona
	doc        *course.Document
	selected   string
	generation uint64
	lesson     *Lesson
	quiz       []course.QuizQuestion
	quizTopic  string
	entries    []course.FeedbackEntry
}

// Open starts a session for an existing profile and resumes any persisted course.
func Open(ctx context.Context, deps Deps, userID uuid.UUID) (*Session, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := deps.Profiles.GetByID(dbc, userID); err != nil {
		return nil, fmt.Errorf("load profile %s: %w", userID, err)
	}

	s := &Session{
		log:      deps.Log.With("service", "Session", "user_id", userID.String()),
		pipeline: deps.Pipeline,
		media:    deps.Media,
		profiles: deps.Profiles,
		states:   deps.States,
		feedback: deps.Feedback,
		player:   deps.Player,
		userID:   userID,
		persona:  course.DefaultPersona(),
	}
	if s.player == nil {
		s.player = playback.NewEngine(deps.Log)
	}

	snap, err := deps.States.Get(dbc, userID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load course state: %w", err)
	default:
		s.outline = snap.Outline
		s.persona = snap.Persona
		s.doc = snap.Document
		if snap.Quiz != nil {
			s.quiz, s.quizTopic = snap.Quiz.Questions, snap.Quiz.TopicID
		}
	}

	entries, err := deps.Feedback.Get(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load feedback: %w", err)
	}
	s.entries = entries

	s.log.Info("Session opened", "resumed", s.outline != nil, "has_document", s.doc != nil, "quiz_pending", len(s.quiz) > 0)
	return s, nil
}

func (s *Session) UserID() uuid.UUID { return s.userID }

func (s *Session) Player() *playback.Engine { return s.player }

// Outline returns a copy of the current course outline, or nil.
func (s *Session) Outline() *course.CourseOutline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outline.Clone()
}

func (s *Session) Persona() course.TutorPersona {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persona
}

func (s *Session) HasDocument() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.doc.Empty()
}

func (s *Session) Lesson() *Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lesson == nil {
		return nil
	}
	l := *s.lesson
	return &l
}

func (s *Session) Feedback() []course.FeedbackEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]course.FeedbackEntry(nil), s.entries...)
}

// AnalyzeDocument builds a new course from doc, replacing the current one.
func (s *Session) AnalyzeDocument(ctx context.Context, doc *course.Document) (*course.CourseOutline, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	outline, err := s.pipeline.AnalyzeStructure(ctx, doc)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return nil, ErrStaleGeneration
	}
	s.outline = outline
	s.doc = doc
	s.selected = ""
	s.quiz, s.quizTopic = nil, ""
	old := s.lesson
	s.lesson = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.revoke(ctx, old)
	if err := s.saveState(ctx, snap); err != nil {
		return outline.Clone(), err
	}
	return outline.Clone(), nil
}

// ProvideDocument supplies the document again after a resume dropped it. The upload
// is not compared against the document the outline was built from.
func (s *Session) ProvideDocument(ctx context.Context, doc *course.Document) error {
	if doc.Empty() {
		return apperr.New(apperr.KindUnreadableDocument, "document is empty", nil)
	}
	s.mu.Lock()
	if s.outline == nil {
		s.mu.Unlock()
		return ErrNoCourse
	}
	s.doc = doc
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return s.saveState(ctx, snap)
}

// SelectTopic generates the lesson for topicID and its media. If another topic is
// selected before this one finishes, the result is discarded with ErrStaleGeneration.
func (s *Session) SelectTopic(ctx context.Context, topicID string) (*Lesson, error) {
	s.mu.Lock()
	if s.outline == nil {
		s.mu.Unlock()
		return nil, ErrNoCourse
	}
	topic, _ := s.outline.FindTopic(topicID)
	if topic == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("topic %q: %w", topicID, apperr.ErrNotFound)
	}
	if !progression.Selectable(s.outline, topicID) {
		s.mu.Unlock()
		return nil, ErrTopicLocked
	}
	if s.doc.Empty() {
		s.mu.Unlock()
		return nil, apperr.New(apperr.KindDocumentRequired, "document required to generate lessons", nil)
	}
	s.generation++
	gen := s.generation
	s.selected = topicID
	title := topic.Title
	doc, tutor := s.doc, s.persona
	s.mu.Unlock()

	s.log.Info("Generating lesson", "topic_id", topicID, "generation", gen)
	content, err := s.pipeline.GenerateLesson(ctx, title, doc, tutor)
	if err != nil {
		return nil, err
	}
	if !s.current(gen) {
		s.log.Debug("Discarding stale lesson script", "topic_id", topicID)
		return nil, ErrStaleGeneration
	}

	media, err := s.pipeline.BuildLessonMedia(ctx, content, tutor)
	if err != nil {
		return nil, err
	}

	lesson := &Lesson{
		TopicID:    topicID,
		TopicTitle: title,
		Content:    content,
		Media:      media,
		Transcript: playback.Tokenize(content.Script),
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.log.Debug("Discarding stale lesson media", "topic_id", topicID)
		s.revoke(ctx, lesson)
		return nil, ErrStaleGeneration
	}
	old := s.lesson
	s.lesson = lesson
	hadQuiz := len(s.quiz) > 0
	s.quiz, s.quizTopic = nil, ""
	tok := s.player.SetSource(media.Audio.Key)
	s.player.Loaded(tok, media.AudioSeconds)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.revoke(ctx, old)
	out := *lesson
	if hadQuiz {
		// A new lesson voids the quiz that was waiting for answers.
		if err := s.saveState(ctx, snap); err != nil {
			return &out, err
		}
	}
	return &out, nil
}

func (s *Session) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation
}

// SetPersona replaces the tutor persona. Lessons generated from now on use it.
func (s *Session) SetPersona(ctx context.Context, p course.TutorPersona) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.persona = p
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return s.saveState(ctx, snap)
}

// Close releases the media of the current lesson.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	old := s.lesson
	s.lesson = nil
	s.generation++
	s.mu.Unlock()
	s.revoke(ctx, old)
	s.player.Reset()
	return nil
}

func (s *Session) snapshotLocked() course.Snapshot {
	snap := course.Snapshot{Outline: s.outline.Clone(), Persona: s.persona, Document: s.doc}
	if len(s.quiz) > 0 {
		snap.Quiz = &course.PendingQuiz{TopicID: s.quizTopic, Questions: append([]course.QuizQuestion(nil), s.quiz...)}
	}
	return snap
}

func (s *Session) saveState(ctx context.Context, snap course.Snapshot) error {
	kept, err := s.states.Save(dbctx.Context{Ctx: ctx}, s.userID, snap)
	if err != nil {
		s.log.Error("Saving course state failed", "error", err)
		return fmt.Errorf("save course state: %w", err)
	}
	if snap.Document != nil && !kept {
		s.log.Info("Course saved without document; it must be uploaded again on resume")
	}
	return nil
}

func (s *Session) revoke(ctx context.Context, l *Lesson) {
	if l == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, h := range []store.Handle{l.Media.Audio, l.Media.Image} {
		if h.IsZero() {
			continue
		}
		if err := s.media.Revoke(ctx, h.Key); err != nil {
			s.log.Warn("Media revoke failed", "key", h.Key, "error", err)
		}
	}
}
