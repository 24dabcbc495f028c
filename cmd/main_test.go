package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yungbote/coursecast-backend/internal/app"
	"github.com/yungbote/coursecast-backend/internal/data/repos"
	"github.com/yungbote/coursecast-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursecast-backend/internal/domain/course"
	"github.com/yungbote/coursecast-backend/internal/media/store"
	"github.com/yungbote/coursecast-backend/internal/modules/progression"
	"github.com/yungbote/coursecast-backend/internal/pkg/logger"
)

type stubPipeline struct {
	media   store.Store
	quizzes int
}

func (p *stubPipeline) AnalyzeStructure(context.Context, *course.Document) (*course.CourseOutline, error) {
	o := &course.CourseOutline{Title: "Astronomy", Chapters: []course.Chapter{
		{ID: "ch-0", Title: "Sky", Topics: []course.Topic{{ID: "topic-0", Title: "Stars"}, {ID: "topic-1", Title: "Planets"}}},
	}}
	progression.ResetLocks(o)
	return o, nil
}

func (p *stubPipeline) GenerateLesson(_ context.Context, title string, _ *course.Document, _ course.TutorPersona) (*course.LessonContent, error) {
	return &course.LessonContent{Script: "Today: " + title + ".", VisualPrompt: "night sky", KeyPoints: []string{title}}, nil
}

func (p *stubPipeline) GenerateQuiz(context.Context, string, *course.Document) ([]course.QuizQuestion, error) {
	p.quizzes++
	return []course.QuizQuestion{
		{ID: "q-0", Question: "Nearest star?", Options: []string{"Sun", "Vega"}, CorrectOptionIndex: 0, Explanation: "The Sun."},
		{ID: "q-1", Question: "Red planet?", Options: []string{"Venus", "Mars"}, CorrectOptionIndex: 1, Explanation: "Iron oxide."},
		{ID: "q-2", Question: "Largest planet?", Options: []string{"Jupiter", "Earth"}, CorrectOptionIndex: 0, Explanation: "Gas giant."},
	}, nil
}

func (p *stubPipeline) SynthesizeSpeech(ctx context.Context, _ string, _ course.TutorPersona) (store.Handle, float64, error) {
	h, err := p.media.Put(ctx, "audio/wav", []byte("RIFF"))
	return h, 3, err
}

func (p *stubPipeline) SynthesizeImage(ctx context.Context, _ string) (store.Handle, bool) {
	h, _ := p.media.Put(ctx, "image/png", []byte("png"))
	return h, false
}

func (p *stubPipeline) BuildLessonMedia(ctx context.Context, l *course.LessonContent, tutor course.TutorPersona) (course.LessonMedia, error) {
	a, secs, err := p.SynthesizeSpeech(ctx, l.Script, tutor)
	if err != nil {
		return course.LessonMedia{}, err
	}
	img, degraded := p.SynthesizeImage(ctx, l.VisualPrompt)
	return course.LessonMedia{Audio: a, Image: img, ImageDegraded: degraded, AudioSeconds: secs}, nil
}

func newTestApp(t *testing.T) (*app.App, *stubPipeline) {
	t.Helper()
	db := testutil.DB(t)
	log := logger.NewNop()
	media := store.NewMemoryStore()
	pipe := &stubPipeline{media: media}
	return &app.App{
		Log: log,
		DB:  db,
		Repos: app.Repos{
			Profile:     repos.NewProfileRepo(db, log),
			CourseState: repos.NewCourseStateRepo(db, log, 0),
			Feedback:    repos.NewFeedbackRepo(db, log),
		},
		Clients:  app.Clients{Media: media},
		Pipeline: pipe,
	}, pipe
}

func TestRun_QuizIsAnsweredInALaterRun(t *testing.T) {
	a, pipe := newTestApp(t)
	ctx := context.Background()
	dir := t.TempDir()
	docPath := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(docPath, []byte("stars and planets"), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	out := filepath.Join(dir, "out")

	if err := run(ctx, a, options{user: "Ada", doc: docPath, out: out}); err != nil {
		t.Fatalf("lesson run: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(out, "quiz.json"))
	if err != nil {
		t.Fatalf("read quiz.json: %v", err)
	}
	if strings.Contains(string(raw), "correctOptionIndex") || strings.Contains(string(raw), "explanation") {
		t.Fatalf("quiz.json must not reveal answers: %s", raw)
	}
	var shown quizFile
	if err := json.Unmarshal(raw, &shown); err != nil {
		t.Fatalf("decode quiz.json: %v", err)
	}
	if shown.TopicID != "topic-0" || len(shown.Questions) != 3 {
		t.Fatalf("unexpected quiz file %+v", shown)
	}
	for _, name := range []string{"lesson.json", "lesson.wav", "lesson.png"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}

	if err := run(ctx, a, options{user: "Ada", answers: "0,1,0", doc: docPath}); err == nil {
		t.Fatalf("expected -answers with -doc to be rejected")
	}
	if err := run(ctx, a, options{user: "Ada", answers: "0,1,0"}); err != nil {
		t.Fatalf("answer run: %v", err)
	}
	if pipe.quizzes != 1 {
		t.Fatalf("answers must be scored against the saved quiz, got %d generations", pipe.quizzes)
	}

	profile, err := a.EnsureProfile(ctx, "Ada")
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	saved, err := a.Repos.CourseState.Get(testutil.Ctx(), profile.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !saved.Outline.Chapters[0].Topics[0].Completed || saved.Outline.Chapters[0].Topics[1].Locked {
		t.Fatalf("pass not recorded: %+v", saved.Outline)
	}
	if saved.Quiz != nil {
		t.Fatalf("submitted quiz must be cleared")
	}

	if err := run(ctx, a, options{user: "Ada", answers: "0,1,0"}); err == nil {
		t.Fatalf("expected a second submission to fail without a new quiz")
	}
}

func TestParseAnswers(t *testing.T) {
	got, err := parseAnswers(" 0, 2 ,1")
	if err != nil || len(got) != 3 || got[1] != 2 {
		t.Fatalf("parseAnswers: %v %v", got, err)
	}
	if _, err := parseAnswers("a,1"); err == nil {
		t.Fatalf("expected invalid answer error")
	}
}
