package coursestate

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/coursecast-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursecast-backend/internal/domain/course"
	apperr "github.com/yungbote/coursecast-backend/internal/pkg/errors"
)

func sampleOutline() *course.CourseOutline {
	return &course.CourseOutline{
		Title: "Biology",
		Chapters: []course.Chapter{{ID: "ch-0", Title: "Cells", Topics: []course.Topic{
			{ID: "topic-0", Title: "Membranes", Completed: true},
			{ID: "topic-1", Title: "Organelles"},
		}}},
	}
}

func TestCourseStateRepo_RoundTrip(t *testing.T) {
	db := testutil.DB(t)
	repo := NewCourseStateRepo(db, testutil.Logger(t), 1024)
	dbc := testutil.Ctx()
	userID := uuid.New()

	if _, err := repo.Get(dbc, userID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Get: expected ErrNotFound, got %v", err)
	}

	tutor := course.TutorPersona{Region: course.RegionAsian, Gender: course.GenderMale, Name: "Kenji"}
	doc := &course.Document{Name: "bio.pdf", MimeType: "application/pdf", Data: []byte("%PDF-1.7")}
	kept, err := repo.Save(dbc, userID, course.Snapshot{Outline: sampleOutline(), Persona: tutor, Document: doc})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !kept {
		t.Fatalf("Save: expected document to be kept")
	}

	got, err := repo.Get(dbc, userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Persona != tutor {
		t.Fatalf("persona mismatch: %+v", got.Persona)
	}
	if got.Outline == nil || !got.Outline.Chapters[0].Topics[0].Completed || got.Outline.Chapters[0].Topics[1].Completed {
		t.Fatalf("outline mismatch: %+v", got.Outline)
	}
	if got.Document == nil || !bytes.Equal(got.Document.Data, doc.Data) || got.Document.Name != "bio.pdf" {
		t.Fatalf("document mismatch: %+v", got.Document)
	}
}

func TestCourseStateRepo_DropsOversizedDocument(t *testing.T) {
	db := testutil.DB(t)
	repo := NewCourseStateRepo(db, testutil.Logger(t), 4)
	dbc := testutil.Ctx()
	userID := uuid.New()

	small := &course.Document{Name: "a.pdf", Data: []byte("abc")}
	if _, err := repo.Save(dbc, userID, course.Snapshot{Outline: sampleOutline(), Persona: course.DefaultPersona(), Document: small}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	big := &course.Document{Name: "b.pdf", Data: []byte("too large")}
	kept, err := repo.Save(dbc, userID, course.Snapshot{Outline: sampleOutline(), Persona: course.DefaultPersona(), Document: big})
	if err != nil {
		t.Fatalf("Save: oversized document must not fail: %v", err)
	}
	if kept {
		t.Fatalf("Save: expected document to be dropped")
	}

	got, err := repo.Get(dbc, userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Document != nil {
		t.Fatalf("expected no document after overwrite, got %+v", got.Document)
	}
	if got.Outline == nil || got.Outline.Title != "Biology" {
		t.Fatalf("outline must always be retained")
	}
}

func TestCourseStateRepo_PendingQuiz(t *testing.T) {
	db := testutil.DB(t)
	repo := NewCourseStateRepo(db, testutil.Logger(t), 0)
	dbc := testutil.Ctx()
	userID := uuid.New()

	quiz := &course.PendingQuiz{TopicID: "topic-1", Questions: []course.QuizQuestion{
		{ID: "q-0", Question: "Which organelle makes ATP?", Options: []string{"Nucleus", "Mitochondrion"}, CorrectOptionIndex: 1, Explanation: "Respiration."},
	}}
	if _, err := repo.Save(dbc, userID, course.Snapshot{Outline: sampleOutline(), Persona: course.DefaultPersona(), Quiz: quiz}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.Get(dbc, userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Quiz == nil || got.Quiz.TopicID != "topic-1" || len(got.Quiz.Questions) != 1 || got.Quiz.Questions[0].CorrectOptionIndex != 1 {
		t.Fatalf("pending quiz mismatch: %+v", got.Quiz)
	}

	if _, err := repo.Save(dbc, userID, course.Snapshot{Outline: sampleOutline(), Persona: course.DefaultPersona()}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = repo.Get(dbc, userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Quiz != nil {
		t.Fatalf("expected cleared quiz, got %+v", got.Quiz)
	}
}
