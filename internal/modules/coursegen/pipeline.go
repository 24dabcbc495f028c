// Package coursegen turns a document into a course: outline, narrated lessons,
// lesson images and quizzes.
package coursegen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/yungbote/coursecast-backend/internal/clients/openai"
	"github.com/yungbote/coursecast-backend/internal/domain/course"
	"github.com/yungbote/coursecast-backend/internal/learning/persona"
	"github.com/yungbote/coursecast-backend/internal/learning/prompts"
	"github.com/yungbote/coursecast-backend/internal/media/imaging"
	"github.com/yungbote/coursecast-backend/internal/media/store"
	"github.com/yungbote/coursecast-backend/internal/platform/promptstyle"
	apperr "github.com/yungbote/coursecast-backend/internal/pkg/errors"
	"github.com/yungbote/coursecast-backend/internal/pkg/httpx"
	"github.com/yungbote/coursecast-backend/internal/pkg/logger"
	"github.com/yungbote/coursecast-backend/internal/pkg/retry"
)

// QuizQuestionCount is the number of questions requested per quiz.
const QuizQuestionCount = 3

type Pipeline interface {
	AnalyzeStructure(ctx context.Context, doc *course.Document) (*course.CourseOutline, error)
	GenerateLesson(ctx context.Context, topicTitle string, doc *course.Document, p course.TutorPersona) (*course.LessonContent, error)
	GenerateQuiz(ctx context.Context, topicTitle string, doc *course.Document) ([]course.QuizQuestion, error)

	// SynthesizeSpeech returns a WAV handle and its length in seconds. Failures propagate.
	SynthesizeSpeech(ctx context.Context, script string, p course.TutorPersona) (store.Handle, float64, error)
	// SynthesizeImage never fails: any problem yields the placeholder and degraded=true.
	SynthesizeImage(ctx context.Context, prompt string) (h store.Handle, degraded bool)
	// BuildLessonMedia runs speech and image synthesis for lesson concurrently.
	BuildLessonMedia(ctx context.Context, lesson *course.LessonContent, p course.TutorPersona) (course.LessonMedia, error)
}

type pipeline struct {
	log    *logger.Logger
	ai     openai.Client
	media  store.Store
	caller *retry.Caller
	tables *persona.Tables

	placeholderOnce sync.Once
	placeholder     []byte
	placeholderErr  error
}

func New(log *logger.Logger, ai openai.Client, media store.Store, caller *retry.Caller, tables *persona.Tables) (Pipeline, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ai == nil {
		return nil, fmt.Errorf("ai client required")
	}
	if media == nil {
		return nil, fmt.Errorf("media store required")
	}
	if caller == nil {
		caller = retry.Default(log)
	}
	if tables == nil {
		tables = persona.Default()
	}
	return &pipeline{
		log:    log.With("service", "ContentPipeline"),
		ai:     ai,
		media:  media,
		caller: caller,
		tables: tables,
	}, nil
}

// generateJSON renders prompt name, sends it with doc attached, and retries transient failures.
func (p *pipeline) generateJSON(ctx context.Context, op string, name prompts.PromptName, in prompts.Input, doc *course.Document) (map[string]any, error) {
	if doc.Empty() {
		return nil, apperr.New(apperr.KindUnreadableDocument, "document is empty", nil)
	}
	pr, err := prompts.Build(name, in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req := openai.JSONRequest{
		System:     promptstyle.ApplySystem(pr.System, promptstyle.ModeJSON),
		User:       pr.User,
		Document:   &openai.DocumentInput{Filename: doc.Name, MimeType: doc.MimeType, Data: doc.Data},
		SchemaName: pr.SchemaName,
		Schema:     pr.Schema,
	}
	obj, err := retry.Do(ctx, p.caller, op, func(ctx context.Context) (map[string]any, error) {
		return p.ai.GenerateJSON(ctx, req)
	})
	if err != nil {
		return nil, classify(op, err, true)
	}
	return obj, nil
}

// classify maps a failed call onto the error taxonomy. withDocument marks calls that
// carried the uploaded document, where a 400 means the service could not read it.
func classify(op string, err error, withDocument bool) error {
	if err == nil {
		return nil
	}
	if apperr.KindOf(err) != "" {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	switch status := httpx.StatusCode(err); {
	case status == http.StatusRequestEntityTooLarge:
		return apperr.New(apperr.KindPayloadTooLarge, op+": request too large", err)
	case withDocument && (status == http.StatusBadRequest || status == http.StatusUnprocessableEntity):
		return apperr.New(apperr.KindUnreadableDocument, op+": document could not be read", err)
	}
	if retry.IsTransient(err) {
		return apperr.New(apperr.KindTransient, op+": service unavailable", err)
	}
	return err
}

func (p *pipeline) placeholderPNG() ([]byte, error) {
	p.placeholderOnce.Do(func() {
		p.placeholder, p.placeholderErr = imaging.Placeholder()
	})
	return p.placeholder, p.placeholderErr
}
