package coursegen

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/coursecast-backend/internal/domain/course"
	"github.com/yungbote/coursecast-backend/internal/learning/prompts"
	"github.com/yungbote/coursecast-backend/internal/observability"
	apperr "github.com/yungbote/coursecast-backend/internal/pkg/errors"
)

const maxKeyPoints = 5

func (p *pipeline) GenerateLesson(ctx context.Context, topicTitle string, doc *course.Document, tutor course.TutorPersona) (out *course.LessonContent, err error) {
	const op = "GenerateLesson"
	style := p.tables.Style(tutor.Region)
	ctx, finish := observability.StartSpan(ctx, "coursegen."+op,
		attribute.String("topic.title", topicTitle),
		attribute.String("persona.region", string(tutor.Region)),
		attribute.String("persona.style", style.Archetype),
	)
	defer func() { finish(err) }()

	obj, err := p.generateJSON(ctx, op, prompts.PromptLessonScript, prompts.Input{
		TopicTitle:     topicTitle,
		PersonaName:    tutor.Name,
		PersonaRegion:  string(tutor.Region),
		PersonaGender:  string(tutor.Gender),
		StyleDirective: style.Directive,
	}, doc)
	if err != nil {
		p.log.Warn("Lesson generation failed", "topic", topicTitle, "error", err, "kind", apperr.KindOf(err))
		return nil, err
	}

	var lesson course.LessonContent
	if err := decodeInto(op, obj, &lesson); err != nil {
		return nil, err
	}
	lesson.Script = strings.TrimSpace(lesson.Script)
	lesson.VisualPrompt = strings.TrimSpace(lesson.VisualPrompt)
	lesson.KeyPoints = cleanStrings(lesson.KeyPoints)
	if len(lesson.KeyPoints) > maxKeyPoints {
		lesson.KeyPoints = lesson.KeyPoints[:maxKeyPoints]
	}
	if err := checkStruct(op, &lesson); err != nil {
		return nil, err
	}

	p.log.Debug("Lesson generated", "topic", topicTitle, "words", len(strings.Fields(lesson.Script)), "key_points", len(lesson.KeyPoints))
	return &lesson, nil
}
