package coursegen

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/coursecast-backend/internal/domain/course"
	"github.com/yungbote/coursecast-backend/internal/learning/prompts"
	"github.com/yungbote/coursecast-backend/internal/observability"
	apperr "github.com/yungbote/coursecast-backend/internal/pkg/errors"
)

func (p *pipeline) GenerateQuiz(ctx context.Context, topicTitle string, doc *course.Document) (out []course.QuizQuestion, err error) {
	const op = "GenerateQuiz"
	ctx, finish := observability.StartSpan(ctx, "coursegen."+op, attribute.String("topic.title", topicTitle))
	defer func() { finish(err) }()

	obj, err := p.generateJSON(ctx, op, prompts.PromptTopicQuiz, prompts.Input{
		TopicTitle:    topicTitle,
		QuestionCount: QuizQuestionCount,
	}, doc)
	if err != nil {
		p.log.Warn("Quiz generation failed", "topic", topicTitle, "error", err, "kind", apperr.KindOf(err))
		return nil, err
	}

	var raw rawQuiz
	if err := decodeInto(op, obj, &raw); err != nil {
		return nil, err
	}
	out = repairQuiz(raw)
	if len(out) < QuizQuestionCount {
		p.log.Warn("Quiz shorter than requested", "topic", topicTitle, "got", len(out), "want", QuizQuestionCount)
		return nil, apperr.New(apperr.KindSchemaValidation,
			fmt.Sprintf("%s: %d usable questions in response, want %d", op, len(out), QuizQuestionCount), nil)
	}
	for i := range out {
		if err := checkStruct(op, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// repairQuiz drops questions without text, with fewer than two options or with an
// out of range answer, keeps at most QuizQuestionCount, and numbers them q-0, q-1, ...
func repairQuiz(raw rawQuiz) []course.QuizQuestion {
	out := make([]course.QuizQuestion, 0, QuizQuestionCount)
	for _, q := range raw.Questions {
		if len(out) == QuizQuestionCount {
			break
		}
		text := strings.TrimSpace(q.Question)
		if text == "" || len(q.Options) < 2 {
			continue
		}
		options := make([]string, len(q.Options))
		for i, o := range q.Options {
			options[i] = strings.TrimSpace(o)
		}
		if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(options) || options[q.CorrectOptionIndex] == "" {
			continue
		}
		out = append(out, course.QuizQuestion{
			ID:                 fmt.Sprintf("q-%d", len(out)),
			Question:           text,
			Options:            options,
			CorrectOptionIndex: q.CorrectOptionIndex,
			Explanation:        strings.TrimSpace(q.Explanation),
		})
	}
	return out
}
