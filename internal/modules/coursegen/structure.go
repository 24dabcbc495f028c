package coursegen

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/coursecast-backend/internal/domain/course"
	"github.com/yungbote/coursecast-backend/internal/learning/prompts"
	"github.com/yungbote/coursecast-backend/internal/modules/progression"
	"github.com/yungbote/coursecast-backend/internal/observability"
	apperr "github.com/yungbote/coursecast-backend/internal/pkg/errors"
)

func (p *pipeline) AnalyzeStructure(ctx context.Context, doc *course.Document) (out *course.CourseOutline, err error) {
	const op = "AnalyzeStructure"
	ctx, finish := observability.StartSpan(ctx, "coursegen."+op, attribute.Int("document.bytes", docSize(doc)))
	defer func() { finish(err) }()

	obj, err := p.generateJSON(ctx, op, prompts.PromptCourseStructure, prompts.Input{}, doc)
	if err != nil {
		p.log.Warn("Structure analysis failed", "error", err, "kind", apperr.KindOf(err))
		return nil, err
	}

	var raw rawOutline
	if err := decodeInto(op, obj, &raw); err != nil {
		return nil, err
	}
	repairOutline(&raw)
	if len(raw.Chapters) == 0 {
		return nil, apperr.New(apperr.KindUnreadableDocument, op+": no course structure could be derived from the document", nil)
	}
	if err := checkStruct(op, &raw); err != nil {
		return nil, err
	}

	out = buildOutline(raw)
	p.log.Info("Course outline generated", "chapters", len(out.Chapters), "topics", out.TopicCount())
	return out, nil
}

// buildOutline assigns sequential chapter ids (ch-0, ch-1, ...) and topic ids
// (topic-0, topic-1, ... in flattened order) and the initial lock state.
func buildOutline(raw rawOutline) *course.CourseOutline {
	out := &course.CourseOutline{Title: raw.Title, Summary: raw.Summary}
	n := 0
	for ci, ch := range raw.Chapters {
		chapter := course.Chapter{ID: fmt.Sprintf("ch-%d", ci), Title: ch.Title}
		for _, t := range ch.Topics {
			chapter.Topics = append(chapter.Topics, course.Topic{
				ID:          fmt.Sprintf("topic-%d", n),
				Title:       t.Title,
				Description: t.Description,
			})
			n++
		}
		out.Chapters = append(out.Chapters, chapter)
	}
	progression.ResetLocks(out)
	return out
}

func docSize(doc *course.Document) int {
	if doc == nil {
		return 0
	}
	return len(doc.Data)
}
