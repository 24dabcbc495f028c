package coursegen

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"

	apperr "github.com/yungbote/coursecast-backend/internal/pkg/errors"
)

var validate = validator.New()

type rawTopic struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

type rawChapter struct {
	Title  string     `json:"title" validate:"required"`
	Topics []rawTopic `json:"topics" validate:"min=1,dive"`
}

type rawOutline struct {
	Title    string       `json:"title" validate:"required"`
	Summary  string       `json:"summary"`
	Chapters []rawChapter `json:"chapters" validate:"min=1,dive"`
}

type rawQuiz struct {
	Questions []rawQuestion `json:"questions"`
}

type rawQuestion struct {
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	Explanation        string   `json:"explanation"`
}

// decodeInto re-encodes a loosely typed model response into out.
func decodeInto(op string, obj map[string]any, out any) error {
	raw, err := json.Marshal(obj)
	if err != nil {
		return apperr.New(apperr.KindSchemaValidation, op+": response not encodable", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.New(apperr.KindSchemaValidation, op+": response does not match schema", err)
	}
	return nil
}

func checkStruct(op string, v any) error {
	if err := validate.Struct(v); err != nil {
		return apperr.New(apperr.KindSchemaValidation, op+": response failed validation", err)
	}
	return nil
}

// cleanStrings trims every entry and drops the blank ones.
func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// repairOutline trims text and drops untitled topics and chapters left without topics.
func repairOutline(o *rawOutline) {
	o.Title = strings.TrimSpace(o.Title)
	o.Summary = strings.TrimSpace(o.Summary)
	chapters := o.Chapters[:0]
	for _, ch := range o.Chapters {
		ch.Title = strings.TrimSpace(ch.Title)
		topics := ch.Topics[:0]
		for _, t := range ch.Topics {
			t.Title = strings.TrimSpace(t.Title)
			t.Description = strings.TrimSpace(t.Description)
			if t.Title != "" {
				topics = append(topics, t)
			}
		}
		ch.Topics = topics
		if len(ch.Topics) > 0 {
			if ch.Title == "" {
				ch.Title = ch.Topics[0].Title
			}
			chapters = append(chapters, ch)
		}
	}
	o.Chapters = chapters
}
