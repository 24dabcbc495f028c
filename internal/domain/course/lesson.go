package course

import (
	"time"

	"github.com/yungbote/coursecast-backend/internal/media/store"
)

type LessonContent struct {
	Script       string   `json:"script" validate:"required"`
	VisualPrompt string   `json:"visualPrompt" validate:"required"`
	KeyPoints    []string `json:"keyPoints" validate:"min=1,dive,required"`
}

// LessonMedia holds the playable resources of one lesson. The handles are owned by
// whoever generated them and must be revoked once superseded.
type LessonMedia struct {
	Audio store.Handle `json:"audio"`
	Image store.Handle `json:"image"`
	// ImageDegraded is set when Image is the placeholder.
	ImageDegraded bool `json:"imageDegraded"`
	// AudioSeconds is the playback length of Audio.
	AudioSeconds float64 `json:"audioSeconds"`
}

type QuizQuestion struct {
	ID                 string   `json:"id"`
	Question           string   `json:"question" validate:"required"`
	Options            []string `json:"options" validate:"min=2,dive,required"`
	CorrectOptionIndex int      `json:"correctOptionIndex" validate:"gte=0"`
	Explanation        string   `json:"explanation"`
}

type FeedbackKind string

const (
	FeedbackLesson FeedbackKind = "lesson"
	FeedbackQuiz   FeedbackKind = "quiz"
)

type FeedbackEntry struct {
	ID         string       `json:"id"`
	TopicID    string       `json:"topicId"`
	TopicTitle string       `json:"topicTitle"`
	Kind       FeedbackKind `json:"kind"`
	Rating     int          `json:"rating"`
	Comment    string       `json:"comment"`
	Timestamp  time.Time    `json:"timestamp"`
}
