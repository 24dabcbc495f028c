package course

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CourseState is the persisted {outline, document?, persona} bundle of one user.
type CourseState struct {
	UserID       uuid.UUID      `gorm:"primaryKey;column:user_id" json:"user_id"`
	Outline      datatypes.JSON `gorm:"column:outline" json:"outline"`
	Persona      datatypes.JSON `gorm:"column:persona" json:"persona"`
	Document     []byte         `gorm:"column:document" json:"-"`
	DocumentName string         `gorm:"column:document_name" json:"document_name"`
	DocumentMime string         `gorm:"column:document_mime" json:"document_mime"`
	Quiz         datatypes.JSON `gorm:"column:quiz" json:"quiz"`
	UpdatedAt    time.Time      `gorm:"not null;column:updated_at" json:"updated_at"`
}

func (CourseState) TableName() string { return "course_state" }

// FeedbackLog is the persisted append-only feedback list of one user.
type FeedbackLog struct {
	UserID    uuid.UUID      `gorm:"primaryKey;column:user_id" json:"user_id"`
	Entries   datatypes.JSON `gorm:"column:entries" json:"entries"`
	UpdatedAt time.Time      `gorm:"not null;column:updated_at" json:"updated_at"`
}

func (FeedbackLog) TableName() string { return "feedback_log" }

// PendingQuiz is a generated quiz awaiting its single submission.
type PendingQuiz struct {
	TopicID   string         `json:"topicId"`
	Questions []QuizQuestion `json:"questions"`
}

// Snapshot is the decoded form of CourseState. Document is nil when it was not
// retained, Quiz is nil when no quiz is awaiting answers.
type Snapshot struct {
	Outline  *CourseOutline
	Persona  TutorPersona
	Document *Document
	Quiz     *PendingQuiz
}
