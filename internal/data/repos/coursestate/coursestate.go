package coursestate

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/coursecast-backend/internal/domain/course"
	"github.com/yungbote/coursecast-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/coursecast-backend/internal/pkg/errors"
	"github.com/yungbote/coursecast-backend/internal/pkg/logger"
)

// DefaultMaxDocumentBytes is the persisted-document quota.
const DefaultMaxDocumentBytes = 5 << 20

type CourseStateRepo interface {
	// Save writes the full snapshot, replacing whatever was stored. A document over the
	// quota is dropped silently; documentKept reports whether it was stored.
	Save(dbc dbctx.Context, userID uuid.UUID, snap course.Snapshot) (documentKept bool, err error)
	Get(dbc dbctx.Context, userID uuid.UUID) (*course.Snapshot, error)
}

type courseStateRepo struct {
	db          *gorm.DB
	log         *logger.Logger
	maxDocBytes int
}

func NewCourseStateRepo(db *gorm.DB, baseLog *logger.Logger, maxDocBytes int) CourseStateRepo {
	if maxDocBytes <= 0 {
		maxDocBytes = DefaultMaxDocumentBytes
	}
	return &courseStateRepo{db: db, log: baseLog.With("repo", "CourseStateRepo"), maxDocBytes: maxDocBytes}
}

func (r *courseStateRepo) Save(dbc dbctx.Context, userID uuid.UUID, snap course.Snapshot) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return false, apperr.ErrInvalidArgument
	}

	outline, err := json.Marshal(snap.Outline)
	if err != nil {
		return false, fmt.Errorf("encode outline: %w", err)
	}
	persona, err := json.Marshal(snap.Persona)
	if err != nil {
		return false, fmt.Errorf("encode persona: %w", err)
	}

	quiz, err := json.Marshal(snap.Quiz)
	if err != nil {
		return false, fmt.Errorf("encode quiz: %w", err)
	}

	row := &course.CourseState{
		UserID:    userID,
		Outline:   datatypes.JSON(outline),
		Persona:   datatypes.JSON(persona),
		Quiz:      datatypes.JSON(quiz),
		UpdatedAt: time.Now().UTC(),
	}
	kept := false
	if !snap.Document.Empty() {
		if len(snap.Document.Data) <= r.maxDocBytes {
			row.Document = snap.Document.Data
			row.DocumentName = snap.Document.Name
			row.DocumentMime = snap.Document.MimeType
			kept = true
		} else {
			r.log.Warn("Document exceeds storage quota, keeping outline only",
				"user_id", userID, "bytes", len(snap.Document.Data), "quota", r.maxDocBytes)
		}
	}

	err = t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"outline",
				"persona",
				"document",
				"document_name",
				"document_mime",
				"quiz",
				"updated_at",
			}),
		}).
		Create(row).Error
	if err != nil {
		return false, err
	}
	return kept, nil
}

func (r *courseStateRepo) Get(dbc dbctx.Context, userID uuid.UUID) (*course.Snapshot, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row course.CourseState
	err := t.WithContext(dbc.Ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	out := &course.Snapshot{Persona: course.DefaultPersona()}
	if len(row.Outline) > 0 && string(row.Outline) != "null" {
		var o course.CourseOutline
		if err := json.Unmarshal(row.Outline, &o); err != nil {
			return nil, fmt.Errorf("decode outline: %w", err)
		}
		out.Outline = &o
	}
	if len(row.Persona) > 0 && string(row.Persona) != "null" {
		if err := json.Unmarshal(row.Persona, &out.Persona); err != nil {
			return nil, fmt.Errorf("decode persona: %w", err)
		}
	}
	if len(row.Quiz) > 0 && string(row.Quiz) != "null" {
		var q course.PendingQuiz
		if err := json.Unmarshal(row.Quiz, &q); err != nil {
			return nil, fmt.Errorf("decode quiz: %w", err)
		}
		if len(q.Questions) > 0 {
			out.Quiz = &q
		}
	}
	if len(row.Document) > 0 {
		out.Document = &course.Document{Name: row.DocumentName, MimeType: row.DocumentMime, Data: row.Document}
	}
	return out, nil
}
