package feedback

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

type FeedbackRepo interface {
	// Save replaces the stored log with entries.
	Save(dbc dbctx.Context, userID uuid.UUID, entries []course.FeedbackEntry) error
	// Get returns the stored log, empty when none exists.
	Get(dbc dbctx.Context, userID uuid.UUID) ([]course.FeedbackEntry, error)
}

type feedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) FeedbackRepo {
	return &feedbackRepo{db: db, log: baseLog.With("repo", "FeedbackRepo")}
}

func (r *feedbackRepo) Save(dbc dbctx.Context, userID uuid.UUID, entries []course.FeedbackEntry) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return apperr.ErrInvalidArgument
	}
	if entries == nil {
		entries = []course.FeedbackEntry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode feedback: %w", err)
	}
	row := &course.FeedbackLog{UserID: userID, Entries: datatypes.JSON(raw), UpdatedAt: time.Now().UTC()}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"entries", "updated_at"}),
		}).
		Create(row).Error
}

func (r *feedbackRepo) Get(dbc dbctx.Context, userID uuid.UUID) ([]course.FeedbackEntry, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row course.FeedbackLog
	err := t.WithContext(dbc.Ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []course.FeedbackEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	var out []course.FeedbackEntry
	if err := json.Unmarshal(row.Entries, &out); err != nil {
		return nil, fmt.Errorf("decode feedback: %w", err)
	}
	if out == nil {
		out = []course.FeedbackEntry{}
	}
	return out, nil
}
