package profile

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursecast-backend/internal/domain/course"
	"github.com/yungbote/coursecast-backend/internal/domain/user"
	"github.com/yungbote/coursecast-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/coursecast-backend/internal/pkg/errors"
	"github.com/yungbote/coursecast-backend/internal/pkg/logger"
)

type ProfileRepo interface {
	Create(dbc dbctx.Context, p *user.UserProfile) (*user.UserProfile, error)
	List(dbc dbctx.Context) ([]*user.UserProfile, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*user.UserProfile, error)
	GetByDisplayName(dbc dbctx.Context, name string) (*user.UserProfile, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return &profileRepo{db: db, log: baseLog.With("repo", "ProfileRepo")}
}

func (r *profileRepo) Create(dbc dbctx.Context, p *user.UserProfile) (*user.UserProfile, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if p == nil {
		return nil, apperr.ErrInvalidArgument
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if err := t.WithContext(dbc.Ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// List returns every known profile, oldest first.
func (r *profileRepo) List(dbc dbctx.Context) ([]*user.UserProfile, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*user.UserProfile
	if err := t.WithContext(dbc.Ctx).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *profileRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*user.UserProfile, error) {
	return r.first(dbc, "id = ?", id)
}

func (r *profileRepo) GetByDisplayName(dbc dbctx.Context, name string) (*user.UserProfile, error) {
	return r.first(dbc, "display_name = ?", name)
}

func (r *profileRepo) first(dbc dbctx.Context, query string, arg any) (*user.UserProfile, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row user.UserProfile
	err := t.WithContext(dbc.Ctx).Where(query, arg).Order("created_at ASC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Delete removes the profile and all state keyed by it.
func (r *profileRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		for _, q := range []struct {
			model any
			col   string
		}{
			{&user.UserProfile{}, "id"},
			{&course.CourseState{}, "user_id"},
			{&course.FeedbackLog{}, "user_id"},
		} {
			if err := tx.Where(q.col+" = ?", id).Delete(q.model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
