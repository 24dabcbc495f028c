package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursecast-backend/internal/domain/course"
	"github.com/yungbote/coursecast-backend/internal/domain/user"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Root directory of known profiles
		&user.UserProfile{},

		// Per-user state
		&course.CourseState{},
		&course.FeedbackLog{},
	)
}
