package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursecast-backend/internal/data/repos/coursestate"
	"github.com/yungbote/coursecast-backend/internal/data/repos/feedback"
	"github.com/yungbote/coursecast-backend/internal/data/repos/profile"
	"github.com/yungbote/coursecast-backend/internal/pkg/logger"
)

type ProfileRepo = profile.ProfileRepo
type CourseStateRepo = coursestate.CourseStateRepo
type FeedbackRepo = feedback.FeedbackRepo

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return profile.NewProfileRepo(db, baseLog)
}
func NewCourseStateRepo(db *gorm.DB, baseLog *logger.Logger, maxDocBytes int) CourseStateRepo {
	return coursestate.NewCourseStateRepo(db, baseLog, maxDocBytes)
}
func NewFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) FeedbackRepo {
	return feedback.NewFeedbackRepo(db, baseLog)
}
