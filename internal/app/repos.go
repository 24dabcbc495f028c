package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursecast-backend/internal/data/repos"
	"github.com/yungbote/coursecast-backend/internal/pkg/logger"
)

type Repos struct {
	Profile     repos.ProfileRepo
	CourseState repos.CourseStateRepo
	Feedback    repos.FeedbackRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger, cfg Config) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Profile:     repos.NewProfileRepo(db, log),
		CourseState: repos.NewCourseStateRepo(db, log, cfg.StateDocumentMaxBytes),
		Feedback:    repos.NewFeedbackRepo(db, log),
	}
}
