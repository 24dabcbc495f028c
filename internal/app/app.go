package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursecast-backend/internal/data/db"
	"github.com/yungbote/coursecast-backend/internal/domain/user"
	"github.com/yungbote/coursecast-backend/internal/learning/persona"
	"github.com/yungbote/coursecast-backend/internal/media/imaging"
	"github.com/yungbote/coursecast-backend/internal/modules/coursegen"
	"github.com/yungbote/coursecast-backend/internal/observability"
	"github.com/yungbote/coursecast-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/coursecast-backend/internal/pkg/errors"
	"github.com/yungbote/coursecast-backend/internal/pkg/logger"
	"github.com/yungbote/coursecast-backend/internal/pkg/retry"
	"github.com/yungbote/coursecast-backend/internal/session"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Pipeline coursegen.Pipeline

	dbService    *db.Service
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	envFile, envErr := loadEnvFile(os.Getenv("ENV_FILE"))

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.NewWithOptions(logger.Options{Mode: logMode, File: os.Getenv("LOG_FILE")})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	switch {
	case envErr != nil:
		log.Warn("Environment file not loaded", "path", envFile, "error", envErr)
	case envFile != "":
		log.Info("Environment file loaded", "path", envFile)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	shutdown := observability.InitOTel(ctx, log, cfg.Otel)

	dbs, err := db.Open(cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(dbs.DB()); err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, fmt.Errorf("database automigrate: %w", err)
	}

	reposet := wireRepos(dbs.DB(), log, cfg)

	clientset, err := wireClients(ctx, log, cfg)
	if err != nil {
		log.Error("Client wiring failed", "error", err)
		_ = dbs.Close()
		log.Sync()
		return nil, err
	}

	caller := retry.New(log, retry.Options{MaxRetries: cfg.RetryMax, BaseDelay: cfg.RetryBaseDelay, Jitter: true})
	pipeline, err := coursegen.New(log, clientset.OpenAI, clientset.Media, caller, persona.Default())
	if err != nil {
		clientset.Close()
		_ = dbs.Close()
		log.Sync()
		return nil, fmt.Errorf("init pipeline: %w", err)
	}

	return &App{
		Log:          log,
		DB:           dbs.DB(),
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clientset,
		Pipeline:     pipeline,
		dbService:    dbs,
		otelShutdown: shutdown,
	}, nil
}

// EnsureProfile returns the profile named displayName, creating it with a rendered
// initials avatar when it does not exist yet.
func (a *App) EnsureProfile(ctx context.Context, displayName string) (*user.UserProfile, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, fmt.Errorf("display name required: %w", apperr.ErrInvalidArgument)
	}
	dbc := dbctx.Context{Ctx: ctx}
	p, err := a.Repos.Profile.GetByDisplayName(dbc, displayName)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	color := imaging.ColorFor(displayName)
	avatar, err := imaging.Avatar(displayName, color)
	if err != nil {
		a.Log.Warn("Avatar render failed", "error", err)
	}
	p, err = a.Repos.Profile.Create(dbc, &user.UserProfile{
		ID:          uuid.New(),
		DisplayName: displayName,
		AvatarColor: color,
		Avatar:      avatar,
	})
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	a.Log.Info("Profile created", "user_id", p.ID.String())
	return p, nil
}

func (a *App) OpenSession(ctx context.Context, userID uuid.UUID) (*session.Session, error) {
	return session.Open(ctx, session.Deps{
		Log:      a.Log,
		Pipeline: a.Pipeline,
		Media:    a.Clients.Media,
		Profiles: a.Repos.Profile,
		States:   a.Repos.CourseState,
		Feedback: a.Repos.Feedback,
	}, userID)
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil && a.Log != nil {
			a.Log.Warn("Tracer shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
