package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/coursecast-backend/internal/data/db"
	"github.com/yungbote/coursecast-backend/internal/domain/user"
	"github.com/yungbote/coursecast-backend/internal/pkg/dbctx"
	"github.com/yungbote/coursecast-backend/internal/pkg/logger"
)

var dbSeq atomic.Int64

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return logger.NewNop()
}

// DB returns a fresh, migrated in-memory sqlite database private to the test.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:coursecast_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrateAll(gdb); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func Ctx() dbctx.Context {
	return dbctx.Context{Ctx: context.Background()}
}

func SeedProfile(tb testing.TB, gdb *gorm.DB, name string) *user.UserProfile {
	tb.Helper()
	p := &user.UserProfile{ID: uuid.New(), DisplayName: name, AvatarColor: "#3366CC"}
	if err := gdb.Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}
