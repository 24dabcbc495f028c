package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/coursecast-backend/internal/pkg/logger"
)

func String(name, def string, log *logger.Logger) string {
	v, ok := os.LookupEnv(name)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		debugDefault(log, name, def)
		return def
	}
	return v
}

func Int(name string, def int, log *logger.Logger) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		debugDefault(log, name, def)
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		if log != nil {
			log.Debug("Environment variable could not be parsed as int, using default", "env_var", name, "providedVal", v, "defaultVal", def)
		}
		return def
	}
	return i
}

func Bool(name string, def bool, log *logger.Logger) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		debugDefault(log, name, def)
		return def
	}
}

// Duration reads an integer count of unit from name.
func Duration(name string, def time.Duration, unit time.Duration, log *logger.Logger) time.Duration {
	n := Int(name, -1, log)
	if n < 0 {
		return def
	}
	return time.Duration(n) * unit
}

func debugDefault(log *logger.Logger, name string, def any) {
	if log != nil {
		log.Debug("Environment variable not found, using default", "env_var", name, "default", def)
	}
}
