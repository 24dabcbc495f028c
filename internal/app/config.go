package app

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/coursecast-backend/internal/data/db"
	"github.com/yungbote/coursecast-backend/internal/observability"
	"github.com/yungbote/coursecast-backend/internal/platform/envutil"
	"github.com/yungbote/coursecast-backend/internal/pkg/logger"
)

type Config struct {
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAIImageModel  string
	OpenAIImageSize   string
	OpenAISpeechModel string
	OpenAITimeout     time.Duration
	OpenAIRPM         int

	RetryMax       int
	RetryBaseDelay time.Duration

	DBDriver string
	DBDSN    string

	DocumentMaxBytes      int
	StateDocumentMaxBytes int

	MediaStore  string
	RedisAddr   string
	RedisPrefix string
	MediaTTL    time.Duration

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	Otel observability.OtelConfig
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		OpenAIAPIKey:      envutil.String("OPENAI_API_KEY", "", log),
		OpenAIBaseURL:     envutil.String("OPENAI_BASE_URL", "https://api.openai.com", log),
		OpenAIModel:       envutil.String("OPENAI_MODEL", "gpt-4.1-mini", log),
		OpenAIImageModel:  envutil.String("OPENAI_IMAGE_MODEL", "gpt-image-1", log),
		OpenAIImageSize:   envutil.String("OPENAI_IMAGE_SIZE", "1536x1024", log),
		OpenAISpeechModel: envutil.String("OPENAI_TTS_MODEL", "gpt-4o-mini-tts", log),
		OpenAITimeout:     envutil.Duration("OPENAI_TIMEOUT_SECONDS", 120*time.Second, time.Second, log),
		OpenAIRPM:         envutil.Int("OPENAI_REQUESTS_PER_MINUTE", 0, log),

		RetryMax:       envutil.Int("RETRY_MAX", 2, log),
		RetryBaseDelay: envutil.Duration("RETRY_BASE_DELAY_MS", time.Second, time.Millisecond, log),

		DBDriver: envutil.String("DB_DRIVER", db.DriverSQLite, log),
		DBDSN:    envutil.String("DB_DSN", "coursecast.db", log),

		DocumentMaxBytes:      envutil.Int("DOCUMENT_MAX_BYTES", 4<<20, log),
		StateDocumentMaxBytes: envutil.Int("STATE_DOCUMENT_MAX_BYTES", 5<<20, log),

		MediaStore:  envutil.String("MEDIA_STORE", MediaStoreMemory, log),
		RedisAddr:   envutil.String("REDIS_ADDR", "", log),
		RedisPrefix: envutil.String("REDIS_MEDIA_PREFIX", "coursecast:media:", log),
		MediaTTL:    envutil.Duration("MEDIA_TTL_SECONDS", time.Hour, time.Second, log),

		MinioEndpoint:  envutil.String("MINIO_ENDPOINT", "", log),
		MinioAccessKey: envutil.String("MINIO_ACCESS_KEY", "", log),
		MinioSecretKey: envutil.String("MINIO_SECRET_KEY", "", log),
		MinioBucket:    envutil.String("MINIO_BUCKET", "coursecast-media", log),
		MinioUseSSL:    envutil.Bool("MINIO_USE_SSL", false, log),

		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "coursecast", log),
			Environment: envutil.String("OTEL_ENVIRONMENT", "development", log),
			Version:     envutil.String("OTEL_SERVICE_VERSION", "dev", log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", log),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
			SampleRatio: observability.ParseRatio(envutil.String("OTEL_TRACES_SAMPLER_ARG", "0.1", log)),
		},
	}
}

// loadEnvFile loads path (".env" when empty) into the process environment without
// overriding variables that are already set. A missing file is not an error; the
// returned path is empty when nothing was loaded.
func loadEnvFile(path string) (string, error) {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return path, err
	}
	return path, nil
}
