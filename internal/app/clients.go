package app

import (
	"context"
	"fmt"

	"github.com/yungbote/coursecast-backend/internal/clients/openai"
	"github.com/yungbote/coursecast-backend/internal/media/store"
	"github.com/yungbote/coursecast-backend/internal/pkg/logger"
)

type Clients struct {
	OpenAI openai.Client
	Media  store.Store
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	ai, err := openai.NewClient(log, openai.Config{
		APIKey:           cfg.OpenAIAPIKey,
		BaseURL:          cfg.OpenAIBaseURL,
		Model:            cfg.OpenAIModel,
		ImageModel:       cfg.OpenAIImageModel,
		ImageSize:        cfg.OpenAIImageSize,
		SpeechModel:      cfg.OpenAISpeechModel,
		Timeout:          cfg.OpenAITimeout,
		MaxDocumentBytes: cfg.DocumentMaxBytes,

		RequestsPerMinute: cfg.OpenAIRPM,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	media, err := resolveMediaStore(ctx, log, cfg)
	if err != nil {
		return Clients{}, err
	}

	return Clients{OpenAI: ai, Media: media}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Media != nil {
		_ = c.Media.Close()
	}
}
