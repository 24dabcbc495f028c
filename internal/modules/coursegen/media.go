package coursegen

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/coursecast-backend/internal/clients/openai"
	"github.com/yungbote/coursecast-backend/internal/domain/course"
	"github.com/yungbote/coursecast-backend/internal/media/imaging"
	"github.com/yungbote/coursecast-backend/internal/media/store"
	"github.com/yungbote/coursecast-backend/internal/media/wav"
	"github.com/yungbote/coursecast-backend/internal/observability"
	"github.com/yungbote/coursecast-backend/internal/pkg/retry"
)

func (p *pipeline) SynthesizeSpeech(ctx context.Context, script string, tutor course.TutorPersona) (h store.Handle, seconds float64, err error) {
	const op = "SynthesizeSpeech"
	voice := p.tables.Voice(tutor)
	ctx, finish := observability.StartSpan(ctx, "coursegen."+op, attribute.String("voice", voice))
	defer func() { finish(err) }()

	instructions := p.tables.Style(tutor.Region).Directive
	speech, err := retry.Do(ctx, p.caller, op, func(ctx context.Context) (openai.SpeechGeneration, error) {
		return p.ai.GenerateSpeech(ctx, script, voice, instructions)
	})
	if err != nil {
		p.log.Warn("Speech synthesis failed", "voice", voice, "error", err)
		return store.Handle{}, 0, classify(op, err, false)
	}

	container := wav.Encode(speech.PCM, speech.SampleRate)
	h, err = p.media.Put(ctx, wav.MimeType, container)
	if err != nil {
		return store.Handle{}, 0, fmt.Errorf("%s: store audio: %w", op, err)
	}
	return h, wav.Duration(len(speech.PCM), speech.SampleRate), nil
}

func (p *pipeline) SynthesizeImage(ctx context.Context, prompt string) (store.Handle, bool) {
	const op = "SynthesizeImage"
	ctx, finish := observability.StartSpan(ctx, "coursegen."+op)
	defer finish(nil)

	img, err := p.ai.GenerateImage(ctx, prompt)
	if err == nil && len(img.Bytes) == 0 {
		err = openai.ErrNoImage
	}
	if err == nil {
		var framed []byte
		if framed, err = imaging.FitLessonFrame(img.Bytes); err == nil {
			h, putErr := p.media.Put(ctx, imaging.PNGMime, framed)
			if putErr == nil {
				return h, false
			}
			err = putErr
		}
	}
	p.log.Warn("Image synthesis degraded to placeholder", "error", err)

	ph, phErr := p.placeholderPNG()
	if phErr != nil {
		p.log.Error("Placeholder render failed", "error", phErr)
		return store.Handle{}, true
	}
	h, putErr := p.media.Put(ctx, imaging.PNGMime, ph)
	if putErr != nil {
		p.log.Error("Placeholder store failed", "error", putErr)
		return store.Handle{}, true
	}
	return h, true
}

func (p *pipeline) BuildLessonMedia(ctx context.Context, lesson *course.LessonContent, tutor course.TutorPersona) (course.LessonMedia, error) {
	var media course.LessonMedia
	if lesson == nil {
		return media, errors.New("lesson required")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, secs, err := p.SynthesizeSpeech(gctx, lesson.Script, tutor)
		if err != nil {
			return err
		}
		media.Audio = h
		media.AudioSeconds = secs
		return nil
	})
	g.Go(func() error {
		// Independent of gctx so a speech failure does not masquerade as an image failure.
		media.Image, media.ImageDegraded = p.SynthesizeImage(ctx, lesson.VisualPrompt)
		return nil
	})

	if err := g.Wait(); err != nil {
		if !media.Image.IsZero() {
			_ = p.media.Revoke(context.WithoutCancel(ctx), media.Image.Key)
		}
		return course.LessonMedia{}, err
	}
	return media, nil
}
