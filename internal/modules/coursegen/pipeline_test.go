package coursegen

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/coursecast-backend/internal/clients/openai"
	"github.com/yungbote/coursecast-backend/internal/domain/course"
	"github.com/yungbote/coursecast-backend/internal/media/store"
	"github.com/yungbote/coursecast-backend/internal/media/wav"
	apperr "github.com/yungbote/coursecast-backend/internal/pkg/errors"
	"github.com/yungbote/coursecast-backend/internal/pkg/logger"
	"github.com/yungbote/coursecast-backend/internal/pkg/retry"
)

type fakeAI struct {
	mu       sync.Mutex
	requests []openai.JSONRequest
	voices   []string

	json   func(call int, req openai.JSONRequest) (map[string]any, error)
	image  func(prompt string) (openai.ImageGeneration, error)
	speech func(text, voice string) (openai.SpeechGeneration, error)
}

func (f *fakeAI) GenerateJSON(_ context.Context, req openai.JSONRequest) (map[string]any, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	call := len(f.requests)
	f.mu.Unlock()
	return f.json(call, req)
}

func (f *fakeAI) GenerateImage(_ context.Context, prompt string) (openai.ImageGeneration, error) {
	if f.image == nil {
		return openai.ImageGeneration{}, openai.ErrNoImage
	}
	return f.image(prompt)
}

func (f *fakeAI) GenerateSpeech(_ context.Context, text, voice, _ string) (openai.SpeechGeneration, error) {
	f.mu.Lock()
	f.voices = append(f.voices, voice)
	f.mu.Unlock()
	return f.speech(text, voice)
}

type httpErr int

func (e httpErr) Error() string       { return http.StatusText(int(e)) }
func (e httpErr) HTTPStatusCode() int { return int(e) }

var testDoc = &course.Document{Name: "notes.pdf", MimeType: "application/pdf", Data: []byte("%PDF-1.7 body")}

func newTestPipeline(t *testing.T, ai *fakeAI) (Pipeline, store.Store, *[]time.Duration) {
	t.Helper()
	var delays []time.Duration
	caller := retry.New(logger.NewNop(), retry.Options{
		MaxRetries: 2,
		BaseDelay:  10 * time.Millisecond,
		Sleep: func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
	})
	media := store.NewMemoryStore()
	p, err := New(logger.NewNop(), ai, media, caller, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p, media, &delays
}

func structureResponse() map[string]any {
	return map[string]any{
		"title":   " Biology 101 ",
		"summary": "Cells and energy.",
		"chapters": []any{
			map[string]any{"title": "Cells", "topics": []any{
				map[string]any{"title": "Membranes", "description": "d"},
				map[string]any{"title": "  ", "description": "blank"},
				map[string]any{"title": "Organelles", "description": "d"},
			}},
			map[string]any{"title": "Empty", "topics": []any{}},
			map[string]any{"title": "Energy", "topics": []any{
				map[string]any{"title": "Photosynthesis", "description": "d"},
			}},
		},
	}
}

func TestAnalyzeStructure_AssignsIDsAndLocks(t *testing.T) {
	ai := &fakeAI{json: func(int, openai.JSONRequest) (map[string]any, error) { return structureResponse(), nil }}
	p, _, _ := newTestPipeline(t, ai)

	o, err := p.AnalyzeStructure(context.Background(), testDoc)
	if err != nil {
		t.Fatalf("AnalyzeStructure: %v", err)
	}
	if o.Title != "Biology 101" || len(o.Chapters) != 2 {
		t.Fatalf("unexpected outline %+v", o)
	}
	if o.Chapters[0].ID != "ch-0" || o.Chapters[1].ID != "ch-1" {
		t.Fatalf("unexpected chapter ids")
	}
	wantIDs := []string{"topic-0", "topic-1", "topic-2"}
	for i, ref := range o.Flatten() {
		tp := o.Topic(ref)
		if tp.ID != wantIDs[i] {
			t.Fatalf("topic %d: expected id %s got %s", i, wantIDs[i], tp.ID)
		}
		if tp.Completed || tp.Locked != (i != 0) {
			t.Fatalf("topic %d: unexpected flags %+v", i, tp)
		}
	}

	req := ai.requests[0]
	if req.Document == nil || string(req.Document.Data) != string(testDoc.Data) {
		t.Fatalf("document not attached")
	}
	if req.SchemaName != "course_structure" {
		t.Fatalf("unexpected schema %s", req.SchemaName)
	}
}

func TestAnalyzeStructure_RetriesTransientFailures(t *testing.T) {
	ai := &fakeAI{json: func(call int, _ openai.JSONRequest) (map[string]any, error) {
		if call <= 2 {
			return nil, httpErr(http.StatusServiceUnavailable)
		}
		return structureResponse(), nil
	}}
	p, _, delays := newTestPipeline(t, ai)

	if _, err := p.AnalyzeStructure(context.Background(), testDoc); err != nil {
		t.Fatalf("AnalyzeStructure: %v", err)
	}
	if len(ai.requests) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(ai.requests))
	}
	if len(*delays) != 2 || (*delays)[1] != 2*(*delays)[0] {
		t.Fatalf("expected doubling delays, got %v", *delays)
	}
}

func TestAnalyzeStructure_ErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name     string
		doc      *course.Document
		respond  func(int, openai.JSONRequest) (map[string]any, error)
		want     apperr.Kind
		attempts int
	}{
		{
			name:     "bad request means unreadable",
			doc:      testDoc,
			respond:  func(int, openai.JSONRequest) (map[string]any, error) { return nil, httpErr(http.StatusBadRequest) },
			want:     apperr.KindUnreadableDocument,
			attempts: 1,
		},
		{
			name:     "413 means too large",
			doc:      testDoc,
			respond:  func(int, openai.JSONRequest) (map[string]any, error) { return nil, httpErr(http.StatusRequestEntityTooLarge) },
			want:     apperr.KindPayloadTooLarge,
			attempts: 1,
		},
		{
			name:     "exhausted retries surface as transient",
			doc:      testDoc,
			respond:  func(int, openai.JSONRequest) (map[string]any, error) { return nil, httpErr(http.StatusBadGateway) },
			want:     apperr.KindTransient,
			attempts: 3,
		},
		{
			name: "wrong shape is a schema error",
			doc:  testDoc,
			respond: func(int, openai.JSONRequest) (map[string]any, error) {
				return map[string]any{"title": "x", "chapters": "nope"}, nil
			},
			want:     apperr.KindSchemaValidation,
			attempts: 1,
		},
		{
			name: "no topics means unreadable",
			doc:  testDoc,
			respond: func(int, openai.JSONRequest) (map[string]any, error) {
				return map[string]any{"title": "x", "summary": "", "chapters": []any{}}, nil
			},
			want:     apperr.KindUnreadableDocument,
			attempts: 1,
		},
		{
			name:     "empty document never reaches the service",
			doc:      &course.Document{Name: "empty.pdf"},
			respond:  func(int, openai.JSONRequest) (map[string]any, error) { return structureResponse(), nil },
			want:     apperr.KindUnreadableDocument,
			attempts: 0,
		},
	}
	for _, tc := range cases {
		ai := &fakeAI{json: tc.respond}
		p, _, _ := newTestPipeline(t, ai)
		_, err := p.AnalyzeStructure(context.Background(), tc.doc)
		if !apperr.IsKind(err, tc.want) {
			t.Fatalf("%s: expected %s, got %v", tc.name, tc.want, err)
		}
		if len(ai.requests) != tc.attempts {
			t.Fatalf("%s: expected %d attempts, got %d", tc.name, tc.attempts, len(ai.requests))
		}
	}
}

func TestGenerateLesson_PersonaDrivesPrompt(t *testing.T) {
	ai := &fakeAI{json: func(int, openai.JSONRequest) (map[string]any, error) {
		return map[string]any{
			"script":       " Hi, I'm Amara. Today we look at membranes. ",
			"visualPrompt": "An African female tutor named Amara",
			"keyPoints":    []any{"one", " ", "two", "three", "four", "five", "six"},
		}, nil
	}}
	p, _, _ := newTestPipeline(t, ai)

	tutor := course.TutorPersona{Region: course.RegionAfrican, Gender: course.GenderFemale, Name: "Amara"}
	lesson, err := p.GenerateLesson(context.Background(), "Membranes", testDoc, tutor)
	if err != nil {
		t.Fatalf("GenerateLesson: %v", err)
	}
	if !strings.HasPrefix(lesson.Script, "Hi, I'm Amara") {
		t.Fatalf("script not trimmed: %q", lesson.Script)
	}
	if len(lesson.KeyPoints) != 5 || lesson.KeyPoints[1] != "two" {
		t.Fatalf("unexpected key points %v", lesson.KeyPoints)
	}

	req := ai.requests[0]
	if !strings.Contains(req.System, "You are Amara") || !strings.Contains(req.System, "story-driven") {
		t.Fatalf("system prompt lacks persona/style: %q", req.System)
	}
	if !strings.Contains(req.User, "African Female tutor named Amara") {
		t.Fatalf("user prompt lacks avatar description: %q", req.User)
	}
}

func TestGenerateLesson_UnknownRegionUsesConversationalStyle(t *testing.T) {
	ai := &fakeAI{json: func(int, openai.JSONRequest) (map[string]any, error) {
		return map[string]any{"script": "s", "visualPrompt": "v", "keyPoints": []any{"k"}}, nil
	}}
	p, _, _ := newTestPipeline(t, ai)

	_, err := p.GenerateLesson(context.Background(), "T", testDoc, course.TutorPersona{Region: "Lunar", Gender: course.GenderMale, Name: "Zed"})
	if err != nil {
		t.Fatalf("GenerateLesson: %v", err)
	}
	if !strings.Contains(ai.requests[0].System, "Conversational and enthusiastic") {
		t.Fatalf("expected conversational directive, got %q", ai.requests[0].System)
	}
}

func TestGenerateLesson_MissingScriptIsSchemaError(t *testing.T) {
	ai := &fakeAI{json: func(int, openai.JSONRequest) (map[string]any, error) {
		return map[string]any{"script": "  ", "visualPrompt": "v", "keyPoints": []any{"k"}}, nil
	}}
	p, _, _ := newTestPipeline(t, ai)
	_, err := p.GenerateLesson(context.Background(), "T", testDoc, course.DefaultPersona())
	if !apperr.IsKind(err, apperr.KindSchemaValidation) {
		t.Fatalf("expected schema validation error, got %v", err)
	}
}

func TestGenerateQuiz_RepairsQuestions(t *testing.T) {
	q := func(text string, opts []any, idx int) map[string]any {
		return map[string]any{"question": text, "options": opts, "correctOptionIndex": idx, "explanation": "because"}
	}
	abcd := []any{"a", "b", "c", "d"}
	ai := &fakeAI{json: func(_ int, req openai.JSONRequest) (map[string]any, error) {
		if !strings.Contains(req.User, "exactly 3") {
			t.Errorf("expected 3 questions requested: %q", req.User)
		}
		return map[string]any{"questions": []any{
			q("Q1", abcd, 0),
			q("bad index", abcd, 9),
			q("", abcd, 1),
			q("one option", []any{"a"}, 0),
			q("Q2", abcd, 3),
			q("Q3", abcd, 2),
			q("Q4", abcd, 1),
		}}, nil
	}}
	p, _, _ := newTestPipeline(t, ai)

	qs, err := p.GenerateQuiz(context.Background(), "Membranes", testDoc)
	if err != nil {
		t.Fatalf("GenerateQuiz: %v", err)
	}
	if len(qs) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(qs))
	}
	for i, want := range []string{"Q1", "Q2", "Q3"} {
		if qs[i].Question != want || qs[i].ID != "q-"+string(rune('0'+i)) {
			t.Fatalf("question %d: unexpected %+v", i, qs[i])
		}
	}
}

func TestGenerateQuiz_RejectsShortQuizzes(t *testing.T) {
	q := func(text string) map[string]any {
		return map[string]any{"question": text, "options": []any{"a", "b"}, "correctOptionIndex": 1, "explanation": "because"}
	}
	for name, questions := range map[string][]any{
		"none": {},
		"one":  {q("Q1")},
		"two":  {q("Q1"), q("Q2"), map[string]any{"question": "", "options": []any{"a", "b"}, "correctOptionIndex": 0}},
	} {
		ai := &fakeAI{json: func(int, openai.JSONRequest) (map[string]any, error) {
			return map[string]any{"questions": questions}, nil
		}}
		p, _, _ := newTestPipeline(t, ai)
		if _, err := p.GenerateQuiz(context.Background(), "T", testDoc); !apperr.IsKind(err, apperr.KindSchemaValidation) {
			t.Fatalf("%s: expected schema validation error, got %v", name, err)
		}
		if n := len(ai.requests); n != 1 {
			t.Fatalf("%s: short quiz must not be retried, got %d requests", name, n)
		}
	}
}

func TestSynthesizeSpeech_WrapsPCMInWav(t *testing.T) {
	pcm := make([]byte, 48000)
	pcm[10] = 7
	ai := &fakeAI{speech: func(string, string) (openai.SpeechGeneration, error) {
		return openai.SpeechGeneration{PCM: pcm, SampleRate: 24000}, nil
	}}
	p, media, _ := newTestPipeline(t, ai)

	tutor := course.TutorPersona{Region: course.RegionEuropean, Gender: course.GenderMale, Name: "Hans"}
	h, secs, err := p.SynthesizeSpeech(context.Background(), "hello", tutor)
	if err != nil {
		t.Fatalf("SynthesizeSpeech: %v", err)
	}
	if ai.voices[0] != "fable" {
		t.Fatalf("expected fable voice, got %s", ai.voices[0])
	}
	if secs != 1 || h.MimeType != wav.MimeType {
		t.Fatalf("unexpected handle %+v secs=%v", h, secs)
	}
	data, _, err := media.Open(context.Background(), h.Key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, rate, err := wav.Decode(data)
	if err != nil || rate != 24000 || len(got) != len(pcm) || got[10] != 7 {
		t.Fatalf("stored audio does not round trip: rate=%d err=%v", rate, err)
	}
}

func TestSynthesizeSpeech_FailurePropagates(t *testing.T) {
	ai := &fakeAI{speech: func(string, string) (openai.SpeechGeneration, error) {
		return openai.SpeechGeneration{}, httpErr(http.StatusUnauthorized)
	}}
	p, _, _ := newTestPipeline(t, ai)
	_, _, err := p.SynthesizeSpeech(context.Background(), "hello", course.DefaultPersona())
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(ai.voices) != 1 {
		t.Fatalf("non-transient failure must not be retried")
	}
}

func TestSynthesizeImage_DegradesToPlaceholder(t *testing.T) {
	ai := &fakeAI{image: func(string) (openai.ImageGeneration, error) {
		return openai.ImageGeneration{}, errors.New("content policy")
	}}
	p, media, _ := newTestPipeline(t, ai)

	h, degraded := p.SynthesizeImage(context.Background(), "a tutor")
	if !degraded || h.IsZero() || h.MimeType != "image/png" {
		t.Fatalf("expected placeholder handle, got %+v degraded=%v", h, degraded)
	}
	if _, _, err := media.Open(context.Background(), h.Key); err != nil {
		t.Fatalf("placeholder not stored: %v", err)
	}

	ai.image = func(string) (openai.ImageGeneration, error) {
		return openai.ImageGeneration{Bytes: []byte("not an image"), MimeType: "image/jpeg"}, nil
	}
	if _, degraded = p.SynthesizeImage(context.Background(), "a tutor"); !degraded {
		t.Fatalf("expected undecodable image to degrade")
	}

	ai.image = func(string) (openai.ImageGeneration, error) {
		return openai.ImageGeneration{Bytes: testPNG(t, 40, 30), MimeType: "image/png"}, nil
	}
	h, degraded = p.SynthesizeImage(context.Background(), "a tutor")
	if degraded || h.MimeType != "image/png" {
		t.Fatalf("expected generated image, got %+v degraded=%v", h, degraded)
	}
	raw, _, err := media.Open(context.Background(), h.Key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 1024 || img.Bounds().Dy() != 576 {
		t.Fatalf("expected image fitted to the lesson frame, got %v", img.Bounds())
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestBuildLessonMedia_RunsBothAndCleansUpOnSpeechFailure(t *testing.T) {
	ai := &fakeAI{
		image: func(string) (openai.ImageGeneration, error) {
			return openai.ImageGeneration{Bytes: testPNG(t, 8, 8), MimeType: "image/png"}, nil
		},
		speech: func(string, string) (openai.SpeechGeneration, error) {
			return openai.SpeechGeneration{PCM: []byte{0, 0}, SampleRate: 24000}, nil
		},
	}
	p, media, _ := newTestPipeline(t, ai)
	lesson := &course.LessonContent{Script: "s", VisualPrompt: "v", KeyPoints: []string{"k"}}

	m, err := p.BuildLessonMedia(context.Background(), lesson, course.DefaultPersona())
	if err != nil {
		t.Fatalf("BuildLessonMedia: %v", err)
	}
	if m.Audio.IsZero() || m.Image.IsZero() || m.ImageDegraded {
		t.Fatalf("unexpected media %+v", m)
	}

	ai.image = func(string) (openai.ImageGeneration, error) {
		return openai.ImageGeneration{Bytes: testPNG(t, 16, 9), MimeType: "image/png"}, nil
	}
	ai.speech = func(string, string) (openai.SpeechGeneration, error) {
		return openai.SpeechGeneration{}, httpErr(http.StatusForbidden)
	}
	rec := &recordingStore{Store: media}
	p2, err := New(logger.NewNop(), ai, rec, retry.New(logger.NewNop(), retry.Options{}), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p2.BuildLessonMedia(context.Background(), lesson, course.DefaultPersona()); err == nil {
		t.Fatalf("expected speech failure to propagate")
	}
	if len(rec.puts) != 1 {
		t.Fatalf("expected only the image to be stored, got %d puts", len(rec.puts))
	}
	if _, _, err := media.Open(context.Background(), rec.puts[0]); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected orphaned image to be revoked, got %v", err)
	}
	for _, k := range []string{m.Audio.Key, m.Image.Key} {
		if _, _, err := media.Open(context.Background(), k); err != nil {
			t.Fatalf("expected %s to remain: %v", k, err)
		}
	}
}

type recordingStore struct {
	store.Store
	mu   sync.Mutex
	puts []string
}

func (r *recordingStore) Put(ctx context.Context, mimeType string, data []byte) (store.Handle, error) {
	h, err := r.Store.Put(ctx, mimeType, data)
	if err == nil {
		r.mu.Lock()
		r.puts = append(r.puts, h.Key)
		r.mu.Unlock()
	}
	return h, err
}
