package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperr "github.com/yungbote/coursecast-backend/internal/pkg/errors"
	"github.com/yungbote/coursecast-backend/internal/pkg/httpx"
	"github.com/yungbote/coursecast-backend/internal/pkg/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc, maxDoc int) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(logger.NewNop(), Config{APIKey: "sk-test", BaseURL: srv.URL, MaxDocumentBytes: maxDoc})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func outputText(text string) map[string]any {
	return map[string]any{
		"output": []any{
			map[string]any{
				"type": "message",
				"role": "assistant",
				"content": []any{
					map[string]any{"type": "output_text", "text": text},
				},
			},
		},
	}
}

func TestGenerateJSON_AttachesDocumentAndSchema(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing auth header")
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		_ = json.NewEncoder(w).Encode(outputText(`{"title":"T"}`))
	}, 0)

	obj, err := c.GenerateJSON(context.Background(), JSONRequest{
		System:     "sys",
		User:       "usr",
		Document:   &DocumentInput{Filename: "a.pdf", MimeType: "application/pdf", Data: []byte("%PDF-1.4")},
		SchemaName: "s",
		Schema:     map[string]any{"type": "object"},
	})
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if obj["title"] != "T" {
		t.Fatalf("unexpected result %v", obj)
	}

	input := got["input"].([]any)
	user := input[1].(map[string]any)
	content := user["content"].([]any)
	file := content[0].(map[string]any)
	wantData := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF-1.4"))
	if file["type"] != "input_file" || file["file_data"] != wantData {
		t.Fatalf("unexpected file part %v", file)
	}
	format := got["text"].(map[string]any)["format"].(map[string]any)
	if format["type"] != "json_schema" || format["strict"] != true {
		t.Fatalf("unexpected format %v", format)
	}
}

func TestGenerateJSON_ClassifiesFailures(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(outputText("not json"))
	}, 4)

	_, err := c.GenerateJSON(context.Background(), JSONRequest{User: "u", SchemaName: "s", Schema: map[string]any{}})
	if !apperr.IsKind(err, apperr.KindSchemaValidation) {
		t.Fatalf("expected schema validation error, got %v", err)
	}

	_, err = c.GenerateJSON(context.Background(), JSONRequest{
		User: "u", SchemaName: "s", Schema: map[string]any{},
		Document: &DocumentInput{Data: []byte("12345")},
	})
	if !apperr.IsKind(err, apperr.KindPayloadTooLarge) {
		t.Fatalf("expected payload too large, got %v", err)
	}

	_, err = c.GenerateJSON(context.Background(), JSONRequest{
		User: "u", SchemaName: "s", Schema: map[string]any{},
		Document: &DocumentInput{},
	})
	if !apperr.IsKind(err, apperr.KindUnreadableDocument) {
		t.Fatalf("expected unreadable document, got %v", err)
	}
}

func TestHTTPErrorCarriesStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}, 0)
	_, err := c.GenerateImage(context.Background(), "a cat")
	if httpx.StatusCode(err) != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 status, got %v", err)
	}
	if !httpx.IsRetryableError(err) {
		t.Fatalf("expected retryable")
	}
}

func TestGenerateImageAndSpeech(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nrest")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/images/generations":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []any{map[string]any{"b64_json": base64.StdEncoding.EncodeToString(png)}},
			})
		case "/v1/audio/speech":
			raw, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(raw), `"response_format":"pcm"`) || !strings.Contains(string(raw), `"voice":"sage"`) {
				t.Errorf("unexpected speech request %s", raw)
			}
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte{1, 2, 3, 4})
		}
	}, 0)

	img, err := c.GenerateImage(context.Background(), "a tutor")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if img.MimeType != "image/png" || string(img.Bytes) != string(png) {
		t.Fatalf("unexpected image %+v", img)
	}

	sp, err := c.GenerateSpeech(context.Background(), "hello", "sage", "")
	if err != nil {
		t.Fatalf("GenerateSpeech: %v", err)
	}
	if sp.SampleRate != SpeechSampleRate || len(sp.PCM) != 4 {
		t.Fatalf("unexpected speech %+v", sp)
	}
}

func TestGenerateImage_EmptyData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}, 0)
	if _, err := c.GenerateImage(context.Background(), "x"); err != ErrNoImage {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
}

func TestRequestsPerMinuteThrottles(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte{1, 2})
	}))
	t.Cleanup(srv.Close)
	c, err := NewClient(logger.NewNop(), Config{APIKey: "sk-test", BaseURL: srv.URL, RequestsPerMinute: 1})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := c.GenerateSpeech(context.Background(), "one", "sage", ""); err != nil {
		t.Fatalf("first call: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.GenerateSpeech(ctx, "two", "sage", ""); err == nil {
		t.Fatalf("expected throttled call to fail before its deadline")
	}
	if calls != 1 {
		t.Fatalf("expected the throttled request never to reach the server, got %d calls", calls)
	}
}

func TestGenerateImage_BadPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"b64_json":"===="}]}`))
	}, 0)
	_, err := c.GenerateImage(context.Background(), "x")
	if err == nil || errors.Is(err, ErrNoImage) || strings.Contains(err.Error(), "%!w") {
		t.Fatalf("expected a base64 decode error, got %v", err)
	}
}
