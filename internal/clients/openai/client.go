package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/yungbote/coursecast-backend/internal/pkg/ctxutil"
	apperr "github.com/yungbote/coursecast-backend/internal/pkg/errors"
	"github.com/yungbote/coursecast-backend/internal/pkg/logger"
)

const (
	// SpeechSampleRate is the rate of the raw PCM returned by the speech endpoint.
	SpeechSampleRate = 24000

	DefaultMaxDocumentBytes = 4 << 20
)

// DocumentInput is a file attached to a structured request.
type DocumentInput struct {
	Filename string
	MimeType string
	Data     []byte
}

type JSONRequest struct {
	System     string
	User       string
	Document   *DocumentInput
	SchemaName string
	Schema     map[string]any
}

type ImageGeneration struct {
	Bytes         []byte
	MimeType      string
	RevisedPrompt string
}

// SpeechGeneration is raw mono 16-bit little-endian PCM.
type SpeechGeneration struct {
	PCM        []byte
	SampleRate int
}

// Client is the generative AI service used by course generation. Every method is a
// single attempt; callers own retrying.
type Client interface {
	// Structured outputs (json_schema), optionally grounded on an attached document.
	GenerateJSON(ctx context.Context, req JSONRequest) (map[string]any, error)

	// Image generation (raster). Returns bytes (PNG by default).
	GenerateImage(ctx context.Context, prompt string) (ImageGeneration, error)

	// Speech synthesis to raw PCM.
	GenerateSpeech(ctx context.Context, text string, voice string, instructions string) (SpeechGeneration, error)
}

type Config struct {
	APIKey           string
	BaseURL          string
	Model            string
	ImageModel       string
	ImageSize        string
	SpeechModel      string
	Timeout          time.Duration
	MaxDocumentBytes int

	// RequestsPerMinute throttles outgoing requests; zero disables throttling.
	RequestsPerMinute int
}

type client struct {
	log         *logger.Logger
	baseURL     string
	apiKey      string
	model       string
	imageModel  string
	imageSize   string
	speechModel string
	maxDocBytes int
	httpClient  *http.Client
	limiter     *rate.Limiter
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4.1-mini"
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = "gpt-image-1"
	}
	if cfg.ImageSize == "" {
		cfg.ImageSize = "1536x1024"
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = "gpt-4o-mini-tts"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 180 * time.Second
	}
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = DefaultMaxDocumentBytes
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return &client{
		log:         log.With("service", "OpenAIClient"),
		baseURL:     baseURL,
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       cfg.Model,
		imageModel:  cfg.ImageModel,
		imageSize:   cfg.ImageSize,
		speechModel: cfg.SpeechModel,
		maxDocBytes: cfg.MaxDocumentBytes,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		limiter:     limiter,
	}, nil
}

// HTTPError is a non-2xx response from the service.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) doRaw(ctx context.Context, method, path string, body any) ([]byte, string, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, "", err
		}
	}

	ctx = ctxutil.Default(ctx)
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, "", fmt.Errorf("openai rate limit wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, "", readErr
	}

	c.log.Debug("OpenAI request finished",
		"path", path,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed", time.Since(start).String(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, strings.TrimSpace(resp.Header.Get("Content-Type")), nil
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	raw, _, err := c.doRaw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if uErr := json.Unmarshal(raw, out); uErr != nil {
		return fmt.Errorf("openai decode error: %w; raw=%s", uErr, truncate(string(raw), 512))
	}
	return nil
}

// -------------------- Images API --------------------

type imagesGenerationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n,omitempty"`
	Size   string `json:"size,omitempty"`
}

type imagesGenerationResponse struct {
	Data []struct {
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

// ErrNoImage is returned when the service answers without image data.
var ErrNoImage = errors.New("no image returned")

func (c *client) GenerateImage(ctx context.Context, prompt string) (ImageGeneration, error) {
	var out ImageGeneration
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return out, errors.New("image prompt required")
	}

	req := imagesGenerationRequest{
		Model:  c.imageModel,
		Prompt: prompt,
		N:      1,
		Size:   c.imageSize,
	}

	var resp imagesGenerationResponse
	if err := c.do(ctx, http.MethodPost, "/v1/images/generations", req, &resp); err != nil {
		return out, err
	}
	if len(resp.Data) == 0 || strings.TrimSpace(resp.Data[0].B64JSON) == "" {
		return out, ErrNoImage
	}
	item := resp.Data[0]
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(item.B64JSON))
	if err != nil {
		return out, fmt.Errorf("decode image base64: %w", err)
	}
	if len(raw) == 0 {
		return out, ErrNoImage
	}
	out.Bytes = raw
	out.MimeType = http.DetectContentType(raw)
	out.RevisedPrompt = strings.TrimSpace(item.RevisedPrompt)
	return out, nil
}

// -------------------- Speech API --------------------

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	Instructions   string `json:"instructions,omitempty"`
	ResponseFormat string `json:"response_format"`
}

func (c *client) GenerateSpeech(ctx context.Context, text string, voice string, instructions string) (SpeechGeneration, error) {
	var out SpeechGeneration
	text = strings.TrimSpace(text)
	if text == "" {
		return out, errors.New("speech input required")
	}
	if strings.TrimSpace(voice) == "" {
		return out, errors.New("speech voice required")
	}

	raw, _, err := c.doRaw(ctx, http.MethodPost, "/v1/audio/speech", speechRequest{
		Model:          c.speechModel,
		Input:          text,
		Voice:          voice,
		Instructions:   strings.TrimSpace(instructions),
		ResponseFormat: "pcm",
	})
	if err != nil {
		return out, err
	}
	if len(raw) == 0 {
		return out, errors.New("no audio returned")
	}
	out.PCM = raw
	out.SampleRate = SpeechSampleRate
	return out, nil
}

// -------------------- Responses API (structured) --------------------

type inputMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type responsesRequest struct {
	Model string         `json:"model"`
	Input []inputMessage `json:"input"`
	Text  struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type    string `json:"type"`
			Text    string `json:"text,omitempty"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
}

func extractOutputText(resp responsesResponse) (text string, refusal string) {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, c := range item.Content {
			switch c.Type {
			case "output_text":
				out.WriteString(c.Text)
			case "refusal":
				refusal = c.Refusal
			}
		}
	}
	return out.String(), refusal
}

func (c *client) GenerateJSON(ctx context.Context, in JSONRequest) (map[string]any, error) {
	if in.SchemaName == "" {
		return nil, errors.New("schemaName required")
	}
	if in.Schema == nil {
		return nil, errors.New("schema required")
	}

	var userContent any = in.User
	if in.Document != nil {
		if len(in.Document.Data) == 0 {
			return nil, apperr.New(apperr.KindUnreadableDocument, "document is empty", nil)
		}
		if len(in.Document.Data) > c.maxDocBytes {
			return nil, apperr.New(apperr.KindPayloadTooLarge,
				fmt.Sprintf("document is %d bytes, limit is %d", len(in.Document.Data), c.maxDocBytes), nil)
		}
		userContent = documentContent(in.User, in.Document)
	}

	req := responsesRequest{
		Model: c.model,
		Input: []inputMessage{
			{Role: "system", Content: in.System},
			{Role: "user", Content: userContent},
		},
		Temperature: 0.4,
	}
	req.Text.Format = map[string]any{
		"type":   "json_schema",
		"name":   in.SchemaName,
		"schema": in.Schema,
		"strict": true,
	}

	var resp responsesResponse
	if err := c.do(ctx, http.MethodPost, "/v1/responses", req, &resp); err != nil {
		return nil, err
	}

	jsonText, refusal := extractOutputText(resp)
	if refusal != "" {
		return nil, apperr.New(apperr.KindSchemaValidation, "model refused", errors.New(refusal))
	}
	if strings.TrimSpace(jsonText) == "" {
		return nil, apperr.New(apperr.KindSchemaValidation, "no output_text found in response", nil)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(jsonText), &obj); err != nil {
		return nil, apperr.New(apperr.KindSchemaValidation, "failed to parse model JSON", err)
	}
	return obj, nil
}

func documentContent(user string, doc *DocumentInput) []map[string]any {
	mime := strings.TrimSpace(doc.MimeType)
	if mime == "" {
		mime = http.DetectContentType(doc.Data)
	}
	name := strings.TrimSpace(doc.Filename)
	if name == "" {
		name = "document"
	}
	return []map[string]any{
		{
			"type":      "input_file",
			"filename":  name,
			"file_data": "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(doc.Data),
		},
		{
			"type": "input_text",
			"text": user,
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
