// Package whisper provides Whisper-backed STT providers.
//
// Two implementations are available:
//
//   - [Remote] submits WAV files to an HTTP transcription endpoint. It
//     speaks the OpenAI audio transcription wire format, which is also
//     served by whisper.cpp's whisper-server binary, so the same provider
//     covers both the hosted API and a self-hosted server.
//   - [Native] (native.go) runs inference in-process through the
//     whisper.cpp CGO bindings, for fully offline operation.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/easimeng/anglo/pkg/provider/stt"
)

// Compile-time assertion that Remote implements stt.Provider.
var _ stt.Provider = (*Remote)(nil)

const (
	defaultBaseURL  = "https://api.openai.com"
	defaultEndpoint = "/v1/audio/transcriptions"
	defaultModel    = "whisper-1"
	defaultLanguage = "en"
	defaultTimeout  = 60 * time.Second
)

// Remote implements stt.Provider against an OpenAI-compatible transcription
// endpoint.
type Remote struct {
	client   *http.Client
	baseURL  string
	endpoint string
	apiKey   string
	model    string
	language string
}

// RemoteOption is a functional option for configuring a Remote provider.
type RemoteOption func(*Remote)

// WithBaseURL overrides the API base URL (e.g., "http://localhost:8080" for
// a local whisper-server).
func WithBaseURL(url string) RemoteOption {
	return func(p *Remote) {
		p.baseURL = strings.TrimRight(url, "/")
	}
}

// WithEndpoint overrides the endpoint path. whisper-server also accepts its
// native "/inference" path, which speaks the same multipart request shape.
func WithEndpoint(path string) RemoteOption {
	return func(p *Remote) {
		p.endpoint = path
	}
}

// WithModel sets the transcription model identifier. Defaults to "whisper-1".
func WithModel(model string) RemoteOption {
	return func(p *Remote) {
		p.model = model
	}
}

// WithLanguage sets the BCP-47 language code sent with each request (e.g.,
// "en", "de"). Defaults to "en".
func WithLanguage(lang string) RemoteOption {
	return func(p *Remote) {
		p.language = lang
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(p *Remote) {
		p.client = c
	}
}

// NewRemote constructs a Remote provider. apiKey may be empty when the
// endpoint is a local whisper-server that performs no authentication.
func NewRemote(apiKey string, opts ...RemoteOption) *Remote {
	p := &Remote{
		client:   &http.Client{Timeout: defaultTimeout},
		baseURL:  defaultBaseURL,
		endpoint: defaultEndpoint,
		apiKey:   apiKey,
		model:    defaultModel,
		language: defaultLanguage,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// transcriptionResponse is the JSON body returned by the endpoint.
type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe implements stt.Provider.
func (p *Remote) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("whisper: open audio file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("whisper: read audio file: %w", err)
	}
	if err := mw.WriteField("model", p.model); err != nil {
		return "", fmt.Errorf("whisper: write model field: %w", err)
	}
	if p.language != "" {
		if err := mw.WriteField("language", p.language); err != nil {
			return "", fmt.Errorf("whisper: write language field: %w", err)
		}
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("whisper: write response_format field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("whisper: finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+p.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("whisper: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper: transcription request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("whisper: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper: endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var tr transcriptionResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return "", fmt.Errorf("whisper: decode response: %w", err)
	}
	return strings.TrimSpace(tr.Text), nil
}

// Name implements stt.Provider.
func (p *Remote) Name() string {
	return "whisper-api"
}

// Close implements stt.Provider.
func (p *Remote) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
