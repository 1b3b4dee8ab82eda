package whisper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeAudioFixture drops a small fake WAV on disk; Transcribe only streams
// the bytes, it never parses them.
func writeAudioFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "utterance.wav")
	if err := os.WriteFile(path, []byte("RIFFfake"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestRemote_Transcribe(t *testing.T) {
	t.Parallel()

	var gotAuth, gotModel, gotLanguage, gotFilename string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parsing multipart form: %v", err)
		}
		gotModel = r.FormValue("model")
		gotLanguage = r.FormValue("language")
		if fhs := r.MultipartForm.File["file"]; len(fhs) == 1 {
			gotFilename = fhs[0].Filename
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "  hello anglo \n"})
	}))
	defer srv.Close()

	p := NewRemote("sk-test",
		WithBaseURL(srv.URL),
		WithModel("whisper-1"),
		WithLanguage("en"),
	)
	defer p.Close()

	text, err := p.Transcribe(context.Background(), writeAudioFixture(t))
	if err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}
	if text != "hello anglo" {
		t.Errorf("Transcribe() = %q, want trimmed %q", text, "hello anglo")
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotModel != "whisper-1" || gotLanguage != "en" {
		t.Errorf("form fields model=%q language=%q", gotModel, gotLanguage)
	}
	if gotFilename != "utterance.wav" {
		t.Errorf("uploaded filename = %q, want %q", gotFilename, "utterance.wav")
	}
}

func TestRemote_TranscribeEndpointError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_request_error"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewRemote("", WithBaseURL(srv.URL))
	_, err := p.Transcribe(context.Background(), writeAudioFixture(t))
	if err == nil {
		t.Fatal("Transcribe() succeeded against a failing endpoint")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error %q does not carry the HTTP status", err)
	}
}

func TestRemote_TranscribeMissingFile(t *testing.T) {
	t.Parallel()

	p := NewRemote("")
	_, err := p.Transcribe(context.Background(), filepath.Join(t.TempDir(), "nope.wav"))
	if err == nil {
		t.Fatal("Transcribe() succeeded with a missing audio file")
	}
}

func TestRemote_NoAuthHeaderWithoutKey(t *testing.T) {
	t.Parallel()

	var sawAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization") != ""
		json.NewEncoder(w).Encode(map[string]string{"text": "ok"})
	}))
	defer srv.Close()

	p := NewRemote("", WithBaseURL(srv.URL), WithEndpoint("/inference"))
	if _, err := p.Transcribe(context.Background(), writeAudioFixture(t)); err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}
	if sawAuth {
		t.Error("Authorization header sent despite empty API key")
	}
}
