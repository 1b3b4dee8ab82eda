package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/easimeng/anglo/pkg/provider/llm"
	llmmock "github.com/easimeng/anglo/pkg/provider/llm/mock"
	sttmock "github.com/easimeng/anglo/pkg/provider/stt/mock"
	ttsmock "github.com/easimeng/anglo/pkg/provider/tts/mock"
	"github.com/easimeng/anglo/pkg/types"
)

func TestSTTFallback_FailoverToSecondary(t *testing.T) {
	primary := &sttmock.Provider{TranscribeErr: errTest, NameResult: "whisper-api"}
	backup := &sttmock.Provider{TranscribeResult: "hello world", NameResult: "whisper-native"}

	f := NewSTTFallback(primary, "whisper-api", FallbackConfig{})
	f.AddFallback("whisper-native", backup)

	got, err := f.Transcribe(context.Background(), "/tmp/utterance.wav")
	if err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}
	if got != "hello world" {
		t.Errorf("Transcribe() = %q, want %q", got, "hello world")
	}
	if len(primary.TranscribeCalls) != 1 || len(backup.TranscribeCalls) != 1 {
		t.Errorf("call counts: primary %d, backup %d, want 1/1",
			len(primary.TranscribeCalls), len(backup.TranscribeCalls))
	}
	if f.Name() != "whisper-api" {
		t.Errorf("Name() = %q, want the primary's name", f.Name())
	}
}

func TestSTTFallback_EmptyTranscriptIsNotFailure(t *testing.T) {
	primary := &sttmock.Provider{TranscribeResult: ""}
	backup := &sttmock.Provider{TranscribeResult: "should not be reached"}

	f := NewSTTFallback(primary, "primary", FallbackConfig{})
	f.AddFallback("backup", backup)

	got, err := f.Transcribe(context.Background(), "/tmp/silence.wav")
	if err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}
	if got != "" {
		t.Errorf("Transcribe() = %q, want empty (no speech)", got)
	}
	if len(backup.TranscribeCalls) != 0 {
		t.Error("empty transcript triggered failover")
	}
}

func TestSTTFallback_CloseReachesAllBackends(t *testing.T) {
	primary := &sttmock.Provider{}
	backup := &sttmock.Provider{CloseErr: errTest}

	f := NewSTTFallback(primary, "primary", FallbackConfig{})
	f.AddFallback("backup", backup)

	if err := f.Close(); !errors.Is(err, errTest) {
		t.Errorf("Close() = %v, want the backup's error joined in", err)
	}
}

func TestTTSFallback_FailoverOnStreamSetup(t *testing.T) {
	primary := &ttsmock.Provider{SynthesizeErr: errTest}
	backup := &ttsmock.Provider{Chunks: [][]byte{{0x01, 0x02}}}

	f := NewTTSFallback(primary, "elevenlabs", FallbackConfig{})
	f.AddFallback("local", backup)

	text := make(chan string, 1)
	text <- "hello"
	close(text)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	audio, err := f.SynthesizeStream(ctx, text, types.VoiceProfile{ID: "v1"})
	if err != nil {
		t.Fatalf("SynthesizeStream() error: %v", err)
	}
	var chunks [][]byte
	for c := range audio {
		chunks = append(chunks, c)
	}
	if len(chunks) != 1 {
		t.Errorf("received %d chunks, want 1", len(chunks))
	}
}

func TestLLMFallback_FailoverToSecondary(t *testing.T) {
	primary := &llmmock.Provider{CompleteErr: errTest}
	backup := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "from backup"},
	}

	f := NewLLMFallback(primary, "openai", FallbackConfig{})
	f.AddFallback("ollama", backup)

	resp, err := f.Complete(context.Background(), llm.CompletionRequest{})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if resp.Content != "from backup" {
		t.Errorf("Content = %q, want %q", resp.Content, "from backup")
	}
}

func TestLLMFallback_AllFail(t *testing.T) {
	primary := &llmmock.Provider{CompleteErr: errTest}
	f := NewLLMFallback(primary, "openai", FallbackConfig{})

	_, err := f.Complete(context.Background(), llm.CompletionRequest{})
	if !errors.Is(err, ErrAllFailed) {
		t.Errorf("err = %v, want ErrAllFailed", err)
	}
}
