package elevenlabs

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/easimeng/anglo/pkg/types"
)

// ---- WebSocket message construction ----

func TestBuildWSMessage_WithVoiceSettings(t *testing.T) {
	vs := &voiceSettings{Stability: 0.5, SimilarityBoost: 0.75}
	data, err := buildWSMessage("Hello there", vs)
	if err != nil {
		t.Fatalf("buildWSMessage: %v", err)
	}

	var msg textMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Text != "Hello there" {
		t.Errorf("expected text 'Hello there', got %q", msg.Text)
	}
	if msg.VoiceSettings == nil {
		t.Fatal("expected non-nil voice settings")
	}
	if msg.VoiceSettings.Stability != 0.5 {
		t.Errorf("expected stability 0.5, got %f", msg.VoiceSettings.Stability)
	}
	if msg.VoiceSettings.SimilarityBoost != 0.75 {
		t.Errorf("expected similarity_boost 0.75, got %f", msg.VoiceSettings.SimilarityBoost)
	}
}

func TestBuildWSMessage_FlushCommand(t *testing.T) {
	// ElevenLabs flush = {"text":""} with no other fields.
	data, err := buildWSMessage("", nil)
	if err != nil {
		t.Fatalf("buildWSMessage: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal flush: %v", err)
	}
	textVal, ok := raw["text"]
	if !ok {
		t.Fatal("expected 'text' field in flush message")
	}
	if string(textVal) != `""` {
		t.Errorf("expected empty string for text, got %s", textVal)
	}
	if _, exists := raw["voice_settings"]; exists {
		t.Error("flush message should not contain voice_settings")
	}
}

// ---- Voice settings mapping ----

func TestSettingsFor(t *testing.T) {
	t.Run("zero profile uses defaults", func(t *testing.T) {
		vs := settingsFor(types.VoiceProfile{ID: "v1"})
		if vs.Stability != defaultStability {
			t.Errorf("stability = %f, want %f", vs.Stability, defaultStability)
		}
		if vs.SimilarityBoost != defaultSimilarityBoost {
			t.Errorf("similarity_boost = %f, want %f", vs.SimilarityBoost, defaultSimilarityBoost)
		}
	})

	t.Run("profile values pass through", func(t *testing.T) {
		vs := settingsFor(types.VoiceProfile{ID: "v1", Stability: 0.9, SimilarityBoost: 0.3})
		if vs.Stability != 0.9 || vs.SimilarityBoost != 0.3 {
			t.Errorf("got (%f, %f), want (0.9, 0.3)", vs.Stability, vs.SimilarityBoost)
		}
	})
}

// ---- URL construction ----

func TestBuildURLForVoice(t *testing.T) {
	url := buildURLForVoice("voice-abc123", "eleven_flash_v2_5")
	if !strings.Contains(url, "voice-abc123") {
		t.Errorf("URL should contain voice ID, got: %s", url)
	}
	if !strings.Contains(url, "eleven_flash_v2_5") {
		t.Errorf("URL should contain model ID, got: %s", url)
	}
	if !strings.HasPrefix(url, "wss://") {
		t.Errorf("URL should be a WebSocket URL, got: %s", url)
	}
}

// ---- Voice list response parsing ----

func TestParseVoicesResponse_Success(t *testing.T) {
	raw := []byte(`{
		"voices": [
			{
				"voice_id": "abc123",
				"name": "Rachel",
				"category": "premade",
				"labels": {"gender": "female", "accent": "american"}
			},
			{
				"voice_id": "def456",
				"name": "Adam",
				"category": "premade",
				"labels": {"gender": "male"}
			}
		]
	}`)

	profiles, err := parseVoicesResponse(raw)
	if err != nil {
		t.Fatalf("parseVoicesResponse: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}

	rachel := profiles[0]
	if rachel.ID != "abc123" || rachel.Name != "Rachel" {
		t.Errorf("unexpected first profile: %+v", rachel)
	}
	if rachel.Provider != "elevenlabs" {
		t.Errorf("expected provider 'elevenlabs', got %q", rachel.Provider)
	}
	if rachel.Metadata["gender"] != "female" {
		t.Errorf("expected gender label to survive, got %v", rachel.Metadata)
	}
	if rachel.Metadata["category"] != "premade" {
		t.Errorf("expected category in metadata, got %v", rachel.Metadata)
	}

	adam := profiles[1]
	if adam.ID != "def456" || adam.Name != "Adam" {
		t.Errorf("unexpected second profile: %+v", adam)
	}
}

func TestParseVoicesResponse_Invalid(t *testing.T) {
	if _, err := parseVoicesResponse([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

// ---- Constructor validation ----

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty API key")
	}
}
