package relay

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
)

func TestSetupFrame(t *testing.T) {
	data, err := setupFrame(SetupConfig{
		Model:        "gemini-live-2.5-flash",
		Voice:        "Aoede",
		SystemPrompt: "You are a concierge.",
		Tools:        []ToolDeclaration{{Name: "get_weather"}},
	})
	if err != nil {
		t.Fatalf("setupFrame: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	setup, ok := decoded["setup"]
	if !ok {
		t.Fatal("expected top-level setup key")
	}
	for _, want := range []string{"gemini-live-2.5-flash", "Aoede", "You are a concierge.", "get_weather", "AUDIO"} {
		if !strings.Contains(string(setup), want) {
			t.Errorf("setup frame missing %q:\n%s", want, setup)
		}
	}
}

func TestSetupFrame_OmitsEmptySections(t *testing.T) {
	data, err := setupFrame(SetupConfig{Model: "gemini-live-2.5-flash"})
	if err != nil {
		t.Fatalf("setupFrame: %v", err)
	}
	for _, absent := range []string{"systemInstruction", "tools", "speechConfig"} {
		if strings.Contains(string(data), absent) {
			t.Errorf("setup frame should omit %s:\n%s", absent, data)
		}
	}
}

func TestTextFrame(t *testing.T) {
	data, err := textFrame("hello there")
	if err != nil {
		t.Fatalf("textFrame: %v", err)
	}
	var frame struct {
		ClientContent struct {
			Turns []struct {
				Role  string `json:"role"`
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"turns"`
			TurnComplete bool `json:"turnComplete"`
		} `json:"clientContent"`
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !frame.ClientContent.TurnComplete {
		t.Error("expected turnComplete true")
	}
	if len(frame.ClientContent.Turns) != 1 || frame.ClientContent.Turns[0].Role != "user" {
		t.Fatalf("unexpected turns: %+v", frame.ClientContent.Turns)
	}
	if got := frame.ClientContent.Turns[0].Parts[0].Text; got != "hello there" {
		t.Errorf("text = %q, want %q", got, "hello there")
	}
}

func TestAudioFrame(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	data, err := audioFrame(pcm, 16000)
	if err != nil {
		t.Fatalf("audioFrame: %v", err)
	}
	var frame struct {
		RealtimeInput struct {
			MediaChunks []struct {
				MimeType string `json:"mimeType"`
				Data     string `json:"data"`
			} `json:"mediaChunks"`
		} `json:"realtimeInput"`
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(frame.RealtimeInput.MediaChunks) != 1 {
		t.Fatalf("expected 1 media chunk, got %d", len(frame.RealtimeInput.MediaChunks))
	}
	chunk := frame.RealtimeInput.MediaChunks[0]
	if chunk.MimeType != "audio/pcm;rate=16000" {
		t.Errorf("mimeType = %q", chunk.MimeType)
	}
	decoded, err := base64.StdEncoding.DecodeString(chunk.Data)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if string(decoded) != string(pcm) {
		t.Errorf("payload = %v, want %v", decoded, pcm)
	}
}

func TestParseServerFrame(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want frameKind
	}{
		{"setup complete", `{"setupComplete":{}}`, kindSetupComplete},
		{"server content", `{"serverContent":{"turnComplete":true}}`, kindServerContent},
		{"tool call", `{"toolCall":{"functionCalls":[{"name":"get_time"}]}}`, kindToolCall},
		{"go away", `{"goAway":{}}`, kindGoAway},
		{"unknown", `{"usageMetadata":{"totalTokens":10}}`, kindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, kind, err := parseServerFrame([]byte(tt.raw))
			if err != nil {
				t.Fatalf("parseServerFrame: %v", err)
			}
			if kind != tt.want {
				t.Errorf("kind = %d, want %d", kind, tt.want)
			}
		})
	}
}

func TestParseServerFrame_Invalid(t *testing.T) {
	if _, _, err := parseServerFrame([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed frame")
	}
}

func TestToolResponseFrame(t *testing.T) {
	data, err := toolResponseFrame([]FunctionResult{
		{ID: "call-1", Name: "get_weather", Response: map[string]interface{}{"conditions": "sunny"}},
	})
	if err != nil {
		t.Fatalf("toolResponseFrame: %v", err)
	}
	for _, want := range []string{"toolResponse", "functionResponses", "call-1", "get_weather", "sunny"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("tool response missing %q:\n%s", want, data)
		}
	}
}
