package relay

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// clientMessage is the JSON shape of text frames from the browser.
type clientMessage struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// Client-bound frame types.
const (
	clientFrameText       = "text"
	clientFrameAudio      = "audio"
	clientFrameTool       = "tool"
	clientFrameTurnDone   = "turn_complete"
	clientFrameInterrupt  = "interrupted"
	clientFrameReady      = "ready"
	clientFrameError      = "error"
	clientFrameReconnect  = "reconnecting"
	clientFrameGoodbye    = "goodbye"
	clientFrameToolResult = "tool_result"
)

// SetupConfig is the session configuration sent in the upstream setup frame.
type SetupConfig struct {
	Model            string
	Voice            string
	SystemPrompt     string
	InputSampleRate  int
	OutputSampleRate int
	Tools            []ToolDeclaration
}

// ToolDeclaration mirrors a manifest tool for the upstream setup frame.
type ToolDeclaration struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// setupFrame builds the upstream session setup message.
func setupFrame(cfg SetupConfig) ([]byte, error) {
	type speechConfig struct {
		VoiceConfig struct {
			PrebuiltVoiceConfig struct {
				VoiceName string `json:"voiceName,omitempty"`
			} `json:"prebuiltVoiceConfig"`
		} `json:"voiceConfig"`
	}

	setup := map[string]interface{}{
		"model": cfg.Model,
		"generationConfig": map[string]interface{}{
			"responseModalities": []string{"AUDIO"},
		},
	}

	if cfg.Voice != "" {
		var sc speechConfig
		sc.VoiceConfig.PrebuiltVoiceConfig.VoiceName = cfg.Voice
		setup["generationConfig"].(map[string]interface{})["speechConfig"] = sc
	}

	if cfg.SystemPrompt != "" {
		setup["systemInstruction"] = map[string]interface{}{
			"parts": []map[string]string{{"text": cfg.SystemPrompt}},
		}
	}

	if len(cfg.Tools) > 0 {
		setup["tools"] = []map[string]interface{}{
			{"functionDeclarations": cfg.Tools},
		}
	}

	return json.Marshal(map[string]interface{}{"setup": setup})
}

// textFrame wraps a user text message as upstream client content.
func textFrame(text string) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"clientContent": map[string]interface{}{
			"turns": []map[string]interface{}{
				{
					"role":  "user",
					"parts": []map[string]string{{"text": text}},
				},
			},
			"turnComplete": true,
		},
	})
}

// audioFrame wraps a raw PCM chunk as upstream realtime input.
func audioFrame(pcm []byte, sampleRate int) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"realtimeInput": map[string]interface{}{
			"mediaChunks": []map[string]string{
				{
					"mimeType": fmt.Sprintf("audio/pcm;rate=%d", sampleRate),
					"data":     base64.StdEncoding.EncodeToString(pcm),
				},
			},
		},
	})
}

// toolResponseFrame wraps tool results as an upstream tool response.
func toolResponseFrame(results []FunctionResult) ([]byte, error) {
	responses := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		responses = append(responses, map[string]interface{}{
			"id":       r.ID,
			"name":     r.Name,
			"response": r.Response,
		})
	}
	return json.Marshal(map[string]interface{}{
		"toolResponse": map[string]interface{}{
			"functionResponses": responses,
		},
	})
}

// serverFrame is the decoded shape of an upstream message. Exactly one of
// the pointer fields is set.
type serverFrame struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *serverContent `json:"serverContent,omitempty"`
	ToolCall      *toolCall      `json:"toolCall,omitempty"`
	GoAway        *struct{}      `json:"goAway,omitempty"`
}

type serverContent struct {
	ModelTurn *struct {
		Parts []contentPart `json:"parts,omitempty"`
	} `json:"modelTurn,omitempty"`
	TurnComplete bool `json:"turnComplete,omitempty"`
	Interrupted  bool `json:"interrupted,omitempty"`
}

type contentPart struct {
	Text       string `json:"text,omitempty"`
	InlineData *struct {
		MimeType string `json:"mimeType,omitempty"`
		Data     string `json:"data,omitempty"`
	} `json:"inlineData,omitempty"`
}

type toolCall struct {
	FunctionCalls []functionCall `json:"functionCalls,omitempty"`
}

type functionCall struct {
	ID   string                 `json:"id,omitempty"`
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args,omitempty"`
}

// frameKind classifies an upstream frame.
type frameKind int

const (
	kindUnknown frameKind = iota
	kindSetupComplete
	kindServerContent
	kindToolCall
	kindGoAway
)

// parseServerFrame decodes an upstream message and classifies it.
func parseServerFrame(data []byte) (*serverFrame, frameKind, error) {
	var f serverFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, kindUnknown, fmt.Errorf("decoding upstream frame: %w", err)
	}

	switch {
	case f.SetupComplete != nil:
		return &f, kindSetupComplete, nil
	case f.ServerContent != nil:
		return &f, kindServerContent, nil
	case f.ToolCall != nil:
		return &f, kindToolCall, nil
	case f.GoAway != nil:
		return &f, kindGoAway, nil
	default:
		return &f, kindUnknown, nil
	}
}
