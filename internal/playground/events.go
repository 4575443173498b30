package playground

import "encoding/json"

// StreamEvent is one event from the agent backend's response stream.
type StreamEvent struct {
	InvocationID string        `json:"invocation_id,omitempty"`
	Author       string        `json:"author,omitempty"`
	Partial      bool          `json:"partial,omitempty"`
	Content      *EventContent `json:"content,omitempty"`
}

// EventContent carries the parts of one stream event.
type EventContent struct {
	Role  string      `json:"role,omitempty"`
	Parts []EventPart `json:"parts,omitempty"`
}

// EventPart is one fragment: a text token, a tool call, or a tool response.
type EventPart struct {
	Text             string        `json:"text,omitempty"`
	FunctionCall     *EventCall    `json:"function_call,omitempty"`
	FunctionResponse *EventCallOut `json:"function_response,omitempty"`
}

// EventCall is a tool invocation requested by the model.
type EventCall struct {
	ID   string                 `json:"id,omitempty"`
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args,omitempty"`
}

// EventCallOut is the result of a tool invocation.
type EventCallOut struct {
	ID       string                 `json:"id,omitempty"`
	Name     string                 `json:"name,omitempty"`
	Response map[string]interface{} `json:"response,omitempty"`
}

// ParseStreamEvent decodes one backend event.
func ParseStreamEvent(data []byte) (*StreamEvent, error) {
	var ev StreamEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Processor folds a backend event stream into an ordered transcript.
// Text tokens append to the trailing assistant message, tool calls open new
// parts, and tool responses attach to the matching call by ID.
type Processor struct {
	messages []*Message
}

// NewProcessor starts an empty transcript fold.
func NewProcessor() *Processor {
	return &Processor{}
}

// Apply folds one event into the transcript.
func (p *Processor) Apply(ev *StreamEvent) {
	if ev == nil || ev.Content == nil {
		return
	}
	for _, part := range ev.Content.Parts {
		switch {
		case part.FunctionCall != nil:
			p.appendPart(Part{
				Type:     PartToolCall,
				ToolName: part.FunctionCall.Name,
				ToolArgs: part.FunctionCall.Args,
				CallID:   part.FunctionCall.ID,
			})
		case part.FunctionResponse != nil:
			p.attachResponse(part.FunctionResponse)
		case part.Text != "":
			p.appendText(part.Text, ev.Partial)
		}
	}
}

// Messages returns the folded transcript.
func (p *Processor) Messages() []*Message {
	return p.messages
}

func (p *Processor) trailing() *Message {
	if len(p.messages) == 0 {
		return nil
	}
	return p.messages[len(p.messages)-1]
}

func (p *Processor) appendPart(part Part) {
	msg := p.trailing()
	if msg == nil || msg.Role != RoleAssistant {
		msg = &Message{Role: RoleAssistant}
		p.messages = append(p.messages, msg)
	}
	msg.Parts = append(msg.Parts, part)
}

// appendText grows the trailing assistant text part. Partial events carry
// token deltas; a non-partial event carries the full text and replaces what
// the deltas built up.
func (p *Processor) appendText(text string, partial bool) {
	msg := p.trailing()
	if msg == nil || msg.Role != RoleAssistant {
		p.appendPart(Part{Type: PartText, Text: text})
		return
	}

	last := len(msg.Parts) - 1
	if last < 0 || msg.Parts[last].Type != PartText {
		msg.Parts = append(msg.Parts, Part{Type: PartText, Text: text})
		return
	}

	if partial {
		msg.Parts[last].Text += text
	} else {
		msg.Parts[last].Text = text
	}
}

func (p *Processor) attachResponse(out *EventCallOut) {
	if out.ID != "" {
		for _, msg := range p.messages {
			for i := range msg.Parts {
				if msg.Parts[i].Type == PartToolCall && msg.Parts[i].CallID == out.ID {
					msg.Parts[i].Response = out.Response
					return
				}
			}
		}
	}
	// No matching call; keep the response as its own part.
	p.appendPart(Part{
		Type:     PartToolResponse,
		ToolName: out.Name,
		Response: out.Response,
		CallID:   out.ID,
	})
}
