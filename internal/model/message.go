// Package model defines the wire-level types shared across the agent
// runtime: chat messages, tool calls, attachments, and the resolved model
// configuration.
package model

import "encoding/base64"

// Role identifies who produced a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ContentBlock is one element of a multi-part message body. Only Text and
// ImageURL are populated for a given block; Type selects which.
type ContentBlock struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// ToolCall is a structured function-invocation request emitted by the model
// inside an assistant message. ID is unique within that assistant message.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function ToolCallFunc `json:"function"`
}

type ToolCallFunc struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one entry in a conversation. Content holds the text body.
// Blocks is not serialized (json:"-"), so a message sent to the provider
// carries only Content; the runner folds no attachments into Blocks.
type Message struct {
	Role             Role           `json:"role"`
	Content          string         `json:"content,omitempty"`
	Blocks           []ContentBlock `json:"-"`
	ToolCallID       string         `json:"tool_call_id,omitempty"`
	ToolCalls        []ToolCall     `json:"tool_calls,omitempty"`
	ReasoningContent string         `json:"reasoning_content,omitempty"`
}

// HasBlocks reports whether this message carries a content-block list
// rather than a plain string body.
func (m Message) HasBlocks() bool {
	return len(m.Blocks) > 0
}

// Attachment is prepared by an external AttachmentSource collaborator and
// folded into the last user message before a turn begins.
type Attachment struct {
	Path       string
	Name       string
	MimeType   string
	SizeBytes  int64
	Base64Data string
}

// ToBlock converts the attachment into the content block the completion
// client expects: an image_url data-URI for images, a text block with a
// "[File: name]" header and the decoded text for text types, or an
// "[Attachment: name (mime)]" mention for everything else.
func (a Attachment) ToBlock() ContentBlock {
	if isImageMime(a.MimeType) && a.Base64Data != "" {
		return ContentBlock{
			Type: "image_url",
			ImageURL: &ImageURL{
				URL: "data:" + a.MimeType + ";base64," + a.Base64Data,
			},
		}
	}
	if isTextMime(a.MimeType) && a.Base64Data != "" {
		return ContentBlock{
			Type: "text",
			Text: "[File: " + a.Name + "]\n" + decodeTextAttachment(a.Base64Data),
		}
	}
	return ContentBlock{Type: "text", Text: "[Attachment: " + a.Name + " (" + a.MimeType + ")]"}
}

func isImageMime(mime string) bool {
	switch mime {
	case "image/png", "image/jpeg", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

// decodeTextAttachment best-effort decodes a base64-encoded text
// attachment body. If the data isn't valid base64 (e.g. already plain
// text), it's returned unchanged rather than dropped.
func decodeTextAttachment(b64 string) string {
	decoded, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return b64
	}
	return string(decoded)
}

func isTextMime(mime string) bool {
	switch mime {
	case "text/plain", "text/markdown", "application/json", "text/x-go", "text/x-python":
		return true
	default:
		return false
	}
}
