// Package claude suggests photo names with Anthropic's Messages API.
package claude

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/kissthem/internal/imagegen"
)

// A name is at most a handful of words.
const maxTokens = 64

type Namer struct {
	client *anthropic.Client
	model  string
}

func NewNamer(apiKey, model string, opts ...anthropic.ClientOption) *Namer {
	return &Namer{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func buildMessages(img imagegen.Image, request string) []anthropic.Message {
	return []anthropic.Message{{
		Role: anthropic.RoleUser,
		Content: []anthropic.MessageContent{
			anthropic.NewImageMessageContent(anthropic.MessageContentSource{
				Type:      anthropic.MessagesContentSourceTypeBase64,
				MediaType: normaliseMIME(img.MIMEType),
				Data:      base64.StdEncoding.EncodeToString(img.Data),
			}),
			anthropic.NewTextMessageContent(imagegen.NamingPrompt(request)),
		},
	}}
}

func (n *Namer) SuggestName(ctx context.Context, img imagegen.Image, request string) (string, error) {
	resp, err := n.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(n.model),
		MaxTokens: maxTokens,
		Messages:  buildMessages(img, request),
	})
	if err != nil {
		return "", fmt.Errorf("failed to call claude: %w", err)
	}
	return imagegen.CleanName(resp.GetFirstContentText()), nil
}

// normaliseMIME maps browser MIME types to the values the Anthropic API
// accepts. Unknown types are coerced to jpeg.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
