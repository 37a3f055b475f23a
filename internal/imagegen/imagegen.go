package imagegen

import (
	"context"
	"fmt"
	"strings"

	"github.com/vbonduro/kissthem/internal/domain"
)

// DefaultInstruction is sent to the image model when the caller gives no prompt.
const DefaultInstruction = "Take this photo and add a cute, romantic kiss to it. " +
	"The person receiving the kiss should look surprised, happy, and delighted - " +
	"like they just received an unexpected but wonderful surprise! " +
	"Make the kiss look natural, adorable, and create a magical moment. " +
	"The person's expression should show pure joy and surprise at receiving this sweet kiss."

// NamingPrompt builds the instruction for the naming model.
func NamingPrompt(request string) string {
	return fmt.Sprintf(`Generate a cool, creative, and memorable name for this photo. The user requested: %q.
The name should be 2-4 words, catchy, and related to the photo content.
Examples: "Midnight Kiss", "Sunset Romance", "Urban Love Story", "Beachside Affection".
Return only the name, nothing else.`, request)
}

// CleanName trims whitespace and wrapping quotes from a model answer and
// falls back to domain.DefaultPhotoName when nothing is left.
func CleanName(raw string) string {
	name := strings.TrimSpace(raw)
	if line, _, ok := strings.Cut(name, "\n"); ok {
		name = strings.TrimSpace(line)
	}
	name = strings.TrimSpace(strings.Trim(name, "\"'`*"))
	if name == "" {
		return domain.DefaultPhotoName
	}
	return name
}

type Image struct {
	Data     []byte
	MIMEType string
}

// EditResult is what the image model returned. Image is nil when the model
// answered with text only. NoContent is set when the response carried no
// candidate content at all.
type EditResult struct {
	Image     *Image
	Text      string
	NoContent bool
}

type Namer interface {
	SuggestName(ctx context.Context, img Image, request string) (string, error)
}

type Editor interface {
	Edit(ctx context.Context, instruction string, img Image) (*EditResult, error)
}

// Model is a session against the generative backend bound to one API key.
type Model interface {
	Namer
	Editor
}

// Provider opens model sessions. The API key is resolved per request, so
// sessions are not shared between requests.
type Provider interface {
	Model(ctx context.Context, apiKey string) (Model, error)
}
