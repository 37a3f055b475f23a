package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vbonduro/kissthem/internal/artifactstore"
	"github.com/vbonduro/kissthem/internal/domain"
	"github.com/vbonduro/kissthem/internal/imagegen"
	"github.com/vbonduro/kissthem/internal/metrics"
)

const (
	MaxPromptLength = 1000
	defaultMIMEType = "image/jpeg"
)

// Response texts for each processing outcome.
const (
	msgGenerated  = "🎉 A new kissed version of your photo was generated! 💋✨"
	msgAnalyzed   = "Image analyzed by AI (no generation available) 💋"
	msgProcessed  = "Image processed (no generation available) 💋"
	msgUploadOnly = "Image uploaded (AI processing failed) 💋"
	aiGenerated   = "Image generated successfully!"
	aiAnalyzed    = "AI analyzed your image but couldn't generate a new version."
	aiNoContent   = "AI processing completed but no image generation available."
	aiFailed      = "AI processing failed, but image was uploaded successfully."
)

// photoRepository is the subset of the metadata store PhotoService requires.
type photoRepository interface {
	Save(ctx context.Context, p *domain.Photo) error
}

type secretResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// ProcessRequest is the client payload. Image is a base64 data URI or bare
// base64 string.
type ProcessRequest struct {
	Image  string `json:"image"`
	Prompt string `json:"prompt"`
}

// Outcome is the result of the image edit step: Generated, AnalyzedOnly or
// UploadOnly.
type Outcome interface {
	outcome() string
}

// Generated carries the image returned by the model.
type Generated struct {
	Image imagegen.Image
	Text  string
}

// AnalyzedOnly means the model answered without an image.
type AnalyzedOnly struct {
	Text      string
	NoContent bool
}

// UploadOnly means the edit failed and only the original was kept.
type UploadOnly struct {
	Err error
}

func (Generated) outcome() string    { return metrics.OutcomeGenerated }
func (AnalyzedOnly) outcome() string { return metrics.OutcomeAnalyzedOnly }
func (UploadOnly) outcome() string   { return metrics.OutcomeUploadOnly }

// classify turns an edit call into an Outcome. It never fails.
func classify(res *imagegen.EditResult, err error) Outcome {
	switch {
	case err != nil:
		return UploadOnly{Err: err}
	case res == nil || res.NoContent:
		return AnalyzedOnly{NoContent: true}
	case res.Image != nil && len(res.Image.Data) > 0:
		return Generated{Image: *res.Image, Text: res.Text}
	default:
		return AnalyzedOnly{Text: res.Text}
	}
}

// describe returns the stored aiResponse and the user-facing message.
func describe(o Outcome) (aiResponse, message string) {
	switch o := o.(type) {
	case Generated:
		return orDefault(o.Text, aiGenerated), msgGenerated
	case AnalyzedOnly:
		if o.NoContent {
			return aiNoContent, msgProcessed
		}
		return orDefault(o.Text, aiAnalyzed), msgAnalyzed
	default:
		return aiFailed, msgUploadOnly
	}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

type PhotoService struct {
	secrets         secretResolver
	modelSecretName string
	provider        imagegen.Provider
	namer           imagegen.Namer
	artifacts       artifactstore.Store
	photos          photoRepository
	metrics         *metrics.Metrics
	logger          *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewPhotoService wires the processing pipeline. namer may be nil, in which
// case names come from the provider's model session. m may be nil.
func NewPhotoService(
	secrets secretResolver,
	modelSecretName string,
	provider imagegen.Provider,
	namer imagegen.Namer,
	artifacts artifactstore.Store,
	photos photoRepository,
	m *metrics.Metrics,
	logger *slog.Logger,
) *PhotoService {
	return &PhotoService{
		secrets:         secrets,
		modelSecretName: modelSecretName,
		provider:        provider,
		namer:           namer,
		artifacts:       artifacts,
		photos:          photos,
		metrics:         m,
		logger:          logger,
		now:             time.Now,
		newID:           uuid.NewString,
	}
}

// Process uploads the original image, asks the model for a kissed version and
// records exactly one Photo. Only key resolution, the original upload and the
// final save are fatal; naming and generation degrade.
func (s *PhotoService) Process(ctx context.Context, req ProcessRequest, user *domain.User) (*domain.ProcessingResult, error) {
	img, err := ParseImage(req.Image)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(req.Prompt) > MaxPromptLength {
		return nil, fmt.Errorf("%w: prompt too long (max %d characters)", domain.ErrBadRequest, MaxPromptLength)
	}
	instruction := req.Prompt
	if strings.TrimSpace(instruction) == "" {
		instruction = imagegen.DefaultInstruction
	}

	s.logger.Info("processing image", "user", user.Email, "bytes", len(img.Data), "mime_type", img.MIMEType)

	apiKey, err := s.secrets.Resolve(ctx, s.modelSecretName)
	if err != nil {
		s.metrics.RecordOutcome(metrics.OutcomeFailed)
		return nil, fmt.Errorf("failed to resolve model key: %w: %w", domain.ErrUpstreamUnavailable, err)
	}
	model, err := s.provider.Model(ctx, apiKey)
	if err != nil {
		s.metrics.RecordOutcome(metrics.OutcomeFailed)
		return nil, fmt.Errorf("failed to open model session: %w: %w", domain.ErrUpstreamUnavailable, err)
	}

	photoName := s.suggestName(ctx, model, img, instruction)

	now := s.now().UTC()
	photoID := s.newID()
	originalPath := artifactstore.OriginalPath(user.ID, photoID)
	originalURL, err := s.artifacts.Put(ctx, originalPath, img.MIMEType, img.Data)
	if err != nil {
		s.metrics.RecordOutcome(metrics.OutcomeFailed)
		return nil, fmt.Errorf("failed to upload original: %w: %w", domain.ErrUpstreamUnavailable, err)
	}
	uploaded := []string{originalPath}

	outcome := s.edit(ctx, model, instruction, img, user)

	photo := &domain.Photo{
		ID:          photoID,
		UserID:      user.ID,
		UserEmail:   user.Email,
		UserName:    user.Name,
		OriginalID:  photoID,
		OriginalURL: originalURL,
		PhotoName:   photoName,
		Prompt:      instruction,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if g, ok := outcome.(Generated); ok {
		generatedID := s.newID()
		generatedPath := artifactstore.GeneratedPath(user.ID, generatedID)
		generatedURL, err := s.artifacts.Put(ctx, generatedPath, g.Image.MIMEType, g.Image.Data)
		if err != nil {
			s.logger.Warn("failed to upload generated image", "user", user.Email, "error", err)
			outcome = UploadOnly{Err: err}
		} else {
			photo.GeneratedID = &generatedID
			photo.GeneratedURL = &generatedURL
			uploaded = append(uploaded, generatedPath)
		}
	}

	aiResponse, message := describe(outcome)
	photo.AIResponse = aiResponse

	if err := s.photos.Save(ctx, photo); err != nil {
		s.removeArtifacts(ctx, uploaded)
		s.metrics.RecordOutcome(metrics.OutcomeFailed)
		return nil, fmt.Errorf("failed to save photo: %w: %w", domain.ErrUpstreamUnavailable, err)
	}

	s.metrics.RecordOutcome(outcome.outcome())
	s.logger.Info("image processed", "user", user.Email, "photo_id", photoID, "outcome", outcome.outcome())

	return &domain.ProcessingResult{
		Success:      true,
		PhotoID:      photoID,
		PhotoName:    photoName,
		OriginalURL:  originalURL,
		GeneratedURL: photo.GeneratedURL,
		AIResponse:   aiResponse,
		Message:      message,
		User:         domain.OwnerOf(user),
	}, nil
}

func (s *PhotoService) suggestName(ctx context.Context, model imagegen.Model, img imagegen.Image, request string) string {
	var namer imagegen.Namer = model
	if s.namer != nil {
		namer = s.namer
	}

	start := time.Now()
	name, err := namer.SuggestName(ctx, img, request)
	s.metrics.ObserveModelCall("name", time.Since(start), err)
	if err != nil {
		s.logger.Warn("photo naming failed, using default", "error", err)
		return domain.DefaultPhotoName
	}
	return imagegen.CleanName(name)
}

func (s *PhotoService) edit(ctx context.Context, model imagegen.Model, instruction string, img imagegen.Image, user *domain.User) Outcome {
	start := time.Now()
	res, err := model.Edit(ctx, instruction, img)
	s.metrics.ObserveModelCall("edit", time.Since(start), err)
	if err != nil {
		s.logger.Warn("image generation failed", "user", user.Email, "error", err)
	}
	return classify(res, err)
}

// removeArtifacts deletes uploads of a request whose record could not be
// saved. Failures are logged only.
func (s *PhotoService) removeArtifacts(ctx context.Context, paths []string) {
	ctx = context.WithoutCancel(ctx)
	for _, p := range paths {
		if err := s.artifacts.Delete(ctx, p); err != nil {
			s.logger.Error("failed to remove orphaned artifact", "path", p, "error", err)
		}
	}
}

// ParseImage decodes a data URI ("data:image/png;base64,....") or bare base64
// payload. The MIME type defaults to image/jpeg.
func ParseImage(raw string) (imagegen.Image, error) {
	if strings.TrimSpace(raw) == "" {
		return imagegen.Image{}, fmt.Errorf("%w: image is required", domain.ErrBadRequest)
	}

	mimeType := defaultMIMEType
	header, body, found := strings.Cut(raw, ",")
	if !found {
		body, header = raw, ""
	}
	if rest, ok := strings.CutPrefix(header, "data:"); ok {
		if mt, _, _ := strings.Cut(rest, ";"); mt != "" {
			mimeType = mt
		}
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(body))
	if err != nil {
		return imagegen.Image{}, fmt.Errorf("%w: invalid image encoding: %v", domain.ErrBadRequest, err)
	}
	if len(data) == 0 {
		return imagegen.Image{}, fmt.Errorf("%w: image is empty", domain.ErrBadRequest)
	}
	return imagegen.Image{Data: data, MIMEType: mimeType}, nil
}
