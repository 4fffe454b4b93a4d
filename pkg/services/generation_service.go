package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/buildyoursite/buildyoursite-engine/pkg/apperrors"
	"github.com/buildyoursite/buildyoursite-engine/pkg/config"
	"github.com/buildyoursite/buildyoursite-engine/pkg/instrumentation"
	"github.com/buildyoursite/buildyoursite-engine/pkg/llm"
	"github.com/buildyoursite/buildyoursite-engine/pkg/logging"
	"github.com/buildyoursite/buildyoursite-engine/pkg/models"
	"github.com/buildyoursite/buildyoursite-engine/pkg/repositories"
	"github.com/buildyoursite/buildyoursite-engine/pkg/retry"
)

// GenerateInput asks for new website content. Type defaults to full_page.
type GenerateInput struct {
	ProjectID uuid.UUID `json:"projectId"`
	Prompt    string    `json:"prompt"`
	Type      string    `json:"type,omitempty"`
}

// ImproveInput asks the model to revise existing HTML according to feedback.
type ImproveInput struct {
	ProjectID uuid.UUID `json:"projectId"`
	Content   string    `json:"content"`
	Feedback  string    `json:"feedback"`
}

// RegenerateSectionInput asks the model to rewrite one section of a page.
type RegenerateSectionInput struct {
	ProjectID    uuid.UUID `json:"projectId"`
	FullContent  string    `json:"fullContent"`
	Section      string    `json:"section"`
	Requirements string    `json:"requirements"`
}

// GenerateOutput is the logged generation and the HTML it produced.
type GenerateOutput struct {
	Generation *models.Generation `json:"generation"`
	Content    string             `json:"content"`
}

// GenerationService calls the LLM and records each result as a generation.
type GenerationService interface {
	Generate(ctx context.Context, input *GenerateInput) (*GenerateOutput, error)
	Improve(ctx context.Context, input *ImproveInput) (*GenerateOutput, error)
	RegenerateSection(ctx context.Context, input *RegenerateSectionInput) (*GenerateOutput, error)
}

type generationService struct {
	projects    repositories.ProjectRepository
	generator   llm.Generator
	logger      PromptLogger
	metrics     *instrumentation.Metrics
	temperature float64
	maxTokens   int
	retry       *retry.Config
	now         func() time.Time
	log         *zap.Logger
}

// GenerationServiceOption customizes a GenerationService.
type GenerationServiceOption func(*generationService)

// WithRetryConfig overrides the retry policy for transient LLM failures.
func WithRetryConfig(cfg *retry.Config) GenerationServiceOption {
	return func(s *generationService) { s.retry = cfg }
}

// WithClock overrides the clock used for generation timestamps.
func WithClock(now func() time.Time) GenerationServiceOption {
	return func(s *generationService) { s.now = now }
}

// NewGenerationService creates a new GenerationService. metrics may be nil.
func NewGenerationService(
	projects repositories.ProjectRepository,
	generator llm.Generator,
	promptLogger PromptLogger,
	cfg *config.LLMConfig,
	metrics *instrumentation.Metrics,
	logger *zap.Logger,
	opts ...GenerationServiceOption,
) GenerationService {
	s := &generationService{
		projects:    projects,
		generator:   generator,
		logger:      promptLogger,
		metrics:     metrics,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		retry:       retry.LLMConfig(),
		now:         time.Now,
		log:         logger.Named("generation-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ GenerationService = (*generationService)(nil)

func (s *generationService) Generate(ctx context.Context, input *GenerateInput) (*GenerateOutput, error) {
	if input.ProjectID == uuid.Nil || strings.TrimSpace(input.Prompt) == "" {
		return nil, apperrors.InvalidInput("projectId and prompt are required")
	}
	generationType := models.GenerationTypeFullPage
	if input.Type != "" {
		parsed, ok := models.ParseGenerationType(input.Type)
		if !ok {
			return nil, apperrors.InvalidInput("unknown generation type %q", input.Type)
		}
		generationType = parsed
	}
	return s.generate(ctx, input.ProjectID, input.Prompt, generationType)
}

func (s *generationService) Improve(ctx context.Context, input *ImproveInput) (*GenerateOutput, error) {
	if input.ProjectID == uuid.Nil || input.Content == "" || strings.TrimSpace(input.Feedback) == "" {
		return nil, apperrors.InvalidInput("projectId, content and feedback are required")
	}
	prompt := fmt.Sprintf(`Improve the following HTML content based on this feedback: %q

Original content:
%s

Generate the improved version maintaining the same structure but addressing the feedback.`,
		input.Feedback, input.Content)
	return s.generate(ctx, input.ProjectID, prompt, models.GenerationTypeContent)
}

func (s *generationService) RegenerateSection(ctx context.Context, input *RegenerateSectionInput) (*GenerateOutput, error) {
	if input.ProjectID == uuid.Nil || input.FullContent == "" || strings.TrimSpace(input.Section) == "" ||
		strings.TrimSpace(input.Requirements) == "" {
		return nil, apperrors.InvalidInput("projectId, fullContent, section and requirements are required")
	}
	prompt := fmt.Sprintf(`In the following HTML, find and regenerate the section identified as %q with these new requirements: %q

Full content:
%s

Return the complete HTML with only the specified section updated.`,
		input.Section, input.Requirements, input.FullContent)
	return s.generate(ctx, input.ProjectID, prompt, models.GenerationTypeComponent)
}

func (s *generationService) generate(ctx context.Context, projectID uuid.UUID, prompt string, generationType models.GenerationType) (*GenerateOutput, error) {
	// Fail before spending tokens on a project that does not exist.
	if err := requireProject(ctx, s.projects, projectID); err != nil {
		return nil, err
	}

	ctx = llm.WithGenerationContext(ctx, projectID, string(generationType))
	req := &llm.GenerateRequest{
		Prompt:       prompt,
		SystemPrompt: llm.SystemPrompt(generationType),
		Temperature:  s.temperature,
		MaxTokens:    s.maxTokens,
	}

	start := time.Now()
	result, err := retry.DoIfRetryableWithResult(ctx, s.retry, func() (*llm.GenerateResult, error) {
		return s.generator.Generate(ctx, req)
	})
	if err != nil {
		s.metrics.GenerationFinished(s.generator.GetModel(), time.Since(start), 0, 0, err)
		s.log.Error("Generation failed",
			zap.String("project_id", projectID.String()),
			zap.String("type", string(generationType)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	s.metrics.GenerationFinished(result.Model, time.Since(start), result.PromptTokens, result.CompletionTokens, nil)

	content := llm.ExtractHTML(result.Content)
	if content == "" {
		return nil, llm.NewErrorWithContext(llm.ErrorTypeUnknown, "model returned empty content", false, nil,
			s.generator.GetModel(), s.generator.GetEndpoint(), 0)
	}
	model := result.Model
	if model == "" {
		model = s.generator.GetModel()
	}
	temperature := s.temperature

	generation, err := s.logger.LogGeneration(ctx, &LogGenerationInput{
		ProjectID:      projectID,
		Model:          &model,
		Prompt:         prompt,
		Output:         content,
		Temperature:    &temperature,
		GenerationType: string(generationType),
		Metadata: models.JSONBMap{
			"usage": map[string]any{
				"prompt_tokens":     result.PromptTokens,
				"completion_tokens": result.CompletionTokens,
				"total_tokens":      result.TotalTokens,
			},
			"timestamp": s.now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, err
	}

	return &GenerateOutput{Generation: generation, Content: content}, nil
}
