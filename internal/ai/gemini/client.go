package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/brightisle/cv-screener/internal/failure"
	"github.com/brightisle/cv-screener/internal/logger"
	"github.com/brightisle/cv-screener/internal/utils"
)

const (
	provider            = "gemini"
	defaultModel        = "gemini-2.5-flash"
	defaultMaxLogLength = 200
)

type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options configure a Generator.
type Options struct {
	APIKey string
	Model  string
	// Timeout bounds a single call. Zero means no limit beyond the caller's context.
	Timeout time.Duration
	// RequestsPerMinute paces calls on the client side. Zero disables pacing.
	RequestsPerMinute int
	MaxLogLength      int
	Logger            *zap.Logger
}

// Generator evaluates prompts with the Gemini API. It performs exactly one
// call per Evaluate and never retries.
type Generator struct {
	models    contentModels
	model     string
	timeout   time.Duration
	limiter   *rate.Limiter
	maxLogLen int
	logger    *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, opts Options) (*Generator, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, failure.Errorf(failure.MissingCredential, "gemini", "api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, opts), nil
}

func newGenerator(models contentModels, opts Options) *Generator {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	maxLogLen := opts.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}

	return &Generator{
		models:    models,
		model:     model,
		timeout:   opts.Timeout,
		limiter:   limiter,
		maxLogLen: maxLogLen,
		logger:    logger.WithCommonFields(opts.Logger, provider, model),
	}
}

// Evaluate sends the prompt to Gemini and returns the textual reply.
func (g *Generator) Evaluate(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", failure.Errorf(failure.Unknown, "gemini", "generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", failure.Errorf(failure.Unknown, "gemini", "prompt must not be empty")
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", Classify(err)
		}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	g.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, g.maxLogLen)),
	)

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		classified := Classify(err)
		g.logger.Debug("gemini generate content failed",
			zap.String("kind", failure.KindOf(classified).String()),
			zap.Error(err),
		)
		return "", classified
	}

	output := responseText(resp)
	if output == "" {
		return "", failure.Errorf(failure.Unknown, "gemini", "api returned empty response")
	}

	g.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", utils.TruncateForLog(output, g.maxLogLen)),
	)

	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

func errorf(kind failure.Kind, err error) error {
	return failure.New(kind, "gemini generate content", err)
}

// Classify maps a provider or transport error to a classified failure.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var classified *failure.Error
	if errors.As(err, &classified) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return errorf(classifyAPIError(apiErr), err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return errorf(classifyAPIError(*apiErrPtr), err)
	}

	if utils.IsNetworkError(err) {
		return errorf(failure.Network, err)
	}

	if mentionsQuota(err.Error()) {
		return errorf(failure.QuotaExceeded, err)
	}

	return errorf(failure.Unknown, err)
}

func classifyAPIError(apiErr genai.APIError) failure.Kind {
	message := apiErr.Message + " " + apiErr.Status

	switch {
	case apiErr.Code == 429 || strings.EqualFold(apiErr.Status, "RESOURCE_EXHAUSTED"):
		if mentionsQuota(message) {
			return failure.QuotaExceeded
		}
		return failure.RateLimited
	case apiErr.Code == 401 || apiErr.Code == 403,
		strings.EqualFold(apiErr.Status, "UNAUTHENTICATED"),
		strings.EqualFold(apiErr.Status, "PERMISSION_DENIED"),
		apiErr.Code == 400 && strings.Contains(strings.ToLower(apiErr.Message), "api key"):
		return failure.AuthInvalid
	case mentionsQuota(message):
		return failure.QuotaExceeded
	default:
		return failure.Unknown
	}
}

func mentionsQuota(s string) bool {
	return strings.Contains(strings.ToLower(s), "quota")
}
