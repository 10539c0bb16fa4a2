// Package playground 提供提示词测试场：评估、增强、生成与对比
package playground

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ai-runner-api/internal/domain/prompt"
	"ai-runner-api/internal/infrastructure/imagegen"
	apperrors "ai-runner-api/pkg/errors"
	"ai-runner-api/pkg/logger"
	"ai-runner-api/pkg/metrics"
)

// EmptyPromptHint 空提示词时返回给用户的提示
const EmptyPromptHint = "Please enter a prompt to test your skills!"

// ImageGenerator 图像生成端口
type ImageGenerator interface {
	Generate(ctx context.Context, text string, settings prompt.GenerationSettings) (*imagegen.Image, error)
}

// Branch 对比中的一路生成结果，Image 与 Err 至多一个非空
type Branch struct {
	Prompt string
	Image  *imagegen.Image
	Err    *apperrors.AppError
}

// Comparison 原始提示词与增强提示词的对比结果
type Comparison struct {
	Analysis    prompt.Analysis
	Enhancement prompt.Enhancement
	Settings    prompt.GenerationSettings
	Original    Branch
	Enhanced    Branch
}

// Service 测试场服务
type Service struct {
	classifier *prompt.Classifier
	enhancer   *prompt.Enhancer
	generator  ImageGenerator
	timeout    time.Duration
}

// NewService 创建测试场服务，timeout 为单次生成或对比的总时限，0 表示不限
func NewService(generator ImageGenerator, timeout time.Duration) *Service {
	return NewServiceWithRules(prompt.DefaultRules, generator, timeout)
}

// NewServiceWithRules 使用指定规则集创建测试场服务
func NewServiceWithRules(rules prompt.RuleSet, generator ImageGenerator, timeout time.Duration) *Service {
	return &Service{
		classifier: prompt.NewClassifier(rules),
		enhancer:   prompt.NewEnhancer(rules),
		generator:  generator,
		timeout:    timeout,
	}
}

// Analyze 评估提示词质量
func (s *Service) Analyze(ctx context.Context, text string) prompt.Analysis {
	a := s.classifier.Analyze(text)
	metrics.PromptClassificationsTotal.WithLabelValues(a.Quality.String()).Inc()
	logger.Debug(ctx, "prompt analyzed", "quality", a.Quality.String(), "score", a.Score, "words", a.WordCount)
	return a
}

// Enhance 增强提示词
func (s *Service) Enhance(ctx context.Context, text string) prompt.Enhancement {
	e := s.enhancer.Enhance(text)
	metrics.PromptEnhancementsTotal.WithLabelValues(strconv.Itoa(len(e.Improvements))).Inc()
	logger.Debug(ctx, "prompt enhanced", "improvements", len(e.Improvements))
	return e
}

// Generate 为单个提示词生成图像
func (s *Service) Generate(ctx context.Context, text string, settings prompt.GenerationSettings) (*imagegen.Image, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.ErrPromptEmpty.WithDetail(EmptyPromptHint)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	img, err := s.generator.Generate(ctx, text, settings.Normalize())
	if err != nil {
		appErr := MapGenerateError(err)
		logger.Error(ctx, "image generation failed", err, "code", string(appErr.Code))
		return nil, appErr
	}
	return img, nil
}

// Compare 评估并增强提示词，然后并发生成原始与增强两张图
// 一路失败不会取消另一路；请求上下文取消会传递到两路
func (s *Service) Compare(ctx context.Context, text string, settings prompt.GenerationSettings) (*Comparison, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.ErrPromptEmpty.WithDetail(EmptyPromptHint)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	settings = settings.Normalize()
	enhancement := s.Enhance(ctx, text)
	result := &Comparison{
		Analysis:    s.Analyze(ctx, text),
		Enhancement: enhancement,
		Settings:    settings,
		Original:    Branch{Prompt: text},
		Enhanced:    Branch{Prompt: enhancement.Enhanced},
	}

	// 不使用 errgroup.WithContext：两路相互独立
	var g errgroup.Group
	for _, b := range []*Branch{&result.Original, &result.Enhanced} {
		b := b
		g.Go(func() error {
			img, err := s.generator.Generate(ctx, b.Prompt, settings)
			if err != nil {
				b.Err = MapGenerateError(err)
				logger.Warn(ctx, "comparison branch failed", "error", err.Error())
				return nil
			}
			b.Image = img
			return nil
		})
	}
	_ = g.Wait()

	return result, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// MapGenerateError 将生成客户端错误转换为应用错误
func MapGenerateError(err error) *apperrors.AppError {
	var upstream *imagegen.UpstreamError
	switch {
	case apperrors.IsAppError(err):
		return apperrors.AsAppError(err)
	case errors.Is(err, imagegen.ErrModelLoading):
		return apperrors.ErrModelLoading.WithError(err)
	case errors.Is(err, imagegen.ErrRateLimited):
		return apperrors.ErrUpstreamRateLimit.WithError(err)
	case errors.Is(err, imagegen.ErrTokenMissing):
		return apperrors.New(apperrors.CodeProviderNotConfig, "image generation is not configured").WithError(err)
	case errors.Is(err, imagegen.ErrUnexpectedFormat):
		return apperrors.Wrap(err, apperrors.CodeImageProviderError, "Unexpected response format. Please try again.")
	case errors.As(err, &upstream):
		return apperrors.Wrap(err, apperrors.CodeImageProviderError, upstream.Message)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.Wrap(err, apperrors.CodeServiceUnavailable, "image generation timed out")
	default:
		return apperrors.Wrap(err, apperrors.CodeGenerationFailed, "Failed to generate image. Please try again.")
	}
}
